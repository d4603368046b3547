package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"codehut/internal/dto"
	"codehut/internal/model"
	"codehut/internal/repository"
	"codehut/internal/token"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const bcryptCost = 10

type AuthService interface {
	Signup(ctx context.Context, req *dto.SignupRequest, meta dto.SessionMeta) (*dto.AuthResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest, meta dto.SessionMeta) (*dto.AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string, meta dto.SessionMeta) (*dto.AuthResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	Me(ctx context.Context, userID string) (*model.User, error)
	ListSessions(ctx context.Context, page dto.Page) (*dto.PageResult[*model.Session], error)
	PurgeExpiredSessions(ctx context.Context) (int64, error)
}

type authServiceImpl struct {
	tokens      *token.Manager
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
}

func NewAuthService(
	tokens *token.Manager,
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
) AuthService {
	return &authServiceImpl{
		tokens:      tokens,
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
	}
}

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (s *authServiceImpl) Signup(ctx context.Context, req *dto.SignupRequest, meta dto.SessionMeta) (*dto.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	usernameTaken, emailTaken, err := s.userRepo.ExistsByUsernameOrEmail(ctx, req.Username, email)
	if err != nil {
		return nil, fmt.Errorf("check existing user: %w", err)
	}
	if usernameTaken || emailTaken {
		return nil, ErrUserExists
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleUser,
		IsActive:     true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	log.WithFields(log.Fields{
		"user_id":  user.ID,
		"username": user.Username,
	}).Info("User registered")

	return s.openSession(ctx, user, meta)
}

func (s *authServiceImpl) Login(ctx context.Context, req *dto.LoginRequest, meta dto.SessionMeta) (*dto.AuthResponse, error) {
	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	return s.openSession(ctx, user, meta)
}

func (s *authServiceImpl) openSession(ctx context.Context, user *model.User, meta dto.SessionMeta) (*dto.AuthResponse, error) {
	sessionID := uuid.NewString()
	refresh, expiresAt, err := s.tokens.IssueRefresh(user.ID, sessionID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	err = s.sessionRepo.Create(ctx, &model.Session{
		ID:               sessionID,
		UserID:           user.ID,
		RefreshTokenHash: hashToken(refresh),
		UserAgent:        truncate(meta.UserAgent, 255),
		IPAddress:        truncate(meta.IPAddress, 64),
		ExpiresAt:        expiresAt,
		LastUsedAt:       now,
	})
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	return s.authResponse(user, refresh)
}

func (s *authServiceImpl) Refresh(ctx context.Context, refreshToken string, meta dto.SessionMeta) (*dto.AuthResponse, error) {
	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}

	session, err := s.sessionRepo.FindByID(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("find session: %w", err)
	}

	oldHash := hashToken(refreshToken)
	if session.UserID != claims.UserID() || session.RefreshTokenHash != oldHash || time.Now().After(session.ExpiresAt) {
		log.WithFields(log.Fields{
			"session_id": session.ID,
			"user_id":    session.UserID,
			"ip":         meta.IPAddress,
		}).Warn("Rejected stale refresh token")
		return nil, ErrInvalidToken
	}

	user, err := s.userRepo.FindByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	refresh, expiresAt, err := s.tokens.IssueRefresh(user.ID, session.ID)
	if err != nil {
		return nil, err
	}

	// a concurrent refresh with the same token loses here
	if err := s.sessionRepo.Rotate(ctx, session.ID, oldHash, hashToken(refresh), expiresAt); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("rotate session: %w", err)
	}

	return s.authResponse(user, refresh)
}

func (s *authServiceImpl) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return ErrInvalidToken
	}

	session, err := s.sessionRepo.FindByID(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("find session: %w", err)
	}
	if session.RefreshTokenHash != hashToken(refreshToken) {
		return ErrInvalidToken
	}

	if err := s.sessionRepo.Delete(ctx, session.ID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *authServiceImpl) Me(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (s *authServiceImpl) ListSessions(ctx context.Context, page dto.Page) (*dto.PageResult[*model.Session], error) {
	sessions, total, err := s.sessionRepo.ListActive(ctx, page.Offset(), page.Limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return dto.NewPageResult(sessions, page, total), nil
}

func (s *authServiceImpl) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	return s.sessionRepo.DeleteExpired(ctx)
}

func (s *authServiceImpl) authResponse(user *model.User, refresh string) (*dto.AuthResponse, error) {
	access, err := s.tokens.IssueAccess(user)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		User:         user,
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.tokens.AccessTTL().Seconds()),
	}, nil
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
