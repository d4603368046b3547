package service

import (
	"context"
	"errors"
	"fmt"

	"codehut/internal/dto"
	"codehut/internal/model"
	"codehut/internal/repository"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type UserService interface {
	List(ctx context.Context, query string, page dto.Page) (*dto.PageResult[*model.User], error)
	Get(ctx context.Context, userID string) (*model.User, error)
	ListSnippets(ctx context.Context, userID string, page dto.Page) (*dto.PageResult[*model.Snippet], error)
	UpdateProfile(ctx context.Context, actor Actor, userID string, req *dto.UpdateUserRequest) (*model.User, error)
	SetActive(ctx context.Context, userID string, active bool) (*model.User, error)
}

type userServiceImpl struct {
	userRepo    repository.UserRepository
	snippetRepo repository.SnippetRepository
}

func NewUserService(
	userRepo repository.UserRepository,
	snippetRepo repository.SnippetRepository,
) UserService {
	return &userServiceImpl{
		userRepo:    userRepo,
		snippetRepo: snippetRepo,
	}
}

func (s *userServiceImpl) List(ctx context.Context, query string, page dto.Page) (*dto.PageResult[*model.User], error) {
	users, total, err := s.userRepo.List(ctx, query, page.Offset(), page.Limit)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return dto.NewPageResult(users, page, total), nil
}

func (s *userServiceImpl) Get(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (s *userServiceImpl) ListSnippets(ctx context.Context, userID string, page dto.Page) (*dto.PageResult[*model.Snippet], error) {
	if _, err := s.Get(ctx, userID); err != nil {
		return nil, err
	}

	snippets, total, err := s.snippetRepo.List(ctx, &dto.SnippetFilter{AuthorID: userID, Page: page})
	if err != nil {
		return nil, fmt.Errorf("list user snippets: %w", err)
	}
	return dto.NewPageResult(snippets, page, total), nil
}

func (s *userServiceImpl) UpdateProfile(ctx context.Context, actor Actor, userID string, req *dto.UpdateUserRequest) (*model.User, error) {
	if actor.UserID != userID && !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	updates := map[string]interface{}{}
	if req.Bio != nil {
		updates["bio"] = *req.Bio
	}
	if req.Avatar != nil {
		updates["avatar"] = *req.Avatar
	}

	if len(updates) > 0 {
		if err := s.userRepo.Update(ctx, userID, updates); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrUserNotFound
			}
			return nil, fmt.Errorf("update user: %w", err)
		}
	}

	return s.Get(ctx, userID)
}

func (s *userServiceImpl) SetActive(ctx context.Context, userID string, active bool) (*model.User, error) {
	if err := s.userRepo.Update(ctx, userID, map[string]interface{}{"is_active": active}); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("update user status: %w", err)
	}

	log.WithFields(log.Fields{
		"user_id":   userID,
		"is_active": active,
	}).Info("User status changed")

	return s.Get(ctx, userID)
}
