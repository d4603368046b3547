package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"codehut/internal/dto"
	"codehut/internal/model"
	"codehut/internal/repository"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Actor is the authenticated caller of a mutating operation.
type Actor struct {
	UserID string
	Role   model.Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == model.RoleAdmin
}

type SnippetService interface {
	List(ctx context.Context, filter *dto.SnippetFilter) (*dto.PageResult[*model.Snippet], error)
	// Get returns the snippet with its code only when viewerID may access it.
	Get(ctx context.Context, viewerID, snippetID string) (*dto.SnippetView, error)
	Create(ctx context.Context, actor Actor, req *dto.CreateSnippetRequest) (*model.Snippet, error)
	Update(ctx context.Context, actor Actor, snippetID string, req *dto.UpdateSnippetRequest) (*model.Snippet, error)
	Delete(ctx context.Context, actor Actor, snippetID string) error
}

type snippetServiceImpl struct {
	db            *gorm.DB
	currency      string
	snippetRepo   repository.SnippetRepository
	userRepo      repository.UserRepository
	accessService AccessService
}

func NewSnippetService(
	db *gorm.DB,
	currency string,
	snippetRepo repository.SnippetRepository,
	userRepo repository.UserRepository,
	accessService AccessService,
) SnippetService {
	return &snippetServiceImpl{
		db:            db,
		currency:      currency,
		snippetRepo:   snippetRepo,
		userRepo:      userRepo,
		accessService: accessService,
	}
}

func (s *snippetServiceImpl) List(ctx context.Context, filter *dto.SnippetFilter) (*dto.PageResult[*model.Snippet], error) {
	snippets, total, err := s.snippetRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list snippets: %w", err)
	}
	return dto.NewPageResult(snippets, filter.Page, total), nil
}

func (s *snippetServiceImpl) Get(ctx context.Context, viewerID, snippetID string) (*dto.SnippetView, error) {
	snippet, err := s.find(ctx, snippetID)
	if err != nil {
		return nil, err
	}

	view := &dto.SnippetView{Snippet: snippet}
	if ok, _ := s.accessService.Check(ctx, viewerID, snippet); !ok {
		snippet.Code = ""
		view.Locked = true
	}
	return view, nil
}

func (s *snippetServiceImpl) Create(ctx context.Context, actor Actor, req *dto.CreateSnippetRequest) (*model.Snippet, error) {
	if req.Price.IsNegative() {
		return nil, ErrInvalidPrice
	}

	author, err := s.userRepo.FindByID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find author: %w", err)
	}

	snippet := &model.Snippet{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Code:        req.Code,
		Price:       req.Price.Round(2),
		Currency:    s.currency,
		AuthorID:    author.ID,
		AuthorName:  author.Username,
		Tags:        normalizeTags(req.Tags),
		Language:    strings.ToLower(strings.TrimSpace(req.Language)),
		Framework:   strings.TrimSpace(req.Framework),
		Status:      model.SnippetStatusApproved,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.snippetRepo.Create(ctx, tx, snippet); err != nil {
			return fmt.Errorf("create snippet: %w", err)
		}
		return s.userRepo.IncrementSnippets(ctx, tx, author.ID, 1)
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"snippet_id": snippet.ID,
		"author_id":  author.ID,
		"price":      snippet.Price.StringFixed(2),
	}).Info("Snippet published")

	return snippet, nil
}

func (s *snippetServiceImpl) Update(ctx context.Context, actor Actor, snippetID string, req *dto.UpdateSnippetRequest) (*model.Snippet, error) {
	snippet, err := s.find(ctx, snippetID)
	if err != nil {
		return nil, err
	}
	if snippet.AuthorID != actor.UserID && !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	var columns []string
	if req.Title != nil {
		snippet.Title = strings.TrimSpace(*req.Title)
		columns = append(columns, "title")
	}
	if req.Description != nil {
		snippet.Description = *req.Description
		columns = append(columns, "description")
	}
	if req.Code != nil {
		snippet.Code = *req.Code
		columns = append(columns, "code")
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, ErrInvalidPrice
		}
		snippet.Price = req.Price.Round(2)
		columns = append(columns, "price")
	}
	if req.Tags != nil {
		snippet.Tags = normalizeTags(req.Tags)
		columns = append(columns, "tags")
	}
	if req.Language != nil {
		snippet.Language = strings.ToLower(strings.TrimSpace(*req.Language))
		columns = append(columns, "language")
	}
	if req.Framework != nil {
		snippet.Framework = strings.TrimSpace(*req.Framework)
		columns = append(columns, "framework")
	}

	if len(columns) > 0 {
		columns = append(columns, "updated_at")
		if err := s.snippetRepo.Update(ctx, snippet, columns...); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrSnippetNotFound
			}
			return nil, fmt.Errorf("update snippet: %w", err)
		}
	}

	return s.find(ctx, snippet.ID)
}

func (s *snippetServiceImpl) Delete(ctx context.Context, actor Actor, snippetID string) error {
	snippet, err := s.find(ctx, snippetID)
	if err != nil {
		return err
	}
	if snippet.AuthorID != actor.UserID && !actor.IsAdmin() {
		return ErrForbidden
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.snippetRepo.Delete(ctx, tx, snippet.ID); err != nil {
			return err
		}
		return s.userRepo.IncrementSnippets(ctx, tx, snippet.AuthorID, -1)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSnippetNotFound
		}
		return fmt.Errorf("delete snippet: %w", err)
	}

	log.WithFields(log.Fields{
		"snippet_id": snippet.ID,
		"actor_id":   actor.UserID,
	}).Info("Snippet deleted")
	return nil
}

func (s *snippetServiceImpl) find(ctx context.Context, snippetID string) (*model.Snippet, error) {
	snippet, err := s.snippetRepo.FindByID(ctx, snippetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSnippetNotFound
		}
		return nil, fmt.Errorf("find snippet: %w", err)
	}
	return snippet, nil
}

func normalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
