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

const (
	AccessFree      = "free"
	AccessAuthor    = "author"
	AccessPurchased = "purchased"
	AccessNone      = "none"
)

// AccessService decides whether a user may read a snippet's code.
type AccessService interface {
	// Check never returns an error. Lookup failures deny access.
	Check(ctx context.Context, userID string, snippet *model.Snippet) (bool, string)
	CheckByID(ctx context.Context, userID, snippetID string) (*dto.AccessResponse, error)
}

type accessServiceImpl struct {
	snippetRepo  repository.SnippetRepository
	purchaseRepo repository.PurchaseRepository
}

func NewAccessService(
	snippetRepo repository.SnippetRepository,
	purchaseRepo repository.PurchaseRepository,
) AccessService {
	return &accessServiceImpl{
		snippetRepo:  snippetRepo,
		purchaseRepo: purchaseRepo,
	}
}

func (s *accessServiceImpl) Check(ctx context.Context, userID string, snippet *model.Snippet) (bool, string) {
	if snippet.IsFree() {
		return true, AccessFree
	}
	if userID == "" {
		return false, AccessNone
	}
	if snippet.AuthorID == userID {
		return true, AccessAuthor
	}

	owned, err := s.purchaseRepo.Exists(ctx, userID, snippet.ID)
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"user_id":    userID,
			"snippet_id": snippet.ID,
		}).Error("Access lookup failed, denying")
		return false, AccessNone
	}
	if owned {
		return true, AccessPurchased
	}

	return false, AccessNone
}

func (s *accessServiceImpl) CheckByID(ctx context.Context, userID, snippetID string) (*dto.AccessResponse, error) {
	snippet, err := s.snippetRepo.FindByID(ctx, snippetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSnippetNotFound
		}
		return nil, fmt.Errorf("find snippet: %w", err)
	}

	ok, reason := s.Check(ctx, userID, snippet)
	return &dto.AccessResponse{
		SnippetID: snippet.ID,
		HasAccess: ok,
		Reason:    reason,
	}, nil
}
