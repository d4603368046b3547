package service

import (
	"context"
	"fmt"
	"strings"

	"codehut/internal/dto"
	"codehut/internal/model"
	"codehut/internal/repository"
)

const maxSuggestions = 10

type SearchService interface {
	// Search looks up snippets and/or users. kind is one of all, snippets or users.
	Search(ctx context.Context, query, kind string, page dto.Page) (*dto.SearchResponse, error)
	Suggestions(ctx context.Context, prefix string) ([]string, error)
}

type searchServiceImpl struct {
	snippetRepo repository.SnippetRepository
	userRepo    repository.UserRepository
}

func NewSearchService(
	snippetRepo repository.SnippetRepository,
	userRepo repository.UserRepository,
) SearchService {
	return &searchServiceImpl{
		snippetRepo: snippetRepo,
		userRepo:    userRepo,
	}
}

func (s *searchServiceImpl) Search(ctx context.Context, query, kind string, page dto.Page) (*dto.SearchResponse, error) {
	query = strings.TrimSpace(query)
	resp := &dto.SearchResponse{
		Query:    query,
		Snippets: []*model.Snippet{},
		Users:    []*model.User{},
	}

	if kind == "" || kind == "all" || kind == "snippets" {
		snippets, _, err := s.snippetRepo.List(ctx, &dto.SnippetFilter{Query: query, Sort: "popular", Page: page})
		if err != nil {
			return nil, fmt.Errorf("search snippets: %w", err)
		}
		resp.Snippets = snippets
	}

	if kind == "" || kind == "all" || kind == "users" {
		users, _, err := s.userRepo.List(ctx, query, page.Offset(), page.Limit)
		if err != nil {
			return nil, fmt.Errorf("search users: %w", err)
		}
		resp.Users = users
	}

	return resp, nil
}

func (s *searchServiceImpl) Suggestions(ctx context.Context, prefix string) ([]string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return []string{}, nil
	}

	suggestions, err := s.snippetRepo.Suggest(ctx, prefix, maxSuggestions)
	if err != nil {
		return nil, fmt.Errorf("suggest: %w", err)
	}
	if suggestions == nil {
		suggestions = []string{}
	}
	return suggestions, nil
}
