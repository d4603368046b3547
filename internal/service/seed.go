package service

import (
	"context"
	"fmt"

	"codehut/internal/model"
	"codehut/internal/repository"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// SamplePassword is the password of every seeded account.
const SamplePassword = "password123"

// SeedSampleData inserts a fixed set of accounts and snippets. Existing rows are left untouched.
func SeedSampleData(ctx context.Context, userRepo repository.UserRepository, snippetRepo repository.SnippetRepository) error {
	hash, err := HashPassword(SamplePassword)
	if err != nil {
		return err
	}

	users := []*model.User{
		{ID: "11111111-1111-4111-8111-111111111111", Username: "admin", Email: "admin@codehut.dev", Role: model.RoleAdmin, Bio: "Platform administrator"},
		{ID: "22222222-2222-4222-8222-222222222222", Username: "priya", Email: "priya@codehut.dev", Role: model.RoleUser, Bio: "Go and Postgres nerd", TotalSnippets: 2},
		{ID: "33333333-3333-4333-8333-333333333333", Username: "arjun", Email: "arjun@codehut.dev", Role: model.RoleUser, Bio: "Frontend, mostly React", TotalSnippets: 2},
	}
	for _, u := range users {
		u.PasswordHash = hash
		u.IsActive = true
		u.IsVerified = true
	}

	priya, arjun := users[1], users[2]
	snippets := []*model.Snippet{
		{
			ID:          "aaaaaaa1-0000-4000-8000-000000000001",
			Title:       "Graceful HTTP shutdown",
			Description: "Drain in-flight requests on SIGTERM.",
			Code:        "srv.Shutdown(ctx)",
			Price:       decimal.Zero,
			Tags:        []string{"go", "http"},
			Language:    "go",
			AuthorID:    priya.ID,
			AuthorName:  priya.Username,
		},
		{
			ID:          "aaaaaaa1-0000-4000-8000-000000000002",
			Title:       "Postgres advisory lock helper",
			Description: "Run a job on exactly one replica.",
			Code:        "SELECT pg_try_advisory_lock($1)",
			Price:       decimal.NewFromInt(299),
			Tags:        []string{"go", "postgres"},
			Language:    "go",
			AuthorID:    priya.ID,
			AuthorName:  priya.Username,
		},
		{
			ID:          "aaaaaaa1-0000-4000-8000-000000000003",
			Title:       "useDebounce hook",
			Description: "Debounce any value in a React component.",
			Code:        "export function useDebounce(value, delay) { /* ... */ }",
			Price:       decimal.NewFromInt(49),
			Tags:        []string{"react", "hooks"},
			Language:    "javascript",
			Framework:   "react",
			AuthorID:    arjun.ID,
			AuthorName:  arjun.Username,
		},
		{
			ID:          "aaaaaaa1-0000-4000-8000-000000000004",
			Title:       "Tailwind card grid",
			Description: "Responsive card layout.",
			Code:        "<div class=\"grid gap-4 md:grid-cols-3\"></div>",
			Price:       decimal.Zero,
			Tags:        []string{"css", "tailwind"},
			Language:    "html",
			AuthorID:    arjun.ID,
			AuthorName:  arjun.Username,
		},
	}
	for _, sn := range snippets {
		sn.Currency = "INR"
		sn.Status = model.SnippetStatusApproved
	}

	if err := userRepo.Seed(ctx, users); err != nil {
		return fmt.Errorf("seed users: %w", err)
	}
	if err := snippetRepo.Seed(ctx, snippets); err != nil {
		return fmt.Errorf("seed snippets: %w", err)
	}

	log.WithFields(log.Fields{
		"users":    len(users),
		"snippets": len(snippets),
	}).Info("Sample data seeded")
	return nil
}
