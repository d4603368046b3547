package repository

import (
	"context"
	"strings"

	"codehut/internal/dto"
	"codehut/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SnippetRepository interface {
	Seed(ctx context.Context, snippets []*model.Snippet) error
	Create(ctx context.Context, tx *gorm.DB, snippet *model.Snippet) error
	FindByID(ctx context.Context, snippetID string) (*model.Snippet, error)
	FindMany(ctx context.Context, snippetIDs []string) ([]*model.Snippet, error)
	List(ctx context.Context, filter *dto.SnippetFilter) ([]*model.Snippet, int64, error)
	// Update writes the named columns of snippet, zero values included.
	Update(ctx context.Context, snippet *model.Snippet, columns ...string) error
	Delete(ctx context.Context, tx *gorm.DB, snippetID string) error
	IncrementDownloads(ctx context.Context, tx *gorm.DB, snippetID string) error
	Count(ctx context.Context) (int64, error)
	CountByLanguage(ctx context.Context) ([]*dto.LanguageCount, error)
	Suggest(ctx context.Context, prefix string, limit int) ([]string, error)
}

type snippetRepoImpl struct {
	db *gorm.DB
}

func NewSnippetRepository(db *gorm.DB) SnippetRepository {
	return &snippetRepoImpl{
		db: db,
	}
}

func (r *snippetRepoImpl) Seed(ctx context.Context, snippets []*model.Snippet) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&snippets).Error
}

func (r *snippetRepoImpl) Create(ctx context.Context, tx *gorm.DB, snippet *model.Snippet) error {
	return tx.WithContext(ctx).Create(snippet).Error
}

func (r *snippetRepoImpl) FindByID(ctx context.Context, snippetID string) (*model.Snippet, error) {
	var snippet model.Snippet
	err := r.db.WithContext(ctx).
		Where("id = ?", snippetID).
		First(&snippet).Error

	if err != nil {
		return nil, err
	}

	return &snippet, nil
}

func (r *snippetRepoImpl) FindMany(ctx context.Context, snippetIDs []string) ([]*model.Snippet, error) {
	var snippets []*model.Snippet
	if len(snippetIDs) == 0 {
		return snippets, nil
	}

	err := r.db.WithContext(ctx).
		Where("id IN ?", snippetIDs).
		Find(&snippets).
		Error

	if err != nil {
		return nil, err
	}

	return snippets, nil
}

func (r *snippetRepoImpl) List(ctx context.Context, filter *dto.SnippetFilter) ([]*model.Snippet, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Snippet{}).
		Where("status = ?", model.SnippetStatusApproved)

	if filter.Query != "" {
		pattern := likePattern(filter.Query)
		q = q.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}
	if filter.Language != "" {
		q = q.Where("LOWER(language) = ?", strings.ToLower(filter.Language))
	}
	if filter.Framework != "" {
		q = q.Where("LOWER(framework) = ?", strings.ToLower(filter.Framework))
	}
	if filter.Tag != "" {
		// tags are stored as a JSON array of lowercase strings
		q = q.Where("tags LIKE ?", `%"`+strings.ToLower(filter.Tag)+`"%`)
	}
	if filter.AuthorID != "" {
		q = q.Where("author_id = ?", filter.AuthorID)
	}
	if filter.MinPrice != nil {
		q = q.Where("price >= ?", filter.MinPrice.InexactFloat64())
	}
	if filter.MaxPrice != nil {
		q = q.Where("price <= ?", filter.MaxPrice.InexactFloat64())
	}
	if filter.Free != nil {
		if *filter.Free {
			q = q.Where("price = 0")
		} else {
			q = q.Where("price > 0")
		}
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var snippets []*model.Snippet
	err := q.Omit("code").
		Order(snippetOrder(filter.Sort)).
		Order("id").
		Offset(filter.Page.Offset()).
		Limit(filter.Page.Limit).
		Find(&snippets).Error
	if err != nil {
		return nil, 0, err
	}

	return snippets, total, nil
}

func snippetOrder(sort string) string {
	switch sort {
	case "popular":
		return "downloads DESC"
	case "price_asc":
		return "price ASC"
	case "price_desc":
		return "price DESC"
	case "rating":
		return "rating DESC"
	default:
		return "created_at DESC"
	}
}

func (r *snippetRepoImpl) Update(ctx context.Context, snippet *model.Snippet, columns ...string) error {
	result := r.db.WithContext(ctx).
		Model(snippet).
		Select(columns).
		Updates(snippet)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *snippetRepoImpl) Delete(ctx context.Context, tx *gorm.DB, snippetID string) error {
	result := tx.WithContext(ctx).
		Where("id = ?", snippetID).
		Delete(&model.Snippet{})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *snippetRepoImpl) IncrementDownloads(ctx context.Context, tx *gorm.DB, snippetID string) error {
	return tx.WithContext(ctx).Model(&model.Snippet{}).
		Where("id = ?", snippetID).
		Update("downloads", gorm.Expr("downloads + ?", 1)).Error
}

func (r *snippetRepoImpl) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Snippet{}).Count(&count).Error
	return count, err
}

func (r *snippetRepoImpl) CountByLanguage(ctx context.Context) ([]*dto.LanguageCount, error) {
	var counts []*dto.LanguageCount
	err := r.db.WithContext(ctx).
		Model(&model.Snippet{}).
		Select("language, COUNT(*) AS count").
		Group("language").
		Order("count DESC").
		Scan(&counts).Error

	if err != nil {
		return nil, err
	}

	return counts, nil
}

func (r *snippetRepoImpl) Suggest(ctx context.Context, prefix string, limit int) ([]string, error) {
	pattern := strings.TrimSuffix(likePattern(prefix), "%")
	pattern = strings.TrimPrefix(pattern, "%") + "%"

	var titles []string
	err := r.db.WithContext(ctx).
		Model(&model.Snippet{}).
		Distinct("title").
		Where("LOWER(title) LIKE ?", pattern).
		Order("title").
		Limit(limit).
		Pluck("title", &titles).Error
	if err != nil {
		return nil, err
	}

	if len(titles) >= limit {
		return titles, nil
	}

	var languages []string
	err = r.db.WithContext(ctx).
		Model(&model.Snippet{}).
		Distinct("language").
		Where("LOWER(language) LIKE ?", pattern).
		Order("language").
		Limit(limit-len(titles)).
		Pluck("language", &languages).Error
	if err != nil {
		return nil, err
	}

	return append(titles, languages...), nil
}
