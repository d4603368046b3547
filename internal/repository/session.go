package repository

import (
	"context"
	"time"

	"codehut/internal/model"

	"gorm.io/gorm"
)

type SessionRepository interface {
	Create(ctx context.Context, session *model.Session) error
	FindByID(ctx context.Context, sessionID string) (*model.Session, error)
	// Rotate swaps the refresh hash only if the session still holds oldHash.
	Rotate(ctx context.Context, sessionID, oldHash, newHash string, expiresAt time.Time) error
	Delete(ctx context.Context, sessionID string) error
	ListActive(ctx context.Context, offset, limit int) ([]*model.Session, int64, error)
	DeleteExpired(ctx context.Context) (int64, error)
}

type sessionRepoImpl struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepoImpl{
		db: db,
	}
}

func (r *sessionRepoImpl) Create(ctx context.Context, session *model.Session) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *sessionRepoImpl) FindByID(ctx context.Context, sessionID string) (*model.Session, error) {
	var session model.Session
	err := r.db.WithContext(ctx).
		Where("id = ?", sessionID).
		First(&session).Error
	if err != nil {
		return nil, err
	}

	return &session, nil
}

func (r *sessionRepoImpl) Rotate(ctx context.Context, sessionID, oldHash, newHash string, expiresAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&model.Session{}).
		Where("id = ? AND refresh_token_hash = ?", sessionID, oldHash).
		Updates(map[string]interface{}{
			"refresh_token_hash": newHash,
			"expires_at":         expiresAt,
			"last_used_at":       time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *sessionRepoImpl) Delete(ctx context.Context, sessionID string) error {
	return r.db.WithContext(ctx).
		Where("id = ?", sessionID).
		Delete(&model.Session{}).Error
}

func (r *sessionRepoImpl) ListActive(ctx context.Context, offset, limit int) ([]*model.Session, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Session{}).Where("expires_at > ?", time.Now())

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var sessions []*model.Session
	err := q.Order("last_used_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&sessions).Error
	if err != nil {
		return nil, 0, err
	}

	return sessions, total, nil
}

func (r *sessionRepoImpl) DeleteExpired(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at <= ?", time.Now()).
		Delete(&model.Session{})
	return result.RowsAffected, result.Error
}
