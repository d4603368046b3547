package repository

import (
	"context"
	"strings"

	"codehut/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository interface {
	Seed(ctx context.Context, users []*model.User) error
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, userID string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (usernameTaken, emailTaken bool, err error)
	List(ctx context.Context, query string, offset, limit int) ([]*model.User, int64, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
	IncrementSnippets(ctx context.Context, tx *gorm.DB, userID string, delta int) error
	IncrementDownloads(ctx context.Context, tx *gorm.DB, userID string) error
	Count(ctx context.Context) (int64, error)
}

type userRepoImpl struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepoImpl{
		db: db,
	}
}

func (r *userRepoImpl) Seed(ctx context.Context, users []*model.User) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&users).Error
}

func (r *userRepoImpl) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepoImpl) FindByID(ctx context.Context, userID string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("id = ?", userID).
		First(&user).Error
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *userRepoImpl) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(email)).
		First(&user).Error
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *userRepoImpl) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, bool, error) {
	var users []*model.User
	err := r.db.WithContext(ctx).
		Select("username", "email").
		Where("username = ? OR email = ?", username, strings.ToLower(email)).
		Find(&users).Error
	if err != nil {
		return false, false, err
	}

	var usernameTaken, emailTaken bool
	for _, u := range users {
		if u.Username == username {
			usernameTaken = true
		}
		if u.Email == strings.ToLower(email) {
			emailTaken = true
		}
	}

	return usernameTaken, emailTaken, nil
}

func (r *userRepoImpl) List(ctx context.Context, query string, offset, limit int) ([]*model.User, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.User{}).Where("is_active = ?", true)
	if query != "" {
		q = q.Where("LOWER(username) LIKE ?", likePattern(query))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []*model.User
	err := q.Order("total_downloads DESC").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func (r *userRepoImpl) Update(ctx context.Context, userID string, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", userID).
		Updates(updates)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *userRepoImpl) IncrementSnippets(ctx context.Context, tx *gorm.DB, userID string, delta int) error {
	return tx.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).
		Update("total_snippets", gorm.Expr("total_snippets + ?", delta)).Error
}

func (r *userRepoImpl) IncrementDownloads(ctx context.Context, tx *gorm.DB, userID string) error {
	return tx.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).
		Update("total_downloads", gorm.Expr("total_downloads + ?", 1)).Error
}

func (r *userRepoImpl) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.User{}).Count(&count).Error
	return count, err
}

func likePattern(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("%", "", "_", "").Replace(s)
	return "%" + s + "%"
}
