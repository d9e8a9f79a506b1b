package repository

import (
	"context"
	"time"

	"hbrelay/src/database"
	"hbrelay/src/model"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const defaultRecentLimit = 50

// ExceptionRepository persists delivery failures.
type ExceptionRepository struct {
	db *gorm.DB
}

// NewExceptionRepository creates a new repository instance.
func NewExceptionRepository() *ExceptionRepository {
	return &ExceptionRepository{
		db: database.MainDB,
	}
}

func NewExceptionRepositoryWithDB(db *gorm.DB) *ExceptionRepository {
	return &ExceptionRepository{db: db}
}

// Create persists a new delivery failure.
func (r *ExceptionRepository) Create(
	ctx context.Context,
	exc *model.Exception,
) error {

	logger.WithFields(map[string]interface{}{
		"event_id": exc.EventID,
		"class":    exc.Class,
		"kind":     exc.Kind,
		"action":   exc.Action,
	}).Warn("Persisting delivery failure")

	if exc.CreatedAt.IsZero() {
		exc.CreatedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(exc).Error
}

// Recent returns the newest failures first.
func (r *ExceptionRepository) Recent(ctx context.Context, limit int) ([]model.Exception, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}

	var out []model.Exception
	err := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// PurgeBefore removes failures older than cutoff and returns how many went.
func (r *ExceptionRepository) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&model.Exception{})
	return res.RowsAffected, res.Error
}
