package repository

import (
	"context"
	"errors"
	"time"

	"hbrelay/src/database"
	"hbrelay/src/model"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SettingRepository is the gorm-backed settings store.
type SettingRepository struct {
	db *gorm.DB
}

func NewSettingRepository() *SettingRepository {
	logger.WithField("component", "SettingRepository").
		Debug("Creating new SettingRepository with MainDB")

	return &SettingRepository{
		db: database.MainDB,
	}
}

func NewSettingRepositoryWithDB(db *gorm.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

// Get returns the stored value for key, or def when there is no row.
func (r *SettingRepository) Get(ctx context.Context, key, def string) (string, error) {
	var s model.Setting
	err := r.db.WithContext(ctx).
		Where("key = ?", key).
		First(&s).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return def, nil
	}
	if err != nil {
		return def, err
	}
	return s.Value, nil
}

// Set upserts key. The write is visible to the next Get on this
// connection pool.
func (r *SettingRepository) Set(ctx context.Context, key, value string) error {
	row := model.Setting{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&row).Error
}

// All returns every stored row ordered by key.
func (r *SettingRepository) All(ctx context.Context) ([]model.Setting, error) {
	var rows []model.Setting
	err := r.db.WithContext(ctx).
		Order("key ASC").
		Find(&rows).Error
	return rows, err
}
