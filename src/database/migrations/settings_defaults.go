package migrations

import (
	"fmt"
	"time"

	"hbrelay/src/model"
	"hbrelay/src/settings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// seedDefaultSettings writes a row for every known key that has none yet,
// so operators see the full key set when browsing the table.
func seedDefaultSettings(db *gorm.DB) error {
	now := time.Now().UTC()
	rows := make([]model.Setting, 0, len(settings.Defaults))
	for _, key := range settings.Keys() {
		rows = append(rows, model.Setting{Key: key, Value: settings.Defaults[key], UpdatedAt: now})
	}

	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error; err != nil {
		return fmt.Errorf("seed settings: %w", err)
	}
	return nil
}

// normalizeBooleanSettings rewrites legacy checkbox values ("1", "on", "yes")
// into "true"/"false".
func normalizeBooleanSettings(db *gorm.DB) error {
	var rows []model.Setting
	if err := db.Find(&rows).Error; err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	for _, row := range rows {
		if !settings.IsBool(row.Key) {
			continue
		}
		b, err := settings.ParseBool(row.Value)
		if err != nil {
			b = false
		}
		normalized := fmt.Sprintf("%t", b)
		if normalized == row.Value {
			continue
		}
		if err := db.Model(&model.Setting{}).
			Where("key = ?", row.Key).
			Update("value", normalized).Error; err != nil {
			return fmt.Errorf("normalize %s: %w", row.Key, err)
		}
	}
	return nil
}
