package model

import "time"

// Setting is one row of the flat key-value settings store.
type Setting struct {
	Key       string    `gorm:"primaryKey;size:100;column:key" json:"key"`
	Value     string    `gorm:"type:text;column:value" json:"value"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Setting) TableName() string { return "settings" }
