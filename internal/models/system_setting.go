package models

import "time"

// SystemSetting is a persisted key/value pair owned by the server itself.
type SystemSetting struct {
	Key       string    `gorm:"column:setting_key;primaryKey;type:varchar(191)" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
