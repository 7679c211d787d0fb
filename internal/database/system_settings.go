package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/onswift/backend/internal/models"
)

// EncryptionKeySetting is the settings key holding the secrets encryption key.
const EncryptionKeySetting = "secrets.encryption_key"

// GetSystemSetting retrieves a system setting by key. Returns an empty string when not found.
func GetSystemSetting(ctx context.Context, db *gorm.DB, key string) (string, error) {
	if db == nil {
		return "", fmt.Errorf("system settings: db is nil")
	}

	var setting models.SystemSetting
	err := db.WithContext(ctx).Take(&setting, "setting_key = ?", key).Error
	if err == nil {
		return setting.Value, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if strings.Contains(err.Error(), "no such table") {
		return "", nil
	}
	return "", fmt.Errorf("system settings: get %q: %w", key, err)
}

// UpsertSystemSetting stores or updates a system setting value.
func UpsertSystemSetting(ctx context.Context, db *gorm.DB, key, value string) error {
	if db == nil {
		return fmt.Errorf("system settings: db is nil")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("system settings: key is required")
	}

	record := models.SystemSetting{
		Key:   key,
		Value: value,
	}

	if err := db.WithContext(ctx).
		Where("setting_key = ?", key).
		Assign(map[string]any{"value": value}).
		FirstOrCreate(&record).Error; err != nil {
		return fmt.Errorf("system settings: upsert %q: %w", key, err)
	}

	return nil
}

// ResolveEncryptionKey reconciles the configured secrets key with the one stored
// in the database. A key generated at start-up loses to a previously stored key
// so ciphertext written by earlier runs stays readable; an operator supplied key
// always wins and is persisted.
func ResolveEncryptionKey(ctx context.Context, db *gorm.DB, key string, generated bool) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("system settings: encryption key is empty")
	}

	current, err := GetSystemSetting(ctx, db, EncryptionKeySetting)
	if err != nil {
		return "", err
	}
	current = strings.TrimSpace(current)

	switch {
	case current == key:
		return key, nil
	case generated && current != "":
		return current, nil
	}

	if err := UpsertSystemSetting(ctx, db, EncryptionKeySetting, key); err != nil {
		return "", err
	}
	return key, nil
}
