package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/onswift/backend/internal/models"
	apperrors "github.com/onswift/backend/pkg/errors"
	"github.com/onswift/backend/pkg/metrics"
)

// ErrNotificationNotFound is returned when a notification does not exist or belongs to someone else.
var ErrNotificationNotFound = apperrors.New("NOTIFICATION_NOT_FOUND", "Notification not found", http.StatusNotFound)

// NotificationDTO represents the API-friendly notification payload.
type NotificationDTO struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Title         string    `json:"title"`
	Message       string    `json:"message"`
	Type          string    `json:"notification_type"`
	IsRead        bool      `json:"is_read"`
	HireRequestID *string   `json:"hire_request_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// NotifyInput defines attributes required to persist a notification.
type NotifyInput struct {
	UserID        string
	Title         string
	Message       string
	Type          string
	HireRequestID *string
}

// ListNotificationsInput defines filters for querying user notifications.
type ListNotificationsInput struct {
	UserID     string
	Limit      int
	Offset     int
	UnreadOnly bool
}

// NotificationService manages user in-app notifications.
type NotificationService struct {
	db *gorm.DB
}

// NewNotificationService constructs a NotificationService.
func NewNotificationService(db *gorm.DB) (*NotificationService, error) {
	if db == nil {
		return nil, errors.New("notification service: db is required")
	}
	return &NotificationService{db: db}, nil
}

// Notify writes a notification through tx so it commits or rolls back with the
// state change that caused it. A nil tx uses the service connection.
func (s *NotificationService) Notify(ctx context.Context, tx *gorm.DB, input NotifyInput) (*models.Notification, error) {
	ctx = ensureContext(ctx)
	if tx == nil {
		tx = s.db
	}

	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		return nil, errors.New("notification service: user id is required")
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, errors.New("notification service: title is required")
	}

	notification := &models.Notification{
		UserID:        userID,
		Title:         title,
		Message:       strings.TrimSpace(input.Message),
		Type:          defaultIfEmpty(strings.TrimSpace(input.Type), models.NotificationTypeSystem),
		HireRequestID: input.HireRequestID,
	}

	if err := tx.WithContext(ctx).Create(notification).Error; err != nil {
		return nil, fmt.Errorf("notification service: create: %w", err)
	}

	metrics.NotificationsCreated.WithLabelValues(notification.Type).Inc()
	return notification, nil
}

// List returns notifications for the supplied user ordered by recency.
func (s *NotificationService) List(ctx context.Context, input ListNotificationsInput) ([]NotificationDTO, error) {
	ctx = ensureContext(ctx)
	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		return nil, errors.New("notification service: user id is required")
	}

	limit, offset := clampPage(input.Limit, input.Offset)

	query := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset)
	if input.UnreadOnly {
		query = query.Where("is_read = ?", false)
	}

	var rows []models.Notification
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("notification service: list: %w", err)
	}

	result := make([]NotificationDTO, 0, len(rows))
	for i := range rows {
		result = append(result, mapNotification(&rows[i]))
	}
	return result, nil
}

// MarkRead flags a single notification as read. Notifications owned by other users are reported as missing.
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID string) error {
	ctx = ensureContext(ctx)

	res := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", strings.TrimSpace(notificationID), strings.TrimSpace(userID)).
		Update("is_read", true)
	if res.Error != nil {
		return fmt.Errorf("notification service: mark read: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// Re-marking an already read notification is still a success.
		var count int64
		if err := s.db.WithContext(ctx).
			Model(&models.Notification{}).
			Where("id = ? AND user_id = ?", strings.TrimSpace(notificationID), strings.TrimSpace(userID)).
			Count(&count).Error; err != nil {
			return fmt.Errorf("notification service: mark read: %w", err)
		}
		if count == 0 {
			return ErrNotificationNotFound
		}
	}
	return nil
}

// MarkAllRead flags every unread notification for the user and returns how many changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	ctx = ensureContext(ctx)

	res := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", strings.TrimSpace(userID), false).
		Update("is_read", true)
	if res.Error != nil {
		return 0, fmt.Errorf("notification service: mark all read: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// UnreadCount returns the number of unread notifications for the user.
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	ctx = ensureContext(ctx)

	var count int64
	if err := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", strings.TrimSpace(userID), false).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("notification service: unread count: %w", err)
	}
	return count, nil
}

func mapNotification(model *models.Notification) NotificationDTO {
	return NotificationDTO{
		ID:            model.ID,
		UserID:        model.UserID,
		Title:         model.Title,
		Message:       model.Message,
		Type:          model.Type,
		IsRead:        model.IsRead,
		HireRequestID: model.HireRequestID,
		CreatedAt:     model.CreatedAt,
	}
}
