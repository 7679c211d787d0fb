package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/onswift/backend/internal/models"
	apperrors "github.com/onswift/backend/pkg/errors"
)

// ErrConversationNotFound is returned for missing conversations and ones the caller is not part of.
var ErrConversationNotFound = apperrors.New("CONVERSATION_NOT_FOUND", "Conversation not found", http.StatusNotFound)

// ConversationDTO summarises a direct thread from one participant's side.
type ConversationDTO struct {
	ID          string          `json:"id"`
	OtherUser   *UserSummary    `json:"other_user"`
	LastMessage *models.Message `json:"last_message"`
	UnreadCount int64           `json:"unread_count"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ConversationService manages one to one messaging.
type ConversationService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewConversationService constructs a ConversationService.
func NewConversationService(db *gorm.DB) (*ConversationService, error) {
	if db == nil {
		return nil, errors.New("conversation service: db is required")
	}
	return &ConversationService{db: db, now: systemClock}, nil
}

// Start returns the thread between the two users, creating it on first contact.
func (s *ConversationService) Start(ctx context.Context, userID, otherUserID string) (*ConversationDTO, error) {
	ctx = ensureContext(ctx)

	userID = strings.TrimSpace(userID)
	otherUserID = strings.TrimSpace(otherUserID)
	if otherUserID == "" {
		return nil, apperrors.NewBadRequest("user_id is required")
	}
	if otherUserID == userID {
		return nil, apperrors.NewBadRequest("cannot start a conversation with yourself")
	}

	var users []models.User
	if err := s.db.WithContext(ctx).Where("id IN ?", []string{userID, otherUserID}).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("conversation service: load users: %w", err)
	}
	if len(users) != 2 {
		return nil, ErrUserNotFound
	}

	key := pairKey(userID, otherUserID)
	conversation, err := s.findByPair(ctx, key)
	if err != nil {
		return nil, err
	}
	if conversation == nil {
		conversation = &models.Conversation{PairKey: key, Participants: users}
		if err := s.db.WithContext(ctx).Create(conversation).Error; err != nil {
			if !isUniqueConstraintError(err) {
				return nil, fmt.Errorf("conversation service: create: %w", err)
			}
			// Lost a race with the other participant; use their thread.
			if conversation, err = s.findByPair(ctx, key); err != nil || conversation == nil {
				return nil, fmt.Errorf("conversation service: reload after conflict: %w", err)
			}
		}
	}

	return s.summarise(ctx, conversation.ID, userID)
}

// List returns the user's conversations, most recently active first.
func (s *ConversationService) List(ctx context.Context, userID string) ([]ConversationDTO, error) {
	ctx = ensureContext(ctx)

	var ids []string
	if err := s.db.WithContext(ctx).
		Table("conversation_participants").
		Where("user_id = ?", userID).
		Pluck("conversation_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("conversation service: list: %w", err)
	}

	result := make([]ConversationDTO, 0, len(ids))
	for _, id := range ids {
		dto, err := s.summarise(ctx, id, userID)
		if err != nil {
			return nil, err
		}
		result = append(result, *dto)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].UpdatedAt.After(result[j].UpdatedAt)
	})
	return result, nil
}

// Messages returns the thread oldest first.
func (s *ConversationService) Messages(ctx context.Context, userID, conversationID string) ([]models.Message, error) {
	ctx = ensureContext(ctx)

	if err := s.ensureParticipant(ctx, s.db, userID, conversationID); err != nil {
		return nil, err
	}

	var messages []models.Message
	if err := s.db.WithContext(ctx).
		Preload("Sender").
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("conversation service: messages: %w", err)
	}
	return messages, nil
}

// Send appends a message addressed to the other participant and bumps the thread.
func (s *ConversationService) Send(ctx context.Context, userID, conversationID, content string) (*models.Message, error) {
	ctx = ensureContext(ctx)

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.NewBadRequest("message content is required")
	}

	var message *models.Message
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.ensureParticipant(ctx, tx, userID, conversationID); err != nil {
			return err
		}

		var recipients []string
		if err := tx.Table("conversation_participants").
			Where("conversation_id = ? AND user_id <> ?", conversationID, userID).
			Pluck("user_id", &recipients).Error; err != nil {
			return fmt.Errorf("conversation service: load recipient: %w", err)
		}
		if len(recipients) != 1 {
			return fmt.Errorf("conversation service: expected one recipient, found %d", len(recipients))
		}

		message = &models.Message{
			ConversationID: conversationID,
			SenderID:       userID,
			RecipientID:    recipients[0],
			Content:        content,
		}
		if err := tx.Create(message).Error; err != nil {
			return fmt.Errorf("conversation service: send: %w", err)
		}
		if err := tx.Model(&models.Conversation{}).
			Where("id = ?", conversationID).
			Update("updated_at", s.now()).Error; err != nil {
			return fmt.Errorf("conversation service: touch: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Preload("Sender").First(message, "id = ?", message.ID).Error; err != nil {
		return nil, fmt.Errorf("conversation service: reload message: %w", err)
	}
	return message, nil
}

// MarkRead flags every message addressed to the user in the thread as read.
func (s *ConversationService) MarkRead(ctx context.Context, userID, conversationID string) (int64, error) {
	ctx = ensureContext(ctx)

	if err := s.ensureParticipant(ctx, s.db, userID, conversationID); err != nil {
		return 0, err
	}

	res := s.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("conversation_id = ? AND recipient_id = ? AND is_read = ?", conversationID, userID, false).
		Update("is_read", true)
	if res.Error != nil {
		return 0, fmt.Errorf("conversation service: mark read: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *ConversationService) findByPair(ctx context.Context, key string) (*models.Conversation, error) {
	var conversation models.Conversation
	err := s.db.WithContext(ctx).Where("pair_key = ?", key).First(&conversation).Error
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("conversation service: find: %w", err)
	}
	return &conversation, nil
}

func (s *ConversationService) ensureParticipant(ctx context.Context, db *gorm.DB, userID, conversationID string) error {
	var count int64
	if err := db.WithContext(ctx).
		Table("conversation_participants").
		Where("conversation_id = ? AND user_id = ?", strings.TrimSpace(conversationID), userID).
		Count(&count).Error; err != nil {
		return fmt.Errorf("conversation service: check participant: %w", err)
	}
	if count == 0 {
		return ErrConversationNotFound
	}
	return nil
}

func (s *ConversationService) summarise(ctx context.Context, conversationID, userID string) (*ConversationDTO, error) {
	var conversation models.Conversation
	if err := s.db.WithContext(ctx).
		Preload("Participants").
		First(&conversation, "id = ?", conversationID).Error; err != nil {
		return nil, fmt.Errorf("conversation service: load: %w", err)
	}

	dto := &ConversationDTO{
		ID:        conversation.ID,
		CreatedAt: conversation.CreatedAt,
		UpdatedAt: conversation.UpdatedAt,
	}
	for i := range conversation.Participants {
		if conversation.Participants[i].ID != userID {
			dto.OtherUser = summariseUser(&conversation.Participants[i])
		}
	}

	var last models.Message
	err := s.db.WithContext(ctx).
		Where("conversation_id = ?", conversation.ID).
		Order("created_at DESC").
		Order("id DESC").
		First(&last).Error
	switch {
	case err == nil:
		dto.LastMessage = &last
	case !isNotFound(err):
		return nil, fmt.Errorf("conversation service: last message: %w", err)
	}

	if err := s.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("conversation_id = ? AND recipient_id = ? AND is_read = ?", conversation.ID, userID, false).
		Count(&dto.UnreadCount).Error; err != nil {
		return nil, fmt.Errorf("conversation service: unread count: %w", err)
	}
	return dto, nil
}

func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + ":" + b
}
