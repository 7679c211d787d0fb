package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/onswift/backend/internal/models"
	apperrors "github.com/onswift/backend/pkg/errors"
)

var (
	// ErrGroupNotFound is returned for missing groups and groups the caller does not belong to.
	ErrGroupNotFound = apperrors.New("GROUP_NOT_FOUND", "Group not found", http.StatusNotFound)
	// ErrGroupAdminRequired is returned when a non-admin member manages the group.
	ErrGroupAdminRequired = apperrors.New("GROUP_ADMIN_REQUIRED", "Only group admins can perform this action", http.StatusForbidden)
	// ErrGroupMemberNotFound is returned when removing a user who is not a member.
	ErrGroupMemberNotFound = apperrors.New("GROUP_MEMBER_NOT_FOUND", "Member not found", http.StatusNotFound)
)

var groupFileTypes = []string{models.GroupFileImage, models.GroupFileVideo, models.GroupFileDocument}

const mentionPreviewLength = 120

// CreateGroupInput describes a new group.
type CreateGroupInput struct {
	Name      string
	AvatarURL string
	MemberIDs []string
}

// UpdateGroupInput enumerates mutable group attributes.
type UpdateGroupInput struct {
	Name      *string
	AvatarURL *string
}

// SendGroupMessageInput describes a group message. Either content or a file is required.
type SendGroupMessageInput struct {
	Content   string
	FileURL   string
	FileName  string
	FileType  string
	ReplyToID string
}

// GroupMemberDTO is a member with user details.
type GroupMemberDTO struct {
	UserID    string    `json:"user_id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	AvatarURL string    `json:"avatar_url"`
	IsAdmin   bool      `json:"is_admin"`
	JoinedAt  time.Time `json:"joined_at"`
}

// GroupMessageDTO is a group message with its read receipts.
type GroupMessageDTO struct {
	ID        string       `json:"id"`
	GroupID   string       `json:"group_id"`
	SenderID  string       `json:"sender_id"`
	Sender    *UserSummary `json:"sender,omitempty"`
	Content   string       `json:"content"`
	FileURL   string       `json:"file_url,omitempty"`
	FileName  string       `json:"file_name,omitempty"`
	FileType  string       `json:"file_type,omitempty"`
	ReplyToID *string      `json:"reply_to_id"`
	ReadBy    []string     `json:"read_by"`
	CreatedAt time.Time    `json:"created_at"`
}

// GroupDTO is a group as seen by one member.
type GroupDTO struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	AvatarURL   string           `json:"avatar_url"`
	CreatorID   string           `json:"creator_id"`
	IsAdmin     bool             `json:"is_admin"`
	Members     []GroupMemberDTO `json:"members"`
	LastMessage *GroupMessageDTO `json:"last_message"`
	UnreadCount int64            `json:"unread_count"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// LeaveResult reports what happened to the group after a member left.
type LeaveResult struct {
	GroupDeleted bool    `json:"group_deleted"`
	PromotedID   *string `json:"promoted_user_id,omitempty"`
}

// GroupService manages group chats, membership and read receipts.
type GroupService struct {
	db            *gorm.DB
	notifications *NotificationService
	now           func() time.Time
}

// NewGroupService constructs a GroupService.
func NewGroupService(db *gorm.DB, notifications *NotificationService) (*GroupService, error) {
	if db == nil {
		return nil, errors.New("group service: db is required")
	}
	if notifications == nil {
		return nil, errors.New("group service: notification service is required")
	}
	return &GroupService{db: db, notifications: notifications, now: systemClock}, nil
}

// Create makes a group with the caller as its admin.
func (s *GroupService) Create(ctx context.Context, userID string, input CreateGroupInput) (*GroupDTO, error) {
	ctx = ensureContext(ctx)

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewBadRequest("group name is required")
	}

	memberIDs := normaliseIDs(input.MemberIDs)
	group := &models.Group{
		Name:      name,
		AvatarURL: strings.TrimSpace(input.AvatarURL),
		CreatorID: userID,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureUsersExist(tx, memberIDs); err != nil {
			return err
		}
		if err := tx.Create(group).Error; err != nil {
			return fmt.Errorf("group service: create: %w", err)
		}

		now := s.now()
		members := []models.GroupMember{{GroupID: group.ID, UserID: userID, IsAdmin: true, JoinedAt: now}}
		for _, id := range memberIDs {
			if id == userID {
				continue
			}
			members = append(members, models.GroupMember{GroupID: group.ID, UserID: id, JoinedAt: now})
		}
		if err := tx.Create(&members).Error; err != nil {
			return fmt.Errorf("group service: add members: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, userID, group.ID)
}

// List returns groups the user belongs to, most recently active first.
func (s *GroupService) List(ctx context.Context, userID string) ([]GroupDTO, error) {
	ctx = ensureContext(ctx)

	var groups []models.Group
	if err := s.db.WithContext(ctx).
		Where("id IN (?)", s.db.WithContext(ctx).Model(&models.GroupMember{}).Select("group_id").Where("user_id = ?", userID)).
		Order("updated_at DESC").
		Find(&groups).Error; err != nil {
		return nil, fmt.Errorf("group service: list: %w", err)
	}

	result := make([]GroupDTO, 0, len(groups))
	for i := range groups {
		dto, err := s.describe(ctx, &groups[i], userID)
		if err != nil {
			return nil, err
		}
		result = append(result, *dto)
	}
	return result, nil
}

// Get returns a group the user belongs to.
func (s *GroupService) Get(ctx context.Context, userID, groupID string) (*GroupDTO, error) {
	ctx = ensureContext(ctx)

	if _, err := s.membership(ctx, s.db, userID, groupID); err != nil {
		return nil, err
	}

	var group models.Group
	if err := s.db.WithContext(ctx).First(&group, "id = ?", groupID).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("group service: get: %w", err)
	}
	return s.describe(ctx, &group, userID)
}

// Update renames the group or changes its avatar. Admins only.
func (s *GroupService) Update(ctx context.Context, userID, groupID string, input UpdateGroupInput) (*GroupDTO, error) {
	ctx = ensureContext(ctx)

	if _, err := s.requireAdmin(ctx, s.db, userID, groupID); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperrors.NewBadRequest("group name cannot be empty")
		}
		updates["name"] = name
	}
	if input.AvatarURL != nil {
		updates["avatar_url"] = strings.TrimSpace(*input.AvatarURL)
	}
	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&models.Group{}).Where("id = ?", groupID).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("group service: update: %w", err)
		}
	}
	return s.Get(ctx, userID, groupID)
}

// Delete removes the group with its messages. Admins only.
func (s *GroupService) Delete(ctx context.Context, userID, groupID string) error {
	ctx = ensureContext(ctx)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.requireAdmin(ctx, tx, userID, groupID); err != nil {
			return err
		}
		return deleteGroup(tx, groupID)
	})
}

// AddMembers adds users to the group, skipping existing members. Admins only.
func (s *GroupService) AddMembers(ctx context.Context, userID, groupID string, memberIDs []string) (*GroupDTO, error) {
	ctx = ensureContext(ctx)

	memberIDs = normaliseIDs(memberIDs)
	if len(memberIDs) == 0 {
		return nil, apperrors.NewBadRequest("member_ids is required")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.requireAdmin(ctx, tx, userID, groupID); err != nil {
			return err
		}
		if err := ensureUsersExist(tx, memberIDs); err != nil {
			return err
		}

		now := s.now()
		members := make([]models.GroupMember, 0, len(memberIDs))
		for _, id := range memberIDs {
			members = append(members, models.GroupMember{GroupID: groupID, UserID: id, JoinedAt: now})
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&members).Error; err != nil {
			return fmt.Errorf("group service: add members: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, userID, groupID)
}

// RemoveMember removes another member. Admins only; admins leave through Leave.
func (s *GroupService) RemoveMember(ctx context.Context, userID, groupID, memberID string) error {
	ctx = ensureContext(ctx)

	memberID = strings.TrimSpace(memberID)
	if memberID == userID {
		return apperrors.NewBadRequest("use leave to remove yourself from a group")
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.requireAdmin(ctx, tx, userID, groupID); err != nil {
			return err
		}
		res := tx.Where("group_id = ? AND user_id = ?", groupID, memberID).Delete(&models.GroupMember{})
		if res.Error != nil {
			return fmt.Errorf("group service: remove member: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrGroupMemberNotFound
		}
		return nil
	})
}

// Leave removes the caller from the group. The earliest remaining member is
// promoted when no admin is left, and an empty group is deleted.
func (s *GroupService) Leave(ctx context.Context, userID, groupID string) (*LeaveResult, error) {
	ctx = ensureContext(ctx)

	result := &LeaveResult{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		membership, err := s.membership(ctx, tx, userID, groupID)
		if err != nil {
			return err
		}
		if err := tx.Delete(membership).Error; err != nil {
			return fmt.Errorf("group service: leave: %w", err)
		}

		var remaining []models.GroupMember
		if err := tx.Where("group_id = ?", groupID).
			Order("joined_at ASC").
			Order("created_at ASC").
			Find(&remaining).Error; err != nil {
			return fmt.Errorf("group service: load members: %w", err)
		}

		if len(remaining) == 0 {
			result.GroupDeleted = true
			return deleteGroup(tx, groupID)
		}

		for _, member := range remaining {
			if member.IsAdmin {
				return nil
			}
		}

		successor := remaining[0]
		if err := tx.Model(&models.GroupMember{}).Where("id = ?", successor.ID).Update("is_admin", true).Error; err != nil {
			return fmt.Errorf("group service: promote admin: %w", err)
		}
		result.PromotedID = &successor.UserID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Messages returns the group's messages oldest first with read receipts.
func (s *GroupService) Messages(ctx context.Context, userID, groupID string) ([]GroupMessageDTO, error) {
	ctx = ensureContext(ctx)

	if _, err := s.membership(ctx, s.db, userID, groupID); err != nil {
		return nil, err
	}

	var messages []models.GroupMessage
	if err := s.db.WithContext(ctx).
		Preload("Sender").
		Preload("Reads").
		Where("group_id = ?", groupID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("group service: messages: %w", err)
	}

	result := make([]GroupMessageDTO, 0, len(messages))
	for i := range messages {
		result = append(result, mapGroupMessage(&messages[i]))
	}
	return result, nil
}

// Send posts a message and notifies mentioned members in the same transaction.
func (s *GroupService) Send(ctx context.Context, userID, groupID string, input SendGroupMessageInput) (*GroupMessageDTO, error) {
	ctx = ensureContext(ctx)

	content := strings.TrimSpace(input.Content)
	fileURL := strings.TrimSpace(input.FileURL)
	if content == "" && fileURL == "" {
		return nil, apperrors.NewBadRequest("message content or file is required")
	}
	fileType := strings.ToLower(strings.TrimSpace(input.FileType))
	if fileURL != "" && !containsString(groupFileTypes, fileType) {
		return nil, apperrors.NewBadRequest("file_type must be image, video or document")
	}

	message := &models.GroupMessage{
		GroupID:  groupID,
		SenderID: userID,
		Content:  content,
		FileURL:  fileURL,
		FileName: strings.TrimSpace(input.FileName),
	}
	if fileURL != "" {
		message.FileType = fileType
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.membership(ctx, tx, userID, groupID); err != nil {
			return err
		}

		if replyTo := strings.TrimSpace(input.ReplyToID); replyTo != "" {
			var count int64
			if err := tx.Model(&models.GroupMessage{}).Where("id = ? AND group_id = ?", replyTo, groupID).Count(&count).Error; err != nil {
				return fmt.Errorf("group service: check reply: %w", err)
			}
			if count == 0 {
				return apperrors.NewBadRequest("reply_to must reference a message in this group")
			}
			message.ReplyToID = &replyTo
		}

		if err := tx.Create(message).Error; err != nil {
			return fmt.Errorf("group service: send: %w", err)
		}

		var group models.Group
		if err := tx.Preload("Members.User").First(&group, "id = ?", groupID).Error; err != nil {
			return fmt.Errorf("group service: load group: %w", err)
		}
		if err := tx.Model(&models.Group{}).Where("id = ?", groupID).Update("updated_at", s.now()).Error; err != nil {
			return fmt.Errorf("group service: touch: %w", err)
		}

		var sender string
		for _, member := range group.Members {
			if member.UserID == userID && member.User != nil {
				sender = member.User.FullName
			}
		}
		for _, mentioned := range mentionedMembers(content, group.Members, userID) {
			if _, err := s.notifications.Notify(ctx, tx, NotifyInput{
				UserID:  mentioned,
				Title:   fmt.Sprintf("You were mentioned in %s", group.Name),
				Message: fmt.Sprintf("%s: %s", sender, preview(content, mentionPreviewLength)),
				Type:    models.NotificationTypeSystem,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var stored models.GroupMessage
	if err := s.db.WithContext(ctx).Preload("Sender").Preload("Reads").First(&stored, "id = ?", message.ID).Error; err != nil {
		return nil, fmt.Errorf("group service: reload message: %w", err)
	}
	dto := mapGroupMessage(&stored)
	return &dto, nil
}

// MarkRead records read receipts for every message the user has not read and did not send.
func (s *GroupService) MarkRead(ctx context.Context, userID, groupID string) (int, error) {
	ctx = ensureContext(ctx)

	var created int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.membership(ctx, tx, userID, groupID); err != nil {
			return err
		}

		var ids []string
		if err := unreadGroupMessages(tx, groupID, userID).Pluck("id", &ids).Error; err != nil {
			return fmt.Errorf("group service: unread messages: %w", err)
		}
		if len(ids) == 0 {
			return nil
		}

		now := s.now()
		reads := make([]models.GroupMessageRead, 0, len(ids))
		for _, id := range ids {
			reads = append(reads, models.GroupMessageRead{MessageID: id, UserID: userID, ReadAt: now})
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&reads).Error; err != nil {
			return fmt.Errorf("group service: mark read: %w", err)
		}
		created = len(reads)
		return nil
	})
	return created, err
}

// AvailableMembers lists users the actor can add to groups: a creator's team,
// or for a talent the creators they work with and those creators' teams.
func (s *GroupService) AvailableMembers(ctx context.Context, actor Actor) ([]UserSummary, error) {
	ctx = ensureContext(ctx)
	if actor == nil {
		return nil, apperrors.ErrUnauthorized
	}

	db := s.db.WithContext(ctx)
	ids, err := actor.Collaborators(db)
	if err != nil {
		return nil, fmt.Errorf("group service: collaborators: %w", err)
	}

	if _, ok := actor.(*Talent); ok && len(ids) > 0 {
		var teammates []string
		if err := db.Model(&models.HireRequest{}).
			Where("creator_id IN ? AND status = ?", ids, models.HireStatusAccepted).
			Pluck("talent_id", &teammates).Error; err != nil {
			return nil, fmt.Errorf("group service: teammates: %w", err)
		}
		ids = append(ids, teammates...)
	}

	candidates := make([]string, 0, len(ids))
	for _, id := range normaliseIDs(ids) {
		if id != actor.ID() {
			candidates = append(candidates, id)
		}
	}
	if len(candidates) == 0 {
		return []UserSummary{}, nil
	}

	var users []models.User
	if err := db.Where("id IN ? AND is_active = ?", candidates, true).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("group service: load users: %w", err)
	}
	sortUsersByName(users)

	result := make([]UserSummary, 0, len(users))
	for i := range users {
		result = append(result, *summariseUser(&users[i]))
	}
	return result, nil
}

func (s *GroupService) membership(ctx context.Context, db *gorm.DB, userID, groupID string) (*models.GroupMember, error) {
	var member models.GroupMember
	err := db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", strings.TrimSpace(groupID), userID).
		First(&member).Error
	if err != nil {
		if isNotFound(err) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("group service: membership: %w", err)
	}
	return &member, nil
}

func (s *GroupService) requireAdmin(ctx context.Context, db *gorm.DB, userID, groupID string) (*models.GroupMember, error) {
	member, err := s.membership(ctx, db, userID, groupID)
	if err != nil {
		return nil, err
	}
	if !member.IsAdmin {
		return nil, ErrGroupAdminRequired
	}
	return member, nil
}

func (s *GroupService) describe(ctx context.Context, group *models.Group, userID string) (*GroupDTO, error) {
	db := s.db.WithContext(ctx)

	var members []models.GroupMember
	if err := db.Preload("User").
		Where("group_id = ?", group.ID).
		Order("joined_at ASC").
		Find(&members).Error; err != nil {
		return nil, fmt.Errorf("group service: members: %w", err)
	}

	dto := &GroupDTO{
		ID:        group.ID,
		Name:      group.Name,
		AvatarURL: group.AvatarURL,
		CreatorID: group.CreatorID,
		Members:   make([]GroupMemberDTO, 0, len(members)),
		CreatedAt: group.CreatedAt,
		UpdatedAt: group.UpdatedAt,
	}
	for _, member := range members {
		if member.UserID == userID {
			dto.IsAdmin = member.IsAdmin
		}
		entry := GroupMemberDTO{UserID: member.UserID, IsAdmin: member.IsAdmin, JoinedAt: member.JoinedAt}
		if member.User != nil {
			entry.FullName = member.User.FullName
			entry.Email = member.User.Email
			entry.Role = member.User.Role
			entry.AvatarURL = member.User.AvatarURL
		}
		dto.Members = append(dto.Members, entry)
	}

	var last models.GroupMessage
	err := db.Preload("Sender").Preload("Reads").
		Where("group_id = ?", group.ID).
		Order("created_at DESC").
		Order("id DESC").
		First(&last).Error
	switch {
	case err == nil:
		msg := mapGroupMessage(&last)
		dto.LastMessage = &msg
	case !isNotFound(err):
		return nil, fmt.Errorf("group service: last message: %w", err)
	}

	if err := unreadGroupMessages(db, group.ID, userID).Count(&dto.UnreadCount).Error; err != nil {
		return nil, fmt.Errorf("group service: unread count: %w", err)
	}
	return dto, nil
}

func unreadGroupMessages(db *gorm.DB, groupID, userID string) *gorm.DB {
	receipts := db.Session(&gorm.Session{NewDB: true}).
		Model(&models.GroupMessageRead{}).
		Select("message_id").
		Where("user_id = ?", userID)
	return db.Model(&models.GroupMessage{}).
		Where("group_id = ? AND sender_id <> ?", groupID, userID).
		Where("id NOT IN (?)", receipts)
}

func deleteGroup(tx *gorm.DB, groupID string) error {
	messages := tx.Model(&models.GroupMessage{}).Select("id").Where("group_id = ?", groupID)
	if err := tx.Where("message_id IN (?)", messages).Delete(&models.GroupMessageRead{}).Error; err != nil {
		return fmt.Errorf("group service: delete receipts: %w", err)
	}
	// Replies point at other messages in the same group.
	if err := tx.Model(&models.GroupMessage{}).Where("group_id = ?", groupID).Update("reply_to_id", nil).Error; err != nil {
		return fmt.Errorf("group service: clear replies: %w", err)
	}
	if err := tx.Where("group_id = ?", groupID).Delete(&models.GroupMessage{}).Error; err != nil {
		return fmt.Errorf("group service: delete messages: %w", err)
	}
	if err := tx.Where("group_id = ?", groupID).Delete(&models.GroupMember{}).Error; err != nil {
		return fmt.Errorf("group service: delete members: %w", err)
	}
	if err := tx.Where("id = ?", groupID).Delete(&models.Group{}).Error; err != nil {
		return fmt.Errorf("group service: delete group: %w", err)
	}
	return nil
}

func ensureUsersExist(db *gorm.DB, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	var count int64
	if err := db.Model(&models.User{}).Where("id IN ?", ids).Count(&count).Error; err != nil {
		return fmt.Errorf("group service: check users: %w", err)
	}
	if count != int64(len(ids)) {
		return apperrors.NewBadRequest("one or more members do not exist")
	}
	return nil
}

// mentionedMembers returns members other than the sender addressed as
// @<full name> or @<email local part>, case-insensitively.
func mentionedMembers(content string, members []models.GroupMember, senderID string) []string {
	if !strings.Contains(content, "@") {
		return nil
	}
	lower := strings.ToLower(content)

	var out []string
	for _, member := range members {
		if member.UserID == senderID || member.User == nil {
			continue
		}
		for _, handle := range []string{member.User.FullName, member.User.EmailLocalPart()} {
			if hasMention(lower, strings.ToLower(strings.TrimSpace(handle))) {
				out = append(out, member.UserID)
				break
			}
		}
	}
	return out
}

func hasMention(content, handle string) bool {
	if handle == "" {
		return false
	}
	token := "@" + handle
	for offset := 0; ; {
		idx := strings.Index(content[offset:], token)
		if idx < 0 {
			return false
		}
		end := offset + idx + len(token)
		if end == len(content) {
			return true
		}
		next, _ := utf8.DecodeRuneInString(content[end:])
		if !unicode.IsLetter(next) && !unicode.IsDigit(next) {
			return true
		}
		offset = offset + idx + 1
	}
}

func preview(content string, limit int) string {
	runes := []rune(content)
	if len(runes) <= limit {
		return content
	}
	return string(runes[:limit]) + "..."
}

func mapGroupMessage(message *models.GroupMessage) GroupMessageDTO {
	readers := make([]string, 0, len(message.Reads))
	for _, read := range message.Reads {
		readers = append(readers, read.UserID)
	}
	return GroupMessageDTO{
		ID:        message.ID,
		GroupID:   message.GroupID,
		SenderID:  message.SenderID,
		Sender:    summariseUser(message.Sender),
		Content:   message.Content,
		FileURL:   message.FileURL,
		FileName:  message.FileName,
		FileType:  message.FileType,
		ReplyToID: message.ReplyToID,
		ReadBy:    readers,
		CreatedAt: message.CreatedAt,
	}
}
