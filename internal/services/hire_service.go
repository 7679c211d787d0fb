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

var (
	// ErrHireRequestExists is returned when the creator already asked this talent.
	ErrHireRequestExists = apperrors.New("HIRE_REQUEST_EXISTS", "Hire request already sent to this talent", http.StatusConflict)
	// ErrHireRequestNotFound covers missing, foreign and already answered requests alike.
	ErrHireRequestNotFound = apperrors.New("HIRE_REQUEST_NOT_FOUND", "Hire request not found", http.StatusNotFound)
	// ErrInvalidHireTarget is returned when the target user is missing or not a talent.
	ErrInvalidHireTarget = apperrors.New("INVALID_HIRE_TARGET", "Talent not found", http.StatusBadRequest)
)

// HireRequestDTO is the API view of a hire request with the counterpart summarised.
type HireRequestDTO struct {
	ID          string       `json:"id"`
	CreatorID   string       `json:"creator_id"`
	TalentID    string       `json:"talent_id"`
	Message     string       `json:"message"`
	Status      string       `json:"status"`
	RespondedAt *time.Time   `json:"responded_at"`
	CreatedAt   time.Time    `json:"created_at"`
	Creator     *UserSummary `json:"creator,omitempty"`
	Talent      *UserSummary `json:"talent,omitempty"`
	CompanyName string       `json:"company_name,omitempty"`
}

// TeamMemberDTO describes the other side of an accepted hire request.
type TeamMemberDTO struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	Role              string    `json:"role"`
	Avatar            string    `json:"avatar"`
	Skills            []string  `json:"skills,omitempty"`
	ProfessionalTitle string    `json:"professional_title,omitempty"`
	CompanyName       string    `json:"company_name,omitempty"`
	HireRequestID     string    `json:"hire_request_id"`
	CreatedAt         time.Time `json:"created_at"`
}

// HireOption customises HireService behaviour.
type HireOption func(*HireService)

// WithHireClock overrides the time source.
func WithHireClock(now func() time.Time) HireOption {
	return func(s *HireService) {
		if now != nil {
			s.now = now
		}
	}
}

// HireService runs the hire request lifecycle and derives teams from it.
type HireService struct {
	db            *gorm.DB
	notifications *NotificationService
	now           func() time.Time
}

// NewHireService constructs a HireService.
func NewHireService(db *gorm.DB, notifications *NotificationService, opts ...HireOption) (*HireService, error) {
	if db == nil {
		return nil, errors.New("hire service: db is required")
	}
	if notifications == nil {
		return nil, errors.New("hire service: notification service is required")
	}
	svc := &HireService{db: db, notifications: notifications, now: systemClock}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc, nil
}

// Create sends a pending hire request and notifies the talent.
func (s *HireService) Create(ctx context.Context, creator *Creator, talentID, message string) (*HireRequestDTO, error) {
	ctx = ensureContext(ctx)
	if creator == nil {
		return nil, ErrCreatorRequired
	}

	talentID = strings.TrimSpace(talentID)
	if talentID == "" {
		return nil, apperrors.NewBadRequest("talent_id is required")
	}

	var talent models.User
	if err := s.db.WithContext(ctx).First(&talent, "id = ?", talentID).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrInvalidHireTarget
		}
		return nil, fmt.Errorf("hire service: load talent: %w", err)
	}
	if !talent.IsTalent() {
		return nil, ErrInvalidHireTarget
	}

	request := &models.HireRequest{
		CreatorID: creator.ID(),
		TalentID:  talent.ID,
		Message:   strings.TrimSpace(message),
		Status:    models.HireStatusPending,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(request).Error; err != nil {
			if isUniqueConstraintError(err) {
				return ErrHireRequestExists
			}
			return fmt.Errorf("hire service: create request: %w", err)
		}

		_, err := s.notifications.Notify(ctx, tx, NotifyInput{
			UserID:        talent.ID,
			Title:         "New Hire Request",
			Message:       fmt.Sprintf("%s wants to hire you.", creator.DisplayName()),
			Type:          models.NotificationTypeHire,
			HireRequestID: &request.ID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.HireTransitions.WithLabelValues(models.HireStatusPending).Inc()

	request.Creator = creator.User()
	request.Talent = &talent
	dto := mapHireRequest(request)
	return &dto, nil
}

// Respond answers a pending request addressed to the talent. The transition is
// a compare-and-set on the pending status, so a request can only be answered once.
func (s *HireService) Respond(ctx context.Context, talent *Talent, requestID, status string) (*HireRequestDTO, error) {
	ctx = ensureContext(ctx)
	if talent == nil {
		return nil, ErrTalentRequired
	}

	status = strings.ToLower(strings.TrimSpace(status))
	if status != models.HireStatusAccepted && status != models.HireStatusRejected {
		return nil, apperrors.NewBadRequest("status must be accepted or rejected")
	}

	var request models.HireRequest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := s.now().UTC()
		res := tx.Model(&models.HireRequest{}).
			Where("id = ? AND talent_id = ? AND status = ?", strings.TrimSpace(requestID), talent.ID(), models.HireStatusPending).
			Updates(map[string]any{"status": status, "responded_at": now})
		if res.Error != nil {
			return fmt.Errorf("hire service: respond: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrHireRequestNotFound
		}

		if err := tx.Preload("Creator").First(&request, "id = ?", strings.TrimSpace(requestID)).Error; err != nil {
			return fmt.Errorf("hire service: reload request: %w", err)
		}

		_, err := s.notifications.Notify(ctx, tx, NotifyInput{
			UserID:        request.CreatorID,
			Title:         "Hire Request Update",
			Message:       fmt.Sprintf("%s %s your hire request.", talent.DisplayName(), status),
			Type:          models.NotificationTypeHire,
			HireRequestID: &request.ID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.HireTransitions.WithLabelValues(status).Inc()

	request.Talent = talent.User()
	dto := mapHireRequest(&request)
	return &dto, nil
}

// ListReceived returns pending requests addressed to the talent, newest first.
func (s *HireService) ListReceived(ctx context.Context, talent *Talent) ([]HireRequestDTO, error) {
	ctx = ensureContext(ctx)
	if talent == nil {
		return nil, ErrTalentRequired
	}

	var rows []models.HireRequest
	if err := s.db.WithContext(ctx).
		Preload("Creator").
		Preload("Creator.CreatorProfile").
		Where("talent_id = ? AND status = ?", talent.ID(), models.HireStatusPending).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("hire service: list received: %w", err)
	}
	return mapHireRequests(rows), nil
}

// ListSent returns every request the creator has sent, newest first.
func (s *HireService) ListSent(ctx context.Context, creator *Creator) ([]HireRequestDTO, error) {
	ctx = ensureContext(ctx)
	if creator == nil {
		return nil, ErrCreatorRequired
	}

	var rows []models.HireRequest
	if err := s.db.WithContext(ctx).
		Preload("Talent").
		Where("creator_id = ?", creator.ID()).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("hire service: list sent: %w", err)
	}
	return mapHireRequests(rows), nil
}

// Team returns talents with an accepted request from the creator.
func (s *HireService) Team(ctx context.Context, creator *Creator) ([]TeamMemberDTO, error) {
	ctx = ensureContext(ctx)
	if creator == nil {
		return nil, ErrCreatorRequired
	}

	var rows []models.HireRequest
	if err := s.db.WithContext(ctx).
		Preload("Talent").
		Preload("Talent.TalentProfile").
		Where("creator_id = ? AND status = ?", creator.ID(), models.HireStatusAccepted).
		Order("responded_at DESC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("hire service: team: %w", err)
	}

	members := make([]TeamMemberDTO, 0, len(rows))
	for i := range rows {
		if rows[i].Talent == nil {
			continue
		}
		member := teamMember(&rows[i], rows[i].Talent)
		if profile := rows[i].Talent.TalentProfile; profile != nil {
			member.Skills = append([]string(nil), profile.Skills...)
			member.ProfessionalTitle = profile.ProfessionalTitle
		}
		members = append(members, member)
	}
	return members, nil
}

// Engagements returns creators that have accepted the talent.
func (s *HireService) Engagements(ctx context.Context, talent *Talent) ([]TeamMemberDTO, error) {
	ctx = ensureContext(ctx)
	if talent == nil {
		return nil, ErrTalentRequired
	}

	var rows []models.HireRequest
	if err := s.db.WithContext(ctx).
		Preload("Creator").
		Preload("Creator.CreatorProfile").
		Where("talent_id = ? AND status = ?", talent.ID(), models.HireStatusAccepted).
		Order("responded_at DESC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("hire service: engagements: %w", err)
	}

	members := make([]TeamMemberDTO, 0, len(rows))
	for i := range rows {
		if rows[i].Creator == nil {
			continue
		}
		member := teamMember(&rows[i], rows[i].Creator)
		if profile := rows[i].Creator.CreatorProfile; profile != nil {
			member.CompanyName = profile.CompanyName
		}
		members = append(members, member)
	}
	return members, nil
}

// isTeamMember reports whether talentID holds an accepted request from creatorID.
func isTeamMember(db *gorm.DB, creatorID, talentID string) (bool, error) {
	var count int64
	err := db.Model(&models.HireRequest{}).
		Where("creator_id = ? AND talent_id = ? AND status = ?", creatorID, talentID, models.HireStatusAccepted).
		Count(&count).Error
	return count > 0, err
}

func teamMember(request *models.HireRequest, user *models.User) TeamMemberDTO {
	joined := request.CreatedAt
	if request.RespondedAt != nil {
		joined = *request.RespondedAt
	}
	return TeamMemberDTO{
		ID:            user.ID,
		Name:          user.FullName,
		Email:         user.Email,
		Role:          user.Role,
		Avatar:        user.AvatarURL,
		HireRequestID: request.ID,
		CreatedAt:     joined,
	}
}

func mapHireRequests(rows []models.HireRequest) []HireRequestDTO {
	result := make([]HireRequestDTO, 0, len(rows))
	for i := range rows {
		result = append(result, mapHireRequest(&rows[i]))
	}
	return result
}

func mapHireRequest(request *models.HireRequest) HireRequestDTO {
	dto := HireRequestDTO{
		ID:          request.ID,
		CreatorID:   request.CreatorID,
		TalentID:    request.TalentID,
		Message:     request.Message,
		Status:      request.Status,
		RespondedAt: request.RespondedAt,
		CreatedAt:   request.CreatedAt,
		Creator:     summariseUser(request.Creator),
		Talent:      summariseUser(request.Talent),
	}
	if request.Creator != nil && request.Creator.CreatorProfile != nil {
		dto.CompanyName = request.Creator.CreatorProfile.CompanyName
	}
	return dto
}
