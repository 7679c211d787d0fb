package api

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/onswift/backend/internal/app"
	"github.com/onswift/backend/internal/calendar"
	"github.com/onswift/backend/internal/services"
)

// Services bundles the domain services exposed over HTTP.
type Services struct {
	Notifications *services.NotificationService
	Invites       *services.InviteService
	Users         *services.UserService
	Hires         *services.HireService
	Projects      *services.ProjectService
	Tasks         *services.TaskService
	Deliverables  *services.DeliverableService
	Conversations *services.ConversationService
	Groups        *services.GroupService
	Calendar      *services.CalendarService
}

// ServiceOptions carries runtime dependencies that are not derived from config.
type ServiceOptions struct {
	// CalendarProvider enables calendar sync when non-nil.
	CalendarProvider calendar.Provider
	// SecretsKey encrypts calendar grants at rest.
	SecretsKey []byte
	// InviteOptions are appended after the config derived options.
	InviteOptions []services.InviteOption
}

// NewServices wires every domain service against db. When a calendar provider
// is supplied, the calendar service also observes task changes.
func NewServices(db *gorm.DB, cfg *app.Config, opts ServiceOptions) (*Services, error) {
	if db == nil {
		return nil, errors.New("database handle must be provided")
	}
	if cfg == nil {
		return nil, errors.New("config must be provided")
	}

	s := &Services{}
	var err error

	if s.Notifications, err = services.NewNotificationService(db); err != nil {
		return nil, err
	}

	inviteOpts := append([]services.InviteOption{
		services.WithInviteBaseURL(cfg.Invites.BaseURL),
		services.WithInviteExpiry(cfg.Invites.ExpiryOrDefault()),
	}, opts.InviteOptions...)
	if s.Invites, err = services.NewInviteService(db, inviteOpts...); err != nil {
		return nil, err
	}

	if s.Users, err = services.NewUserService(db, s.Invites); err != nil {
		return nil, err
	}
	if s.Hires, err = services.NewHireService(db, s.Notifications); err != nil {
		return nil, err
	}
	if s.Projects, err = services.NewProjectService(db); err != nil {
		return nil, err
	}
	if s.Tasks, err = services.NewTaskService(db, s.Notifications); err != nil {
		return nil, err
	}
	if s.Deliverables, err = services.NewDeliverableService(db, s.Notifications); err != nil {
		return nil, err
	}
	if s.Conversations, err = services.NewConversationService(db); err != nil {
		return nil, err
	}
	if s.Groups, err = services.NewGroupService(db, s.Notifications); err != nil {
		return nil, err
	}

	if s.Calendar, err = services.NewCalendarService(db, opts.CalendarProvider, opts.SecretsKey); err != nil {
		return nil, fmt.Errorf("calendar: %w", err)
	}
	if s.Calendar.Enabled() {
		s.Tasks.SetObserver(s.Calendar)
	}

	return s, nil
}
