package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
)

const (
	defaultGoogleAPIBase  = "https://www.googleapis.com/calendar/v3"
	defaultGoogleAuthURL  = "https://accounts.google.com/o/oauth2/auth"
	defaultGoogleTokenURL = "https://oauth2.googleapis.com/token"
	googleEventsScope     = "https://www.googleapis.com/auth/calendar.events"
	dateLayout            = "2006-01-02"
)

// GoogleConfig configures the Google Calendar provider.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string

	// Overrides, mostly for tests.
	APIBaseURL string
	AuthURL    string
	TokenURL   string
}

// GoogleProvider talks to the Google Calendar v3 REST API on the user's primary calendar.
type GoogleProvider struct {
	oauth   *oauth2.Config
	baseURL string
}

// NewGoogleProvider validates configuration and returns a provider.
func NewGoogleProvider(cfg GoogleConfig) (*GoogleProvider, error) {
	if strings.TrimSpace(cfg.ClientID) == "" || strings.TrimSpace(cfg.ClientSecret) == "" {
		return nil, errors.New("calendar: google client id and secret are required")
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{googleEventsScope}
	}

	base := strings.TrimRight(defaultIfEmpty(cfg.APIBaseURL, defaultGoogleAPIBase), "/")

	return &GoogleProvider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  defaultIfEmpty(cfg.AuthURL, defaultGoogleAuthURL),
				TokenURL: defaultIfEmpty(cfg.TokenURL, defaultGoogleTokenURL),
			},
		},
		baseURL: base,
	}, nil
}

// AuthCodeURL returns the consent URL. Offline access is requested so a refresh token is issued.
func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
}

// Exchange trades an authorization code for a token.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("calendar: exchange code: %w", err)
	}
	return token, nil
}

// TokenSource returns a refreshing token source seeded with token.
func (p *GoogleProvider) TokenSource(ctx context.Context, token *oauth2.Token) oauth2.TokenSource {
	return p.oauth.TokenSource(ctx, token)
}

// CreateEvent inserts an event and returns its id.
func (p *GoogleProvider) CreateEvent(ctx context.Context, ts oauth2.TokenSource, event Event) (string, error) {
	var created struct {
		ID string `json:"id"`
	}
	if err := p.do(ctx, ts, http.MethodPost, p.eventsURL(""), googleEventBody(event), &created); err != nil {
		return "", fmt.Errorf("calendar: create event: %w", err)
	}
	if created.ID == "" {
		return "", errors.New("calendar: create event: empty event id")
	}
	return created.ID, nil
}

// UpdateEvent replaces an existing event.
func (p *GoogleProvider) UpdateEvent(ctx context.Context, ts oauth2.TokenSource, eventID string, event Event) error {
	if err := p.do(ctx, ts, http.MethodPut, p.eventsURL(eventID), googleEventBody(event), nil); err != nil {
		return fmt.Errorf("calendar: update event: %w", err)
	}
	return nil
}

// DeleteEvent removes an event. A missing event counts as deleted.
func (p *GoogleProvider) DeleteEvent(ctx context.Context, ts oauth2.TokenSource, eventID string) error {
	err := p.do(ctx, ts, http.MethodDelete, p.eventsURL(eventID), nil, nil)
	var apiErr *APIError
	if errors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusNotFound || apiErr.StatusCode == http.StatusGone) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("calendar: delete event: %w", err)
	}
	return nil
}

// APIError is a non-2xx response from the calendar API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("calendar api returned %d: %s", e.StatusCode, e.Body)
}

func (p *GoogleProvider) eventsURL(eventID string) string {
	u := p.baseURL + "/calendars/primary/events"
	if eventID != "" {
		u += "/" + url.PathEscape(eventID)
	}
	return u
}

func (p *GoogleProvider) do(ctx context.Context, ts oauth2.TokenSource, method, endpoint string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := oauth2.NewClient(ctx, ts).Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

type googleEventDate struct {
	Date     string `json:"date"`
	TimeZone string `json:"timeZone"`
}

type googleReminder struct {
	Method  string `json:"method"`
	Minutes int    `json:"minutes"`
}

type googleEvent struct {
	Summary     string          `json:"summary"`
	Description string          `json:"description"`
	Start       googleEventDate `json:"start"`
	End         googleEventDate `json:"end"`
	ColorID     string          `json:"colorId"`
	Reminders   struct {
		UseDefault bool             `json:"useDefault"`
		Overrides  []googleReminder `json:"overrides"`
	} `json:"reminders"`
}

// googleEventBody renders an all-day event. Google treats the end date as exclusive.
func googleEventBody(event Event) googleEvent {
	day := event.Date.UTC()
	body := googleEvent{
		Summary:     event.Summary,
		Description: event.Description,
		Start:       googleEventDate{Date: day.Format(dateLayout), TimeZone: "UTC"},
		End:         googleEventDate{Date: day.AddDate(0, 0, 1).Format(dateLayout), TimeZone: "UTC"},
		ColorID:     event.ColorID,
	}
	body.Reminders.Overrides = []googleReminder{
		{Method: "email", Minutes: EmailReminderMinutes},
		{Method: "popup", Minutes: PopupReminderMinutes},
	}
	return body
}

func defaultIfEmpty(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
