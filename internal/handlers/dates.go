package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// dateInput accepts a calendar date ("2025-10-01") or an RFC 3339 timestamp.
// Set distinguishes an explicit null from an absent field.
type dateInput struct {
	Set   bool
	Value *time.Time
}

func (d *dateInput) UnmarshalJSON(data []byte) error {
	d.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		d.Value = nil
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		d.Value = nil
		return nil
	}

	if parsed, err := time.Parse(dateLayout, raw); err == nil {
		d.Value = &parsed
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return fmt.Errorf("invalid date %q", raw)
	}
	parsed = parsed.UTC()
	d.Value = &parsed
	return nil
}

// cleared reports an explicit null or empty value.
func (d dateInput) cleared() bool {
	return d.Set && d.Value == nil
}
