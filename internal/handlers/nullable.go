package handlers

import (
	"bytes"
	"encoding/json"
	"strings"
)

// optionalString tells an absent field apart from an explicit null.
type optionalString struct {
	Set   bool
	Value *string
}

func (o *optionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw = strings.TrimSpace(raw); raw == "" {
		o.Value = nil
		return nil
	}
	o.Value = &raw
	return nil
}

func (o optionalString) cleared() bool {
	return o.Set && o.Value == nil
}
