package storage

import (
	"strings"
	"time"
)

// legacyExpiryLayout is the naive ISO-8601 form (no zone, UTC implied) found in token
// files written by earlier versions of the backend.
const legacyExpiryLayout = "2006-01-02T15:04:05.999999"

// TokenRecord is serialized as a flat JSON object.
type TokenRecord struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Expiry       string `json:"expiry,omitempty"`
	Email        string `json:"email,omitempty"`
	UpdatedAt    string `json:"updated_at,omitempty"`
}

// Empty reports whether the record carries no credential at all.
func (r *TokenRecord) Empty() bool {
	return r == nil || (r.AccessToken == "" && r.RefreshToken == "")
}

// ExpiryTime parses Expiry. ok is false when the expiry is absent or unparsable.
func (r *TokenRecord) ExpiryTime() (t time.Time, ok bool) {
	if r == nil {
		return time.Time{}, false
	}
	value := strings.TrimSpace(r.Expiry)
	if value == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, true
	}
	if t, err := time.ParseInLocation(legacyExpiryLayout, value, time.UTC); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// SetExpiry stores t in UTC, or clears the expiry when t is zero.
func (r *TokenRecord) SetExpiry(t time.Time) {
	if t.IsZero() {
		r.Expiry = ""
		return
	}
	r.Expiry = FormatTime(t)
}

// Clone returns a copy that can be handed out without sharing state.
func (r *TokenRecord) Clone() *TokenRecord {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}

func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
