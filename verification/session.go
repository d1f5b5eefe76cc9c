package verification

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Session identifies one verification session at the provider. It is
// immutable for the session's lifetime; restarting against a different
// session means constructing a new value, not mutating this one.
type Session struct {
	AccessToken   string    `json:"-"`
	EnvironmentID string    `json:"environment_id"`
	SessionID     string    `json:"session_id"`
	ExpiresAt     time.Time `json:"expires_at"`
}

func (s Session) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.AccessToken, validation.Required),
		validation.Field(&s.EnvironmentID, validation.Required),
		validation.Field(&s.SessionID, validation.Required),
	)
}

// Expired reports whether the provider-declared expiry has passed at the
// given instant. A zero expiry never expires; the overall polling budget
// still applies.
func (s Session) Expired(now time.Time) bool {
	if s.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(s.ExpiresAt)
}
