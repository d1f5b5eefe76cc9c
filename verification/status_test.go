package verification

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeKnownStatuses(t *testing.T) {
	tests := []struct {
		raw      RawStatus
		expected Status
	}{
		{RawStatusInitial, StatusPending},
		{RawStatusWaiting, StatusScanned},
		{RawStatusSuccessful, StatusApproved},
		{RawStatusFailed, StatusFailed},
		{RawStatusExpired, StatusExpired},
	}

	for _, tt := range tests {
		t.Run(string(tt.raw), func(t *testing.T) {
			status, err := Normalize(tt.raw)
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, status)
		})
	}
}

func TestNormalizeUnrecognizedStatus(t *testing.T) {
	status, err := Normalize("SOMETHING_NEW")
	assert.Error(t, err)
	assert.Equal(t, Status(""), status)

	var unrecognized *UnrecognizedStatusError
	assert.ErrorAs(t, err, &unrecognized)
	assert.Equal(t, RawStatus("SOMETHING_NEW"), unrecognized.Raw)
}

func TestTerminalStatuses(t *testing.T) {
	terminal := []Status{StatusApproved, StatusDeclined, StatusExpired, StatusFailed, StatusTimeout}
	for _, s := range terminal {
		assert.True(t, s.Terminal(), "expected %s to be terminal", s)
	}

	nonTerminal := []Status{StatusPending, StatusScanned}
	for _, s := range nonTerminal {
		assert.False(t, s.Terminal(), "expected %s to be non-terminal", s)
	}
}

func TestSessionValidate(t *testing.T) {
	valid := Session{AccessToken: "token", EnvironmentID: "env", SessionID: "sess"}
	assert.NoError(t, valid.Validate())

	assert.Error(t, Session{EnvironmentID: "env", SessionID: "sess"}.Validate())
	assert.Error(t, Session{AccessToken: "token", SessionID: "sess"}.Validate())
	assert.Error(t, Session{AccessToken: "token", EnvironmentID: "env"}.Validate())
}
