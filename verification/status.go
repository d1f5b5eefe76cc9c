package verification

import "fmt"

// RawStatus is the provider's session-status vocabulary. Callers outside this
// package never branch on raw values; they see Status instead.
type RawStatus string

const (
	RawStatusInitial    RawStatus = "INITIAL"
	RawStatusWaiting    RawStatus = "WAITING"
	RawStatusSuccessful RawStatus = "VERIFICATION_SUCCESSFUL"
	RawStatusFailed     RawStatus = "VERIFICATION_FAILED"
	RawStatusExpired    RawStatus = "VERIFICATION_EXPIRED"
)

// Status is the application-facing verification status.
type Status string

const (
	StatusPending  Status = "pending"
	StatusScanned  Status = "scanned"
	StatusApproved Status = "approved"
	StatusDeclined Status = "declined"
	StatusExpired  Status = "expired"
	StatusFailed   Status = "failed"
	StatusTimeout  Status = "timeout"
)

// Terminal reports whether no further transitions can occur for a session in
// this status.
func (s Status) Terminal() bool {
	switch s {
	case StatusApproved, StatusDeclined, StatusExpired, StatusFailed, StatusTimeout:
		return true
	}
	return false
}

// UnrecognizedStatusError reports a raw status outside the provider's known
// vocabulary. The poller treats it as a retryable failure rather than guessing
// a terminal state.
type UnrecognizedStatusError struct {
	Raw RawStatus
}

func (e *UnrecognizedStatusError) Error() string {
	return fmt.Sprintf("unrecognized provider status %q", string(e.Raw))
}

var statusMap = map[RawStatus]Status{
	RawStatusInitial:    StatusPending,
	RawStatusWaiting:    StatusScanned,
	RawStatusSuccessful: StatusApproved,
	RawStatusFailed:     StatusFailed,
	RawStatusExpired:    StatusExpired,
}

// Normalize maps a raw provider status to the application status. Unknown raw
// values return an UnrecognizedStatusError; they are never silently mapped to
// a terminal state.
//
// StatusDeclined has no raw counterpart in the provider contract observed so
// far and is therefore unreachable from this function.
func Normalize(raw RawStatus) (Status, error) {
	status, ok := statusMap[raw]
	if !ok {
		return "", &UnrecognizedStatusError{Raw: raw}
	}
	return status, nil
}
