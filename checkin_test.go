/*
Copyright 2025 Grand Hotel Checkin Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package checkin

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grandhotel/checkin/internal/apierror"
	"github.com/grandhotel/checkin/internal/notification"
	"github.com/grandhotel/checkin/pingone"
	"github.com/grandhotel/checkin/verification"
)

// fakeProvider is an in-memory stand-in for the identity provider. Statuses
// are served in order; the last one repeats.
type fakeProvider struct {
	mu             sync.Mutex
	tokenErr       error
	tokenCalls     int
	sessionErr     error
	statuses       []string
	statusCalls    int
	credentialData *pingone.CredentialData
	credentialErr  error
}

func (f *fakeProvider) RequestToken(ctx context.Context) (*pingone.TokenResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokenCalls++
	if f.tokenErr != nil {
		return nil, f.tokenErr
	}
	return &pingone.TokenResponse{AccessToken: "tok-abc", TokenType: "Bearer"}, nil
}

func (f *fakeProvider) CreatePresentationSession(ctx context.Context, accessToken, message string) (*pingone.PresentationSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sessionErr != nil {
		return nil, f.sessionErr
	}
	return &pingone.PresentationSession{
		SessionID:     "sess-1",
		EnvironmentID: "env-123",
		Status:        "INITIAL",
		QRCodeURL:     "https://api.example.com/qr/sess-1.png",
		ExpiresAt:     time.Now().Add(10 * time.Minute),
	}, nil
}

func (f *fakeProvider) CheckStatus(ctx context.Context, accessToken, environmentID, sessionID string) (*pingone.StatusResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := f.statusCalls
	if idx >= len(f.statuses) {
		idx = len(f.statuses) - 1
	}
	f.statusCalls++
	return &pingone.StatusResponse{ID: sessionID, Status: f.statuses[idx]}, nil
}

func (f *fakeProvider) FetchCredentialData(ctx context.Context, accessToken, environmentID, sessionID string) (*pingone.CredentialData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.credentialErr != nil {
		return nil, f.credentialErr
	}
	return f.credentialData, nil
}

// recordingNotifier captures delivered events for assertions.
type recordingNotifier struct {
	mu     sync.Mutex
	events []notification.Event
}

func (r *recordingNotifier) Notify(event notification.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingNotifier) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, len(r.events))
	for i, e := range r.events {
		names[i] = e.Event
	}
	return names
}

func TestCreateSessionStartsPolling(t *testing.T) {
	provider := &fakeProvider{
		statuses: []string{"VERIFICATION_SUCCESSFUL"},
		credentialData: &pingone.CredentialData{
			Credentials: []pingone.Credential{{
				Types: []string{"VerifiableCredential", "DigitalID"},
				Data: []pingone.CredentialField{
					{Key: "First Name", Value: "Jane"},
					{Key: "Last Name", Value: "Doe"},
				},
			}},
		},
	}
	notifier := &recordingNotifier{}
	service := NewCheckInWithClient(provider, notifier, "Welcome to the Grand Hotel")

	session, err := service.CreateSession(context.Background(), "")
	require.NoError(t, err)
	assert.NotEmpty(t, session.ID)
	assert.Equal(t, "sess-1", session.SessionID)
	assert.Equal(t, "https://api.example.com/qr/sess-1.png", session.QRCodeURL)

	require.Eventually(t, func() bool {
		current, err := service.GetSession(session.ID)
		return err == nil && current.Status == "approved"
	}, 2*time.Second, 10*time.Millisecond)

	current, err := service.GetSession(session.ID)
	require.NoError(t, err)
	require.NotNil(t, current.UserInfo)
	assert.Equal(t, "Jane Doe", current.UserInfo.FullName)
	assert.Contains(t, notifier.names(), "checkin.approved")
}

func TestCreateSessionTokenFailureIsNotRetriedWhenPermanent(t *testing.T) {
	provider := &fakeProvider{
		tokenErr: apierror.NewAPIError(apierror.ErrConfiguration, "bad credentials", nil),
	}
	service := NewCheckInWithClient(provider, &recordingNotifier{}, "")

	_, err := service.CreateSession(context.Background(), "")
	require.Error(t, err)
	assert.Equal(t, apierror.ErrConfiguration, apierror.CodeOf(err))
	assert.Equal(t, 1, provider.tokenCalls)
}

func TestCreateSessionTokenFailureRetriesTransientErrors(t *testing.T) {
	provider := &fakeProvider{
		tokenErr: apierror.NewAPIError(apierror.ErrNetwork, "connection refused", nil),
	}
	service := NewCheckInWithClient(provider, &recordingNotifier{}, "")

	_, err := service.CreateSession(context.Background(), "")
	require.Error(t, err)
	assert.Equal(t, 4, provider.tokenCalls) // initial attempt plus three retries
}

func TestCreateSessionPresentationFailure(t *testing.T) {
	provider := &fakeProvider{
		sessionErr: apierror.NewAPIError(apierror.ErrProvider, "HTTP 503", nil),
	}
	service := NewCheckInWithClient(provider, &recordingNotifier{}, "")

	_, err := service.CreateSession(context.Background(), "")
	require.Error(t, err)
	assert.Equal(t, apierror.ErrProvider, apierror.CodeOf(err))
}

func TestGetSessionNotFound(t *testing.T) {
	service := NewCheckInWithClient(&fakeProvider{statuses: []string{"WAITING"}}, &recordingNotifier{}, "")

	_, err := service.GetSession("chk_missing")
	require.Error(t, err)
	assert.Equal(t, apierror.ErrNotFound, apierror.CodeOf(err))
}

func TestCancelSessionStopsPolling(t *testing.T) {
	provider := &fakeProvider{statuses: []string{"WAITING"}}
	notifier := &recordingNotifier{}
	service := NewCheckInWithClient(provider, notifier, "")

	session, err := service.CreateSession(context.Background(), "")
	require.NoError(t, err)

	require.NoError(t, service.CancelSession(session.ID))

	_, err = service.GetSession(session.ID)
	assert.Equal(t, apierror.ErrNotFound, apierror.CodeOf(err))

	// no further checks once cancelled
	provider.mu.Lock()
	calls := provider.statusCalls
	provider.mu.Unlock()
	time.Sleep(50 * time.Millisecond)
	provider.mu.Lock()
	assert.Equal(t, calls, provider.statusCalls)
	provider.mu.Unlock()
}

func TestCancelSessionNotFound(t *testing.T) {
	service := NewCheckInWithClient(&fakeProvider{statuses: []string{"WAITING"}}, &recordingNotifier{}, "")
	err := service.CancelSession("chk_missing")
	assert.Equal(t, apierror.ErrNotFound, apierror.CodeOf(err))
}

func TestGetEventFromStatus(t *testing.T) {
	tests := []struct {
		status   string
		expected string
	}{
		{"pending", "checkin.pending"},
		{"scanned", "checkin.scanned"},
		{"approved", "checkin.approved"},
		{"declined", "checkin.declined"},
		{"expired", "checkin.expired"},
		{"failed", "checkin.failed"},
		{"timeout", "checkin.timeout"},
		{"something-else", "checkin.unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, getEventFromStatus(verification.Status(tt.status)), tt.status)
	}
}
