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
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/grandhotel/checkin/config"
	"github.com/grandhotel/checkin/internal/apierror"
	"github.com/grandhotel/checkin/internal/notification"
	"github.com/grandhotel/checkin/pingone"
	"github.com/grandhotel/checkin/verification"
)

// ProviderClient is the slice of the identity provider's API the check-in
// service needs. Satisfied by *pingone.Client.
type ProviderClient interface {
	verification.SessionClient
	RequestToken(ctx context.Context) (*pingone.TokenResponse, error)
	CreatePresentationSession(ctx context.Context, accessToken, message string) (*pingone.PresentationSession, error)
}

// CheckIn represents the main struct for the check-in application. It owns
// the session store and wires each new verification session to its poller.
type CheckIn struct {
	client   ProviderClient
	store    *Store
	notifier notification.Notifier
	message  string
}

// NewCheckIn initializes a new CheckIn instance from the loaded configuration.
func NewCheckIn() (*CheckIn, error) {
	configuration, err := config.Fetch()
	if err != nil {
		return nil, err
	}

	client := pingone.NewClient(pingone.Config{
		EnvironmentID:       configuration.PingOne.EnvironmentID,
		ClientID:            configuration.PingOne.ClientID,
		ClientSecret:        configuration.PingOne.ClientSecret,
		AuthBaseURL:         configuration.PingOne.AuthBaseURL,
		APIBaseURL:          configuration.PingOne.APIBaseURL,
		WalletApplicationID: configuration.PingOne.WalletApplicationID,
		CredentialType:      configuration.PingOne.CredentialType,
		RequestTimeout:      time.Duration(configuration.PingOne.RequestTimeoutSec) * time.Second,
	})

	return &CheckIn{
		client:   client,
		store:    NewStore(),
		notifier: notification.NewNotifier(),
		message:  configuration.CheckIn.Message,
	}, nil
}

// NewCheckInWithClient builds a CheckIn around an existing provider client
// and notifier. Used by tests and embedders.
func NewCheckInWithClient(client ProviderClient, notifier notification.Notifier, message string) *CheckIn {
	return &CheckIn{
		client:   client,
		store:    NewStore(),
		notifier: notifier,
		message:  message,
	}
}

// CreateSession authenticates with the provider, creates a presentation
// session and starts polling it. The returned snapshot carries the QR-code
// URL the kiosk displays. An empty message falls back to the configured
// prompt.
func (c *CheckIn) CreateSession(ctx context.Context, message string) (CheckInSession, error) {
	if message == "" {
		message = c.message
	}

	token, err := c.requestTokenWithRetry(ctx)
	if err != nil {
		return CheckInSession{}, errors.Wrap(err, "requesting provider token")
	}

	presentation, err := c.client.CreatePresentationSession(ctx, token.AccessToken, message)
	if err != nil {
		return CheckInSession{}, errors.Wrap(err, "creating presentation session")
	}

	session := CheckInSession{
		ID:            "chk_" + uuid.New().String(),
		SessionID:     presentation.SessionID,
		EnvironmentID: presentation.EnvironmentID,
		QRCodeURL:     presentation.QRCodeURL,
		ExpiresAt:     presentation.ExpiresAt,
		Status:        verification.StatusPending,
		CreatedAt:     time.Now(),
	}
	c.store.Add(session)

	poller := verification.NewPoller(c.client, verification.Session{
		AccessToken:   token.AccessToken,
		EnvironmentID: presentation.EnvironmentID,
		SessionID:     presentation.SessionID,
		ExpiresAt:     presentation.ExpiresAt,
	}, c.statusHandler(session.ID), c.errorHandler(session.ID))
	c.store.AttachPoller(session.ID, poller)
	poller.Start()

	logrus.Infof("check-in %s started for verification session %s", session.ID, presentation.SessionID)
	return session, nil
}

// GetSession returns the current snapshot of one check-in.
func (c *CheckIn) GetSession(id string) (CheckInSession, error) {
	session, ok := c.store.Get(id)
	if !ok {
		return CheckInSession{}, apierror.NewAPIError(apierror.ErrNotFound, "check-in session not found", id)
	}
	return session, nil
}

// CancelSession stops polling and drops the check-in.
func (c *CheckIn) CancelSession(id string) error {
	poller, ok := c.store.Remove(id)
	if !ok {
		return apierror.NewAPIError(apierror.ErrNotFound, "check-in session not found", id)
	}
	if poller != nil {
		poller.Reset()
	}
	logrus.Infof("check-in %s cancelled", id)
	return nil
}

func (c *CheckIn) statusHandler(id string) verification.StatusCallback {
	return func(status verification.Status, raw *pingone.StatusResponse, info *verification.UserInfo) {
		c.store.UpdateStatus(id, status, info)
		snapshot, _ := c.store.Get(id)
		c.notifier.Notify(notification.Event{
			Event: getEventFromStatus(status),
			Data:  snapshot,
			Time:  time.Now(),
		})
	}
}

func (c *CheckIn) errorHandler(id string) verification.ErrorCallback {
	return func(err error) {
		c.store.SetLastError(id, err)
		c.notifier.Notify(notification.Event{
			Event: "checkin.error",
			Data:  map[string]string{"id": id, "error": err.Error()},
			Time:  time.Now(),
		})
	}
}

// requestTokenWithRetry obtains a bearer token, retrying transient failures
// with exponential backoff. Non-retryable failures abort immediately.
func (c *CheckIn) requestTokenWithRetry(ctx context.Context) (*pingone.TokenResponse, error) {
	var token *pingone.TokenResponse
	operation := func() error {
		t, err := c.client.RequestToken(ctx)
		if err != nil {
			if !apierror.Retryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		token = t
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return token, nil
}

// getEventFromStatus maps a verification status to its notification event.
func getEventFromStatus(status verification.Status) string {
	switch status {
	case verification.StatusPending:
		return "checkin.pending"
	case verification.StatusScanned:
		return "checkin.scanned"
	case verification.StatusApproved:
		return "checkin.approved"
	case verification.StatusDeclined:
		return "checkin.declined"
	case verification.StatusExpired:
		return "checkin.expired"
	case verification.StatusFailed:
		return "checkin.failed"
	case verification.StatusTimeout:
		return "checkin.timeout"
	default:
		return "checkin.unknown"
	}
}
