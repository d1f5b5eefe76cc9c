package pingone

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/grandhotel/checkin/internal/apierror"
	"github.com/grandhotel/checkin/internal/request"
	"github.com/sirupsen/logrus"
)

const defaultRequestTimeout = 10 * time.Second

// Config carries the provider credentials and endpoints for one client.
type Config struct {
	EnvironmentID       string
	ClientID            string
	ClientSecret        string
	AuthBaseURL         string
	APIBaseURL          string
	WalletApplicationID string
	CredentialType      string
	RequestTimeout      time.Duration
}

// Client wraps the hosted verification API. Every call is bounded by the
// configured per-request timeout; a session that never answers surfaces as a
// TIMEOUT error, not a hung goroutine.
type Client struct {
	config     Config
	httpClient *http.Client
}

func NewClient(config Config) *Client {
	if config.AuthBaseURL == "" {
		config.AuthBaseURL = "https://auth.pingone.eu"
	}
	if config.APIBaseURL == "" {
		config.APIBaseURL = "https://api.pingone.eu/v1"
	}
	if config.RequestTimeout == 0 {
		config.RequestTimeout = defaultRequestTimeout
	}
	return &Client{
		config:     config,
		httpClient: &http.Client{},
	}
}

// RequestToken exchanges the configured client credentials for a bearer token.
func (c *Client) RequestToken(ctx context.Context) (*TokenResponse, error) {
	tokenURL := fmt.Sprintf("%s/%s/as/token", c.config.AuthBaseURL, c.config.EnvironmentID)

	form := url.Values{}
	form.Set("client_id", c.config.ClientID)
	form.Set("client_secret", c.config.ClientSecret)
	form.Set("grant_type", "client_credentials")

	ctx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "POST", tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "failed to create token request", err.Error())
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, err := c.send(req, "token request")
	if err != nil {
		return nil, err
	}

	var token TokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInvalidResponse, "token response is not valid JSON", err.Error())
	}
	if token.AccessToken == "" {
		return nil, apierror.NewAPIError(apierror.ErrInvalidResponse, "invalid token response: missing access_token", string(body))
	}
	return &token, nil
}

// CreatePresentationSession creates a verification session and returns its
// identity plus the QR-code image URL the kiosk displays.
func (c *Client) CreatePresentationSession(ctx context.Context, accessToken, message string) (*PresentationSession, error) {
	sessionURL := fmt.Sprintf("%s/environments/%s/presentationSessions", c.config.APIBaseURL, c.config.EnvironmentID)

	payload := presentationRequest{
		Message:                  message,
		Protocol:                 "NATIVE",
		DigitalWalletApplication: digitalWalletApplication{ID: c.config.WalletApplicationID},
		RequestedCredentials: []requestedCredential{
			{Type: c.config.CredentialType, Keys: []string{}},
		},
	}

	body, err := request.ToJsonReq(&payload)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "failed to encode presentation request", err.Error())
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "POST", sessionURL, body)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "failed to create presentation request", err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	respBody, err := c.send(req, "presentation request")
	if err != nil {
		return nil, err
	}

	var parsed presentationResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInvalidResponse, "presentation response is not valid JSON", err.Error())
	}
	if parsed.ID == "" || parsed.Links.QR.Href == "" {
		return nil, apierror.NewAPIError(apierror.ErrInvalidResponse, "invalid presentation response: missing session id or QR code URL", string(respBody))
	}

	session := &PresentationSession{
		SessionID:     parsed.ID,
		EnvironmentID: parsed.Environment.ID,
		Status:        parsed.Status,
		QRCodeURL:     parsed.Links.QR.Href,
	}
	if session.EnvironmentID == "" {
		session.EnvironmentID = c.config.EnvironmentID
	}
	if parsed.ExpiresAt != "" {
		if expiry, perr := time.Parse(time.RFC3339, parsed.ExpiresAt); perr == nil {
			session.ExpiresAt = expiry
		} else {
			logrus.Warnf("presentation response carried unparsable expiry %q", parsed.ExpiresAt)
		}
	}
	return session, nil
}

// CheckStatus fetches the current raw status of one verification session.
func (c *Client) CheckStatus(ctx context.Context, accessToken, environmentID, sessionID string) (*StatusResponse, error) {
	statusURL := fmt.Sprintf("%s/environments/%s/presentationSessions/%s", c.config.APIBaseURL, environmentID, sessionID)

	ctx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", statusURL, nil)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "failed to create status request", err.Error())
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	body, err := c.send(req, "status check")
	if err != nil {
		return nil, err
	}

	var status StatusResponse
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInvalidResponse, "status response is not valid JSON", err.Error())
	}
	if status.ID == "" || status.Status == "" {
		return nil, apierror.NewAPIError(apierror.ErrInvalidResponse, "invalid status response: missing id or status", string(body))
	}
	return &status, nil
}

// FetchCredentialData retrieves the shared credential payload after a
// successful verification. The endpoint's shape is not fully stable, so the
// payload is accepted under any of the known top-level layouts; if none match
// the error carries the keys that were actually present.
func (c *Client) FetchCredentialData(ctx context.Context, accessToken, environmentID, sessionID string) (*CredentialData, error) {
	dataURL := fmt.Sprintf("%s/environments/%s/presentationSessions/%s/credentialData", c.config.APIBaseURL, environmentID, sessionID)

	ctx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", dataURL, nil)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "failed to create credential data request", err.Error())
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	body, err := c.send(req, "credential data fetch")
	if err != nil {
		return nil, err
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInvalidResponse, "credential data response is not valid JSON", err.Error())
	}

	node := locateCredentialList(raw)
	if node == nil {
		return nil, apierror.NewAPIError(apierror.ErrInvalidResponse,
			"credential data response carried none of the known shapes",
			fmt.Sprintf("top-level keys: %v", topLevelKeys(raw)))
	}

	encoded, err := json.Marshal(node)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInvalidResponse, "failed to re-encode credential list", err.Error())
	}
	var credentials []Credential
	if err := json.Unmarshal(encoded, &credentials); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInvalidResponse, "credential list entries are malformed", err.Error())
	}

	return &CredentialData{
		SessionID:   sessionID,
		Credentials: credentials,
		Raw:         raw,
	}, nil
}

// send performs the request and returns the response body, classifying
// transport failures into the error taxonomy. Timeout errors are reported
// distinctly so the polling engine can tell a slow provider from a dead one.
func (c *Client) send(req *http.Request, operation string) ([]byte, error) {
	resp, body, err := request.CallRaw(req)
	if err != nil {
		if isTimeout(err) {
			return nil, apierror.NewAPIError(apierror.ErrTimeout, fmt.Sprintf("%s timed out", operation), err.Error())
		}
		return nil, apierror.NewAPIError(apierror.ErrNetwork, fmt.Sprintf("%s failed", operation), err.Error())
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apierror.NewAPIError(apierror.ErrProvider,
			fmt.Sprintf("%s returned HTTP %d", operation, resp.StatusCode), string(body))
	}
	return body, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// locateCredentialList probes the known payload layouts for the credential
// list: sessionData.credentialsDataList, credentialsDataList, credentials.
func locateCredentialList(raw map[string]interface{}) interface{} {
	if sessionData, ok := raw["sessionData"].(map[string]interface{}); ok {
		if list, ok := sessionData["credentialsDataList"].([]interface{}); ok {
			return list
		}
	}
	if list, ok := raw["credentialsDataList"].([]interface{}); ok {
		return list
	}
	if list, ok := raw["credentials"].([]interface{}); ok {
		return list
	}
	return nil
}

func topLevelKeys(raw map[string]interface{}) []string {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
