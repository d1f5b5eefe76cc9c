package pingone

import "time"

// TokenResponse is the provider's client-credentials grant response.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	Scope       string `json:"scope"`
}

// PresentationSession is the created verification session, reduced to the
// fields the check-in flow needs.
type PresentationSession struct {
	SessionID     string    `json:"session_id"`
	EnvironmentID string    `json:"environment_id"`
	Status        string    `json:"status"`
	ExpiresAt     time.Time `json:"expires_at"`
	QRCodeURL     string    `json:"qr_code_url"`
}

// StatusResponse is the raw session-status payload. Status carries the
// provider's own vocabulary; normalization happens in the verification
// package.
type StatusResponse struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	CreatedAt   string `json:"createdAt,omitempty"`
	UpdatedAt   string `json:"updatedAt,omitempty"`
	ExpiresAt   string `json:"expiresAt,omitempty"`
	Environment struct {
		ID string `json:"id"`
	} `json:"environment"`
	ApplicationInstance struct {
		ID string `json:"id"`
	} `json:"applicationInstance"`
}

// CredentialField is one key/value pair from a credential's flat data list.
type CredentialField struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Credential is one entry from the credential-data endpoint.
type Credential struct {
	Types      []string          `json:"types,omitempty"`
	IssuerID   string            `json:"issuerId,omitempty"`
	IssuerName string            `json:"issuerName,omitempty"`
	Data       []CredentialField `json:"data"`
}

// CredentialData is the parsed credential-fetch result. Raw keeps the
// original payload for logging and diagnostics.
type CredentialData struct {
	SessionID   string                 `json:"session_id"`
	Credentials []Credential           `json:"credentials"`
	Raw         map[string]interface{} `json:"-"`
}

type presentationRequest struct {
	Message                  string                   `json:"message"`
	Protocol                 string                   `json:"protocol"`
	DigitalWalletApplication digitalWalletApplication `json:"digitalWalletApplication"`
	RequestedCredentials     []requestedCredential    `json:"requestedCredentials"`
}

type digitalWalletApplication struct {
	ID string `json:"id"`
}

type requestedCredential struct {
	Type string   `json:"type"`
	Keys []string `json:"keys"`
}

type presentationResponse struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	ExpiresAt   string `json:"expiresAt"`
	Environment struct {
		ID string `json:"id"`
	} `json:"environment"`
	Links struct {
		QR struct {
			Href string `json:"href"`
		} `json:"qr"`
	} `json:"_links"`
}
