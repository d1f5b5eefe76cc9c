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

package config

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"strings"
	"sync/atomic"

	"github.com/kelseyhightower/envconfig"

	"github.com/sirupsen/logrus"
)

const (
	DEFAULT_PORT = "5003"

	DefaultAuthBaseURL = "https://auth.pingone.eu"
	DefaultAPIBaseURL  = "https://api.pingone.eu/v1"
)

var ConfigStore atomic.Value

type ServerConfig struct {
	SSL       bool   `json:"ssl" envconfig:"CHECKIN_SERVER_SSL"`
	Secure    bool   `json:"secure" envconfig:"CHECKIN_SERVER_SECURE"`
	SecretKey string `json:"secret_key" envconfig:"CHECKIN_SERVER_SECRET_KEY"`
	Domain    string `json:"domain" envconfig:"CHECKIN_SERVER_SSL_DOMAIN"`
	Email     string `json:"ssl_email" envconfig:"CHECKIN_SERVER_SSL_EMAIL"`
	Port      string `json:"port" envconfig:"CHECKIN_SERVER_PORT"`
}

// PingOneConfig carries the credentials and endpoints for the hosted
// identity-verification service. EnvironmentID, ClientID and ClientSecret
// have no defaults; the server refuses to start without them.
type PingOneConfig struct {
	EnvironmentID       string `json:"environment_id" envconfig:"CHECKIN_PINGONE_ENVIRONMENT_ID"`
	ClientID            string `json:"client_id" envconfig:"CHECKIN_PINGONE_CLIENT_ID"`
	ClientSecret        string `json:"client_secret" envconfig:"CHECKIN_PINGONE_CLIENT_SECRET"`
	AuthBaseURL         string `json:"auth_base_url" envconfig:"CHECKIN_PINGONE_AUTH_BASE_URL"`
	APIBaseURL          string `json:"api_base_url" envconfig:"CHECKIN_PINGONE_API_BASE_URL"`
	WalletApplicationID string `json:"wallet_application_id" envconfig:"CHECKIN_PINGONE_WALLET_APPLICATION_ID"`
	CredentialType      string `json:"credential_type" envconfig:"CHECKIN_PINGONE_CREDENTIAL_TYPE"`
	RequestTimeoutSec   int    `json:"request_timeout_sec" envconfig:"CHECKIN_PINGONE_REQUEST_TIMEOUT_SEC"`
}

type CheckInConfig struct {
	Message string `json:"message" envconfig:"CHECKIN_PROMPT_MESSAGE"`
}

type RateLimitConfig struct {
	RequestsPerSecond  *float64 `json:"requests_per_second" envconfig:"CHECKIN_RATE_LIMIT_RPS"`
	Burst              *int     `json:"burst" envconfig:"CHECKIN_RATE_LIMIT_BURST"`
	CleanupIntervalSec *int     `json:"cleanup_interval_sec" envconfig:"CHECKIN_RATE_LIMIT_CLEANUP_INTERVAL_SEC"`
}

type SlackWebhook struct {
	WebhookUrl string `json:"webhook_url"`
}

type Notification struct {
	Slack   SlackWebhook `json:"slack"`
	Webhook struct {
		Url     string            `json:"url"`
		Headers map[string]string `json:"headers"`
	} `json:"webhook"`
}

type Configuration struct {
	ProjectName  string          `json:"project_name" envconfig:"CHECKIN_PROJECT_NAME"`
	Server       ServerConfig    `json:"server"`
	PingOne      PingOneConfig   `json:"pingone"`
	CheckIn      CheckInConfig   `json:"checkin"`
	Notification Notification    `json:"notification"`
	RateLimit    RateLimitConfig `json:"rate_limit"`
}

func loadConfigFromFile(file string) error {
	var cnf Configuration
	_, err := os.Stat(file)
	if err == nil {
		f, err := os.Open(file)
		if err != nil {
			return err
		}
		err = json.NewDecoder(f).Decode(&cnf)
		if err != nil {
			return err
		}

	} else if errors.Is(err, os.ErrNotExist) {
		log.Println("config json not passed, will use env variables")
	}

	// override config from environment variables
	err = envconfig.Process("checkin", &cnf)
	if err != nil {
		return err
	}

	err = cnf.validateAndAddDefaults()
	if err != nil {
		return err
	}

	ConfigStore.Store(&cnf)
	return err
}

func InitConfig(configFile string) error {
	logger()
	return loadConfigFromFile(configFile)
}

func Fetch() (*Configuration, error) {
	config := ConfigStore.Load()
	c, ok := config.(*Configuration)
	if !ok {
		return nil, errors.New("config not loaded from file. Create a json file called checkin.json with your config ❌")
	}
	return c, nil
}

func (cnf *Configuration) validateAndAddDefaults() error {
	if cnf.ProjectName == "" {
		log.Println("Warning: Project name is empty. Setting a default name.")
		cnf.ProjectName = "Grand Hotel Check-in"
	}

	if cnf.PingOne.EnvironmentID == "" {
		log.Println("Error: PingOne environment ID is empty. It's a required field.")
		return errors.New("pingone environment ID is required")
	}

	if cnf.PingOne.ClientID == "" || cnf.PingOne.ClientSecret == "" {
		log.Println("Error: PingOne client credentials are empty. They are required fields.")
		return errors.New("pingone client credentials are required")
	}

	if cnf.PingOne.AuthBaseURL == "" {
		cnf.PingOne.AuthBaseURL = DefaultAuthBaseURL
	}

	if cnf.PingOne.APIBaseURL == "" {
		cnf.PingOne.APIBaseURL = DefaultAPIBaseURL
	}

	if cnf.PingOne.RequestTimeoutSec == 0 {
		cnf.PingOne.RequestTimeoutSec = 10
	}

	if cnf.CheckIn.Message == "" {
		cnf.CheckIn.Message = "Please present your Digital ID for hotel check-in"
	}

	// Trim white spaces from fields
	cnf.ProjectName = strings.TrimSpace(cnf.ProjectName)
	cnf.Server.Port = strings.TrimSpace(cnf.Server.Port)
	cnf.PingOne.EnvironmentID = strings.TrimSpace(cnf.PingOne.EnvironmentID)
	cnf.PingOne.ClientID = strings.TrimSpace(cnf.PingOne.ClientID)

	// Set default value for Port if it's empty
	if cnf.Server.Port == "" {
		cnf.Server.Port = DEFAULT_PORT
		log.Printf("Warning: Port not specified in config. Setting default port: %s", DEFAULT_PORT)
	}

	// Rate limiting is disabled by default (when both RPS and Burst are nil)
	if cnf.RateLimit.RequestsPerSecond != nil && cnf.RateLimit.Burst == nil {
		defaultBurst := 2 * int(*cnf.RateLimit.RequestsPerSecond)
		cnf.RateLimit.Burst = &defaultBurst
		log.Printf("Warning: Rate limit burst not specified. Setting default value: %d", defaultBurst)
	}
	if cnf.RateLimit.RequestsPerSecond == nil && cnf.RateLimit.Burst != nil {
		defaultRPS := float64(*cnf.RateLimit.Burst) / 2
		cnf.RateLimit.RequestsPerSecond = &defaultRPS
		log.Printf("Warning: Rate limit RPS not specified. Setting default value: %.2f", defaultRPS)
	}

	if cnf.RateLimit.CleanupIntervalSec == nil {
		defaultCleanup := 10800 // 3 hours in seconds
		cnf.RateLimit.CleanupIntervalSec = &defaultCleanup
	}

	return nil
}

// MockConfig sets a mock configuration for testing purposes.
func MockConfig(mockConfig *Configuration) {
	ConfigStore.Store(mockConfig)
}

func logger() {
	logger := logrus.New()
	log.SetOutput(logger.Writer())
}
