// Package twilio sends SMS notifications through the Twilio Messages API.
package twilio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// DefaultBaseURL is the public Twilio API host.
const DefaultBaseURL = "https://api.twilio.com"

// Config holds Twilio credentials and the sending identity.
type Config struct {
	AccountSID string
	AuthToken  string
	From       string
	// MessagesPerSecond caps the fan-out rate. Zero means one message per
	// second, Twilio's long-code default.
	MessagesPerSecond float64
}

// Sender implements the notifier gateway over the Twilio REST API.
type Sender struct {
	config     Config
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewSender creates a Twilio sender. Returns an error when required
// credentials are missing.
func NewSender(config Config) (*Sender, error) {
	if config.AccountSID == "" || config.AuthToken == "" {
		return nil, errors.New("twilio sender: account sid and auth token are required")
	}
	if config.From == "" {
		return nil, errors.New("twilio sender: from number is required")
	}

	rps := config.MessagesPerSecond
	if rps <= 0 {
		rps = 1
	}

	return &Sender{
		config:     config,
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
	}, nil
}

// SetBaseURL overrides the API endpoint.
func (s *Sender) SetBaseURL(u string) {
	s.baseURL = strings.TrimSuffix(u, "/")
}

// Send posts one message to the Messages endpoint and returns its SID.
func (s *Sender) Send(ctx context.Context, to, body string) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", s.config.From)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", s.baseURL, s.config.AccountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(s.config.AccountSID, s.config.AuthToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("twilio returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var out struct {
		SID string `json:"sid"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode twilio response: %w", err)
	}
	return out.SID, nil
}
