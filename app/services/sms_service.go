// Package services provides external service integrations and technical concerns like message delivery
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/junwei-lin/smsflow/config"
	"github.com/junwei-lin/smsflow/utils"
)

// SendCapability delivers a single message to a single recipient. The task
// executor drives it strictly sequentially; InterMessageDelay is the pause
// the executor inserts between consecutive sends.
type SendCapability interface {
	Send(ctx context.Context, recipient, message string) error
	InterMessageDelay() time.Duration
}

// SimulatedSMSSender is the offline capability: no provider involved, each
// send succeeds with a fixed probability.
type SimulatedSMSSender struct {
	successRate float64
}

// NewSimulatedSMSSender creates a simulated sender with the given success
// probability in [0,1].
func NewSimulatedSMSSender(successRate float64) *SimulatedSMSSender {
	if successRate <= 0 || successRate > 1 {
		successRate = 0.95
	}
	return &SimulatedSMSSender{successRate: successRate}
}

// Send simulates a delivery attempt.
func (s *SimulatedSMSSender) Send(ctx context.Context, recipient, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rand.Float64() >= s.successRate {
		return fmt.Errorf("simulated delivery failure for %s", recipient)
	}
	return nil
}

// InterMessageDelay returns the simulated-environment pacing.
func (s *SimulatedSMSSender) InterMessageDelay() time.Duration {
	return utils.SimulatedSendDelay
}

// ProviderSMSSender delivers through the HTTP SMS provider.
type ProviderSMSSender struct {
	config *config.SMSConfig
	client *http.Client
}

// providerRequest is the request payload for the provider API
type providerRequest struct {
	SrcNum    string `json:"srcNum"`
	Recipient string `json:"recipient"`
	Body      string `json:"body"`
	Type      int    `json:"type"`
}

// providerResponse is a single message result from the provider API
type providerResponse struct {
	MessageID  int64  `json:"messageId"`
	Recipient  string `json:"recipient"`
	Status     string `json:"status"`
	StatusCode int    `json:"statusCode"`
}

// NewProviderSMSSender creates a provider-backed sender
func NewProviderSMSSender(cfg *config.SMSConfig) *ProviderSMSSender {
	return &ProviderSMSSender{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Send submits the message to the provider and fails unless it is accepted.
func (s *ProviderSMSSender) Send(ctx context.Context, recipient, message string) error {
	payload := []providerRequest{{
		SrcNum:    s.config.SourceNumber,
		Recipient: recipient,
		Body:      message,
		Type:      1,
	}}

	requestBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal provider request: %w", err)
	}

	url := fmt.Sprintf("https://%s/api/v3.0.1/send", s.config.ProviderDomain)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(requestBody))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", s.config.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send provider request: %w", err)
	}
	defer resp.Body.Close()

	var results []providerResponse
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return fmt.Errorf("failed to decode provider response: %w", err)
	}
	for _, r := range results {
		if r.StatusCode != 200 || r.Status != "ACCEPTED" {
			return fmt.Errorf("delivery failed for %s: %s (%d)", r.Recipient, r.Status, r.StatusCode)
		}
	}

	return nil
}

// InterMessageDelay returns the provider-environment pacing.
func (s *ProviderSMSSender) InterMessageDelay() time.Duration {
	return utils.ProviderSendDelay
}

// MockSMSSender implements SendCapability for testing
type MockSMSSender struct {
	SentMessages []MockSMSMessage
	FailFor      map[string]bool
	Delay        time.Duration
}

// MockSMSMessage represents a message the mock accepted or rejected
type MockSMSMessage struct {
	Recipient string
	Message   string
	SentAt    time.Time
}

// NewMockSMSSender creates a new mock sender with zero pacing
func NewMockSMSSender() *MockSMSSender {
	return &MockSMSSender{
		SentMessages: make([]MockSMSMessage, 0),
		FailFor:      make(map[string]bool),
	}
}

// Send records the message, failing for recipients listed in FailFor.
func (m *MockSMSSender) Send(ctx context.Context, recipient, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.FailFor[recipient] {
		return fmt.Errorf("mock delivery failure for %s", recipient)
	}
	m.SentMessages = append(m.SentMessages, MockSMSMessage{
		Recipient: recipient,
		Message:   message,
		SentAt:    utils.UTCNow(),
	})
	return nil
}

// InterMessageDelay returns the configured test pacing (zero by default).
func (m *MockSMSSender) InterMessageDelay() time.Duration {
	return m.Delay
}

// ClearSentMessages clears the recorded messages
func (m *MockSMSSender) ClearSentMessages() {
	m.SentMessages = make([]MockSMSMessage, 0)
}
