package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// WebhookEventProducer posts event envelopes to the notification service.
type WebhookEventProducer struct {
	URL        string
	APIKey     string
	HTTPClient *http.Client
}

func NewWebhookEventProducer(url string, apiKey string) *WebhookEventProducer {
	if strings.TrimSpace(url) == "" {
		return &WebhookEventProducer{}
	}
	return &WebhookEventProducer{
		URL:        strings.TrimRight(url, "/"),
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type eventEnvelope struct {
	Type      string `json:"type"`
	AccountID string `json:"account_id"`
	Email     string `json:"email"`
	Token     string `json:"token,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

func (p *WebhookEventProducer) UserRegistered(ctx context.Context, accountID uuid.UUID, email string, rawVerificationToken string) error {
	return p.send(ctx, eventEnvelope{
		Type:      EventUserRegistered,
		AccountID: accountID.String(),
		Email:     email,
		Token:     rawVerificationToken,
	})
}

func (p *WebhookEventProducer) PasswordResetRequested(ctx context.Context, accountID uuid.UUID, email string, rawResetToken string) error {
	return p.send(ctx, eventEnvelope{
		Type:      EventPasswordResetRequested,
		AccountID: accountID.String(),
		Email:     email,
		Token:     rawResetToken,
	})
}

func (p *WebhookEventProducer) EmailVerificationResend(ctx context.Context, accountID uuid.UUID, email string, rawVerificationToken string) error {
	return p.send(ctx, eventEnvelope{
		Type:      EventEmailVerificationResend,
		AccountID: accountID.String(),
		Email:     email,
		Token:     rawVerificationToken,
	})
}

func (p *WebhookEventProducer) UserLogin(ctx context.Context, accountID uuid.UUID, email string, at time.Time) error {
	return p.send(ctx, eventEnvelope{
		Type:      EventUserLogin,
		AccountID: accountID.String(),
		Email:     email,
		Timestamp: at.UTC().Format(time.RFC3339),
	})
}

func (p *WebhookEventProducer) send(ctx context.Context, envelope eventEnvelope) error {
	if strings.TrimSpace(p.URL) == "" {
		return errors.New("event producer not configured")
	}
	if p.HTTPClient == nil {
		p.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, p.URL, bytes.NewReader(data))
	if err != nil {
		return err
	}
	if p.APIKey != "" {
		request.Header.Set("Authorization", "Bearer "+p.APIKey)
	}
	request.Header.Set("Content-Type", "application/json")
	response, err := p.HTTPClient.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()
	if response.StatusCode >= 300 {
		return fmt.Errorf("notification webhook failed with status %d", response.StatusCode)
	}
	return nil
}
