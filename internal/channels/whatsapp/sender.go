package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nextlevelbuilder/turngate/internal/bus"
	"github.com/nextlevelbuilder/turngate/internal/config"
)

// Sender delivers outbound text messages via the Cloud API
// (POST /{version}/{phone_number_id}/messages).
type Sender struct {
	accessToken   string
	phoneNumberID string
	apiVersion    string
	apiBase       string
	client        *http.Client
}

// NewSender creates a Cloud API sender from config.
func NewSender(cfg config.WhatsAppConfig) (*Sender, error) {
	if cfg.AccessToken == "" {
		return nil, fmt.Errorf("whatsapp access token is required")
	}
	if cfg.PhoneNumberID == "" {
		return nil, fmt.Errorf("whatsapp phone_number_id is required")
	}

	apiBase := cfg.APIBase
	if apiBase == "" {
		apiBase = "https://graph.facebook.com"
	}

	return &Sender{
		accessToken:   cfg.AccessToken,
		phoneNumberID: cfg.PhoneNumberID,
		apiVersion:    cfg.APIVersion,
		apiBase:       strings.TrimRight(apiBase, "/"),
		client:        &http.Client{Timeout: 30 * time.Second},
	}, nil
}

type textPayload struct {
	MessagingProduct string `json:"messaging_product"`
	RecipientType    string `json:"recipient_type"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Text             struct {
		PreviewURL bool   `json:"preview_url"`
		Body       string `json:"body"`
	} `json:"text"`
}

// Send implements bus.Sender. No automatic retry: the retry policy, if
// any, belongs to the caller's deployment.
func (s *Sender) Send(ctx context.Context, msg bus.OutboundMessage) error {
	payload := textPayload{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               msg.UserID,
		Type:             "text",
	}
	payload.Text.Body = msg.Text

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal whatsapp message: %w", err)
	}

	url := fmt.Sprintf("%s/%s/%s/messages", s.apiBase, s.apiVersion, s.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build whatsapp request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.accessToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send whatsapp message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("whatsapp api status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
