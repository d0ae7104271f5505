// Package whatsapp implements the Cloud API edge: webhook payload parsing,
// signature verification, and the Graph API sender. It is thin glue around
// the debounce engine — no coalescing logic lives here.
package whatsapp

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/nextlevelbuilder/turngate/internal/bus"
)

// Errors the webhook handler branches on.
var (
	// ErrNotWhatsApp marks a payload that is not a Cloud API message event.
	ErrNotWhatsApp = errors.New("not a whatsapp api event")
	// ErrStatusUpdate marks a delivery/read status callback, acked and ignored.
	ErrStatusUpdate = errors.New("whatsapp status update")
)

// webhookPayload mirrors the Cloud API envelope:
// entry[0].changes[0].value.{contacts,messages,statuses}.
type webhookPayload struct {
	Object string `json:"object"`
	Entry  []struct {
		Changes []struct {
			Value struct {
				Contacts []contact         `json:"contacts"`
				Messages []inboundPayload  `json:"messages"`
				Statuses []json.RawMessage `json:"statuses"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type contact struct {
	WaID    string `json:"wa_id"`
	Profile struct {
		Name string `json:"name"`
	} `json:"profile"`
}

type inboundPayload struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"` // unix seconds, as a string
	Type      string `json:"type"`
	Text      struct {
		Body string `json:"body"`
	} `json:"text"`
}

// ParseInbound extracts the first message of a webhook delivery.
// Returns ErrStatusUpdate for status callbacks and ErrNotWhatsApp for
// payloads without a message; both are expected traffic, not failures.
func ParseInbound(body []byte) (bus.InboundMessage, error) {
	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return bus.InboundMessage{}, fmt.Errorf("decode webhook payload: %w", err)
	}

	if payload.Object == "" || len(payload.Entry) == 0 || len(payload.Entry[0].Changes) == 0 {
		return bus.InboundMessage{}, ErrNotWhatsApp
	}
	value := payload.Entry[0].Changes[0].Value

	if len(value.Statuses) > 0 {
		return bus.InboundMessage{}, ErrStatusUpdate
	}
	if len(value.Messages) == 0 || len(value.Contacts) == 0 {
		return bus.InboundMessage{}, ErrNotWhatsApp
	}

	msg := value.Messages[0]
	ct := value.Contacts[0]

	tsSec, err := strconv.ParseInt(msg.Timestamp, 10, 64)
	if err != nil {
		return bus.InboundMessage{}, fmt.Errorf("parse message timestamp %q: %w", msg.Timestamp, err)
	}

	return bus.InboundMessage{
		ProviderMessageID: msg.ID,
		UserID:            ct.WaID,
		UserName:          ct.Profile.Name,
		ReceivedAt:        tsSec * 1000,
		Text:              strings.TrimSpace(msg.Text.Body),
	}, nil
}
