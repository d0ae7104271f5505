package bus

import "context"

// InboundMessage represents a single text message received from the chat
// provider, after payload parsing and signature verification.
type InboundMessage struct {
	ProviderMessageID string `json:"id"`
	UserID            string `json:"user_id"`
	UserName          string `json:"user_name,omitempty"`
	ReceivedAt        int64  `json:"ts"` // unix ms
	Text              string `json:"text"`
}

// OutboundMessage represents a reply to be sent back to the provider.
type OutboundMessage struct {
	UserID string `json:"user_id"`
	Text   string `json:"text"`
}

// Sender delivers outbound messages to the chat provider.
type Sender interface {
	Send(ctx context.Context, msg OutboundMessage) error
}

// Ingress receives parsed inbound messages for asynchronous processing.
// The webhook handler calls it once per accepted provider delivery.
type Ingress interface {
	Enqueue(ctx context.Context, msg InboundMessage) error
}
