// Package store defines the conversation persistence interfaces. The
// debounce engine works without persistence: in standalone mode (no DSN)
// no Stores are constructed and recording is skipped.
package store

import (
	"context"
	"fmt"
)

// Message roles, matching the message_role enum in Postgres.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// UserStore persists chatbot end users keyed by phone number.
type UserStore interface {
	// Upsert creates or refreshes the user and returns its id.
	Upsert(ctx context.Context, phoneNumber, name string) (string, error)
}

// ConversationStore persists conversations.
type ConversationStore interface {
	// GetOrOpen returns the user's most recent conversation, creating one
	// if none exists.
	GetOrOpen(ctx context.Context, userID string) (string, error)
}

// MessageStore persists individual messages within a conversation.
type MessageStore interface {
	Insert(ctx context.Context, conversationID, role, content string) error
}

// Stores is the container for all storage backends.
type Stores struct {
	Users         UserStore
	Conversations ConversationStore
	Messages      MessageStore
}

// RecordTurn writes one completed exchange: the coalesced turn as a user
// message and the reply as an assistant message, under the user's open
// conversation. Implements the dispatcher's TurnRecorder.
func (s *Stores) RecordTurn(ctx context.Context, userID, userName, turnText, replyText string) error {
	uid, err := s.Users.Upsert(ctx, userID, userName)
	if err != nil {
		return fmt.Errorf("record turn: %w", err)
	}
	convID, err := s.Conversations.GetOrOpen(ctx, uid)
	if err != nil {
		return fmt.Errorf("record turn: %w", err)
	}
	if err := s.Messages.Insert(ctx, convID, RoleUser, turnText); err != nil {
		return fmt.Errorf("record turn: %w", err)
	}
	if err := s.Messages.Insert(ctx, convID, RoleAssistant, replyText); err != nil {
		return fmt.Errorf("record turn: %w", err)
	}
	return nil
}
