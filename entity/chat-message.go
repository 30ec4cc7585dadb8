package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role identifies who produced a message. It is a closed set; anything else is
// rejected at the edge.
type Role string

const (
	RoleCustomer  Role = "customer"
	RoleOperator  Role = "operator"
	RoleAssistant Role = "assistant"
)

// ParseRole validates a wire-level role string.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleCustomer, RoleOperator, RoleAssistant:
		return Role(s), nil
	}
	return "", fmt.Errorf("%w: unknown role %q", ErrInvalidInput, s)
}

// Capability identifies what kind of participant a transport connection is.
// The assistant is not a transport participant; its replies enter through the
// store like everyone else's.
type Capability string

const (
	CapabilityCustomer Capability = "customer"
	CapabilityOperator Capability = "operator"
)

func ParseCapability(s string) (Capability, error) {
	switch Capability(s) {
	case CapabilityCustomer, CapabilityOperator:
		return Capability(s), nil
	}
	return "", fmt.Errorf("%w: unknown capability %q", ErrInvalidInput, s)
}

// Message is an atomic utterance in a room. Once persisted it is immutable;
// (CreatedAt, Seq) totally orders messages within a room.
type Message struct {
	UUID      string    `json:"uuid" bson:"_id"`
	RoomID    string    `json:"room_id" bson:"room_id"`
	Role      Role      `json:"role" bson:"role"`
	Body      string    `json:"body" bson:"body"`
	Seq       int64     `json:"seq" bson:"seq"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

func NewMessage(roomID string, role Role, body string, seq int64) *Message {
	return &Message{
		UUID:      uuid.NewString(),
		RoomID:    roomID,
		Role:      role,
		Body:      body,
		Seq:       seq,
		CreatedAt: time.Now(),
	}
}

// AssistantUsage is the token accounting of a single generation call, stored
// next to the assistant message it produced.
type AssistantUsage struct {
	MessageID        string    `json:"message_id" bson:"message_id"`
	DomainID         string    `json:"domain_id" bson:"domain_id"`
	PromptTokens     int       `json:"prompt_tokens" bson:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens" bson:"completion_tokens"`
	CreatedAt        time.Time `json:"created_at" bson:"created_at"`
}
