package entity

import (
	"time"

	"github.com/google/uuid"
)

// ChatRoom is one conversation thread owned by a single customer. A customer
// accumulates rooms over return visits; the inactivity-gap policy in the core
// decides when a new one is minted.
type ChatRoom struct {
	UUID       string    `json:"uuid" bson:"_id"`
	CustomerID string    `json:"customer_id" bson:"customer_id"`
	DomainID   string    `json:"domain_id" bson:"domain_id"`
	Live       bool      `json:"live" bson:"live"`
	LastSeq    int64     `json:"last_seq" bson:"last_seq"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" bson:"updated_at"`

	// Messages is populated on prefetching reads, oldest first. Not a
	// stored field.
	Messages []Message `json:"messages" bson:"-"`
}

func NewChatRoom(customerID, domainID string) *ChatRoom {
	now := time.Now()
	return &ChatRoom{
		UUID:       uuid.NewString(),
		CustomerID: customerID,
		DomainID:   domainID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// IdleSince reports whether the room has seen no message for longer than gap,
// measured against now.
func (r *ChatRoom) IdleSince(now time.Time, gap time.Duration) bool {
	return now.Sub(r.UpdatedAt) > gap
}
