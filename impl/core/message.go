package core

import (
	"context"
	"log/slog"
	"time"

	"LiveCS/entity"
	"LiveCS/internal/lib/sl"
)

const assistantDisplayName = "AI Assistant"

// HandleSendMessage is the persistence step of the transport's
// persist-then-fanout path. The message is durably appended before the hub
// broadcasts anything; a customer message additionally schedules an assistant
// reply.
func (c *Core) HandleSendMessage(ctx context.Context, roomID string, role entity.Role, body string) (*entity.Message, error) {
	message, err := c.repo.AppendMessage(ctx, roomID, role, body)
	if err != nil {
		return nil, err
	}

	if role == entity.RoleCustomer {
		go c.respondToCustomer(context.Background(), message)
	}

	return message, nil
}

// HandleOperatorPresence records operator takeover and release on the room's
// live flag. A live room suspends automatic assistant replies.
func (c *Core) HandleOperatorPresence(ctx context.Context, roomID string, live bool) error {
	return c.repo.SetRoomLive(ctx, roomID, live)
}

// ListMessages returns a room's retained history in canonical order.
func (c *Core) ListMessages(ctx context.Context, roomID string) ([]entity.Message, error) {
	room, err := c.repo.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	domain, err := c.repo.GetDomain(ctx, room.DomainID)
	if err != nil {
		return nil, err
	}
	return c.repo.ListMessages(ctx, roomID, c.cutoffFor(domain))
}

// DeleteRoom removes one conversation on explicit operator request.
func (c *Core) DeleteRoom(ctx context.Context, roomID string) error {
	return c.repo.DeleteRoom(ctx, roomID)
}

// respondToCustomer decides whether the assistant answers a freshly persisted
// customer message, and if so feeds the reply through the same
// persist-then-fanout path a human reply takes. Runs detached from the
// sender's connection: a disconnect mid-generation changes nothing.
func (c *Core) respondToCustomer(ctx context.Context, customerMsg *entity.Message) {
	if c.assistant == nil {
		return
	}

	logger := c.log.With(slog.String("room_id", customerMsg.RoomID))

	room, err := c.repo.GetRoom(ctx, customerMsg.RoomID)
	if err != nil {
		logger.Error("load room for assistant", sl.Err(err))
		return
	}
	if room.Live {
		// Operator has taken over; the assistant stays quiet.
		return
	}

	domain, err := c.repo.GetDomain(ctx, room.DomainID)
	if err != nil {
		logger.Error("load domain for assistant", sl.Err(err))
		return
	}
	if !domain.AutoRespond() {
		return
	}

	history, err := c.repo.ListMessages(ctx, room.UUID, c.cutoffFor(domain))
	if err != nil {
		logger.Error("load history for assistant", sl.Err(err))
		return
	}
	// The triggering message is passed separately.
	history = trimLast(history, customerMsg.UUID)

	text, usage, err := c.assistant.Reply(ctx, domain, history, customerMsg.Body)
	if err != nil {
		logger.Error("assistant reply", sl.Err(err))
		if c.fanout != nil {
			c.fanout.BroadcastRoomError(room.UUID, "assistant unavailable, retry or wait for an operator")
		}
		return
	}

	reply, err := c.repo.AppendMessage(ctx, room.UUID, entity.RoleAssistant, text)
	if err != nil {
		logger.Error("persist assistant reply", sl.Err(err))
		if c.fanout != nil {
			c.fanout.BroadcastRoomError(room.UUID, "message not delivered, retry")
		}
		return
	}

	if c.fanout != nil {
		c.fanout.BroadcastNewMessage(reply, string(entity.RoleAssistant), assistantDisplayName)
	}

	// Metering is best effort; a failed write never blocks delivery.
	usage.MessageID = reply.UUID
	usage.DomainID = domain.ID
	usage.CreatedAt = time.Now()
	if err := c.repo.SaveAssistantUsage(ctx, usage); err != nil {
		logger.Error("save assistant usage", sl.Err(err))
	}
}

// trimLast drops the message with the given id from the tail of the history
// so the assistant does not see the triggering message twice.
func trimLast(history []entity.Message, id string) []entity.Message {
	if n := len(history); n > 0 && history[n-1].UUID == id {
		return history[:n-1]
	}
	return history
}
