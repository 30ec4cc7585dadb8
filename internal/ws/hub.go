package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"LiveCS/entity"
	"LiveCS/internal/lib/sl"
)

// Handler is the core-side contract the hub persists through. A message is
// handed to the core, durably recorded there, and only the returned canonical
// record is broadcast.
type Handler interface {
	HandleSendMessage(ctx context.Context, roomID string, role entity.Role, body string) (*entity.Message, error)
	HandleOperatorPresence(ctx context.Context, roomID string, live bool) error
}

// Membership is the runtime-only mapping of one connection to the room it
// currently occupies. It exists exactly as long as the connection does.
type Membership struct {
	RoomID        string
	ParticipantID string
	DisplayName   string
	Capability    entity.Capability
}

// Hub is the room registry: it tracks which connections are attached to which
// room, fans persisted messages out to them, and feeds the presence tracker.
type Hub struct {
	mu          sync.RWMutex
	clients     map[*Client]bool
	rooms       map[string]map[*Client]bool
	memberships map[*Client]*Membership

	register   chan *Client
	unregister chan *Client

	handler  Handler
	presence *Tracker
	log      *slog.Logger
}

func NewHub(presence *Tracker, log *slog.Logger) *Hub {
	return &Hub{
		clients:     make(map[*Client]bool),
		rooms:       make(map[string]map[*Client]bool),
		memberships: make(map[*Client]*Membership),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		presence:    presence,
		log:         log.With(sl.Module("ws.hub")),
	}
}

// SetHandler wires the core in. Must be called before Run.
func (h *Hub) SetHandler(handler Handler) {
	h.handler = handler
}

// Run owns client registration. Should be called in a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.disconnect(client)
		}
	}
}

// disconnect tears down a closing connection: membership cleanup plus the
// departure broadcasts. Persisted data is never touched.
func (h *Hub) disconnect(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	member := h.removeMembershipLocked(client)
	close(client.send)
	h.mu.Unlock()

	if member != nil {
		h.announceLeave(client, member)
	}
}

// Join registers the connection in a room. Idempotent per connection:
// re-joining the same room only refreshes the display name. Joining a second
// room implicitly leaves the first.
func (h *Hub) Join(client *Client, roomID, participantID, displayName string, capability entity.Capability) {
	h.mu.Lock()
	if member, ok := h.memberships[client]; ok {
		if member.RoomID == roomID {
			member.ParticipantID = participantID
			member.DisplayName = displayName
			h.mu.Unlock()
			return
		}
		previous := h.removeMembershipLocked(client)
		h.mu.Unlock()
		h.announceLeave(client, previous)
		h.mu.Lock()
	}

	member := &Membership{
		RoomID:        roomID,
		ParticipantID: participantID,
		DisplayName:   displayName,
		Capability:    capability,
	}
	h.memberships[client] = member

	room, ok := h.rooms[roomID]
	if !ok {
		room = make(map[*Client]bool)
		h.rooms[roomID] = room
	}
	room[client] = true
	h.mu.Unlock()

	h.broadcastToRoom(roomID, &Event{
		Type: EventUserJoined,
		Data: userEventPayload{RoomID: roomID, UserID: participantID, UserName: displayName},
	}, client)

	if capability == entity.CapabilityOperator {
		h.setRoomLive(roomID, true)
	}

	h.log.With(
		slog.String("room_id", roomID),
		slog.String("participant_id", participantID),
		slog.String("capability", string(capability)),
	).Debug("joined room")
}

// Leave removes the connection's membership, announcing the departure to the
// remaining members.
func (h *Hub) Leave(client *Client) {
	h.mu.Lock()
	member := h.removeMembershipLocked(client)
	h.mu.Unlock()

	if member != nil {
		h.announceLeave(client, member)
	}
}

// removeMembershipLocked detaches the client from its room. Caller holds the
// lock; the returned membership drives the departure broadcasts.
func (h *Hub) removeMembershipLocked(client *Client) *Membership {
	member, ok := h.memberships[client]
	if !ok {
		return nil
	}
	delete(h.memberships, client)

	if room, ok := h.rooms[member.RoomID]; ok {
		delete(room, client)
		if len(room) == 0 {
			delete(h.rooms, member.RoomID)
		}
	}
	return member
}

func (h *Hub) announceLeave(client *Client, member *Membership) {
	h.broadcastToRoom(member.RoomID, &Event{
		Type: EventUserLeft,
		Data: userEventPayload{
			RoomID:   member.RoomID,
			UserID:   member.ParticipantID,
			UserName: member.DisplayName,
		},
	}, client)

	switch member.Capability {
	case entity.CapabilityCustomer:
		// Only the room's last customer connection going away means the
		// customer is gone; dashboards then drop the conversation from
		// the active list.
		if !h.roomHasCapability(member.RoomID, entity.CapabilityCustomer) {
			h.broadcastToRoom(member.RoomID, &Event{
				Type: EventCustomerDisconnected,
				Data: userEventPayload{
					RoomID:   member.RoomID,
					UserID:   member.ParticipantID,
					UserName: member.DisplayName,
				},
			}, client)
		}
	case entity.CapabilityOperator:
		if !h.roomHasCapability(member.RoomID, entity.CapabilityOperator) {
			h.setRoomLive(member.RoomID, false)
		}
	}
}

func (h *Hub) roomHasCapability(roomID string, capability entity.Capability) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.rooms[roomID] {
		if member, ok := h.memberships[client]; ok && member.Capability == capability {
			return true
		}
	}
	return false
}

func (h *Hub) setRoomLive(roomID string, live bool) {
	if h.handler == nil {
		return
	}
	if err := h.handler.HandleOperatorPresence(context.Background(), roomID, live); err != nil {
		h.log.With(
			slog.String("room_id", roomID),
			slog.Bool("live", live),
			sl.Err(err),
		).Error("toggle room live flag")
	}
}

// SendMessage runs the persist-then-fanout path for one inbound message. The
// message is durably recorded first; only the persisted record is broadcast,
// to every member of the room including the sender. On persistence failure
// nothing is broadcast and the error goes back to the sender alone.
func (h *Hub) SendMessage(client *Client, roomID, body string, role entity.Role, userID, userName string) {
	if h.handler == nil {
		client.sendError("message handling not available")
		return
	}

	// Deliberately not the connection's context: a disconnect must not
	// cancel an in-flight persistence.
	message, err := h.handler.HandleSendMessage(context.Background(), roomID, role, body)
	if err != nil {
		h.log.With(
			slog.String("room_id", roomID),
			slog.String("role", string(role)),
			sl.Err(err),
		).Error("persist message")
		client.sendError("message not delivered, retry")
		return
	}

	h.BroadcastNewMessage(message, userID, userName)
}

// BroadcastNewMessage fans a persisted message out to every current member of
// its room. The core uses this directly for assistant replies.
func (h *Hub) BroadcastNewMessage(message *entity.Message, userID, userName string) {
	h.broadcastToRoom(message.RoomID, &Event{
		Type: EventNewMessage,
		Data: newMessagePayload{
			ID:        message.UUID,
			RoomID:    message.RoomID,
			Message:   message.Body,
			Role:      string(message.Role),
			UserID:    userID,
			UserName:  userName,
			Seq:       message.Seq,
			Timestamp: message.CreatedAt,
		},
	}, nil)
}

// BroadcastRoomError surfaces a failure to a room's members. The core uses it
// when an assistant reply could not be produced: nothing was persisted and the
// widget should offer a retry.
func (h *Hub) BroadcastRoomError(roomID, message string) {
	h.broadcastToRoom(roomID, &Event{
		Type: EventError,
		Data: errorPayload{Message: message},
	}, nil)
}

// RelayCustomerJoined forwards a customer's arrival to operator dashboards so
// they can auto-select the room. Operators listen before joining any room, so
// this goes to every operator connection.
func (h *Hub) RelayCustomerJoined(roomID, customerID, customerName string) {
	event := &Event{
		Type: EventCustomerJoinedRoom,
		Data: customerJoinedRoomPayload{
			RoomID:       roomID,
			CustomerID:   customerID,
			CustomerName: customerName,
		},
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		if client.capability != entity.CapabilityOperator {
			continue
		}
		h.push(client, data)
	}
}

// broadcastToRoom sends an event to every member of a room. exclude, when not
// nil, is skipped (join/leave announcements go to the others only).
func (h *Hub) broadcastToRoom(roomID string, event *Event, exclude *Client) {
	data, err := json.Marshal(event)
	if err != nil {
		h.log.With(sl.Err(err)).Error("marshal room event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.rooms[roomID] {
		if client == exclude {
			continue
		}
		h.push(client, data)
	}
}

// push writes to a client's buffered channel, dropping the client when its
// buffer is full. Caller holds at least a read lock.
func (h *Hub) push(client *Client, data []byte) {
	select {
	case client.send <- data:
	default:
		go func() { h.unregister <- client }()
	}
}

// RoomMembers returns the current member count of a room. Zero means the room
// is idle: no live connection, history retained.
func (h *Hub) RoomMembers(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}
