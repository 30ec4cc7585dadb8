package ws

import (
	"encoding/json"
	"time"
)

// Client -> server event types. Names and payload shapes follow the widget's
// wire protocol.
const (
	EventJoinRoom           = "join-room"
	EventLeaveRoom          = "leave-room"
	EventSendMessage        = "send-message"
	EventCustomerJoinedRoom = "customer-joined-room"
	EventVisitorJoined      = "visitor-joined-domain"
	EventVisitorLeft        = "visitor-left-domain"
	EventVisitorActivity    = "visitor-activity"
	EventGetDomainStats     = "get-domain-stats"
	EventGetAllDomainStats  = "get-all-domain-stats"
)

// Server -> client event types.
const (
	EventUserJoined           = "user-joined"
	EventUserLeft             = "user-left"
	EventNewMessage           = "new-message"
	EventDomainStats          = "domain-stats"
	EventAllDomainStats       = "all-domain-stats"
	EventCustomerDisconnected = "customer-disconnected"
	EventError                = "error"
)

// Event is the envelope every WebSocket frame carries.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// clientEvent is the inbound counterpart with the payload left raw until the
// type is known.
type clientEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type joinRoomPayload struct {
	RoomID     string `json:"roomId"`
	UserID     string `json:"userId"`
	UserName   string `json:"userName"`
	Capability string `json:"capability"`
}

type sendMessagePayload struct {
	RoomID   string `json:"roomId"`
	Message  string `json:"message"`
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
	Role     string `json:"role"`
}

type customerJoinedRoomPayload struct {
	RoomID       string `json:"roomId"`
	CustomerID   string `json:"customerId"`
	CustomerName string `json:"customerName"`
}

type visitorPayload struct {
	DomainID  string `json:"domainId"`
	VisitorID string `json:"visitorId"`
}

type domainStatsPayload struct {
	DomainID string `json:"domainId"`
}

type userEventPayload struct {
	RoomID   string `json:"roomId"`
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
}

type newMessagePayload struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"roomId"`
	Message   string    `json:"message"`
	Role      string    `json:"role"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	Seq       int64     `json:"seq"`
	Timestamp time.Time `json:"timestamp"`
}

type domainStatsEvent struct {
	DomainID string `json:"domainId"`
	Visitors int    `json:"visitors"`
}

type errorPayload struct {
	Message string `json:"message"`
}
