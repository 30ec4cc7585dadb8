package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"LiveCS/entity"
	"LiveCS/internal/lib/sl"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 64 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The widget is embedded on arbitrary customer sites.
		return true
	},
}

// Client is a single WebSocket connection: a customer's widget or an
// operator's dashboard.
type Client struct {
	id         string
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	capability entity.Capability
	log        *slog.Logger
}

// readPump pumps frames from the connection into the hub until the peer goes
// away. Runs once per connection.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		c.handleEvent(raw)
	}
}

// writePump pumps hub events to the connection and keeps the ping/pong
// keepalive going.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleEvent parses and dispatches one inbound frame.
func (c *Client) handleEvent(raw []byte) {
	var event clientEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		c.log.Warn("failed to parse client ws message", sl.Err(err))
		return
	}

	switch event.Type {
	case EventJoinRoom:
		var data joinRoomPayload
		if err := json.Unmarshal(event.Data, &data); err != nil || data.RoomID == "" {
			c.sendError("invalid join-room payload")
			return
		}
		capability := c.capability
		if data.Capability != "" {
			parsed, err := entity.ParseCapability(data.Capability)
			if err != nil {
				c.sendError("invalid capability")
				return
			}
			capability = parsed
		}
		c.hub.Join(c, data.RoomID, data.UserID, data.UserName, capability)

	case EventLeaveRoom:
		c.hub.Leave(c)

	case EventSendMessage:
		var data sendMessagePayload
		if err := json.Unmarshal(event.Data, &data); err != nil || data.RoomID == "" {
			c.sendError("invalid send-message payload")
			return
		}
		role, err := entity.ParseRole(data.Role)
		if err != nil {
			c.sendError("invalid role")
			return
		}
		c.hub.SendMessage(c, data.RoomID, data.Message, role, data.UserID, data.UserName)

	case EventCustomerJoinedRoom:
		var data customerJoinedRoomPayload
		if err := json.Unmarshal(event.Data, &data); err != nil || data.RoomID == "" {
			return
		}
		c.hub.RelayCustomerJoined(data.RoomID, data.CustomerID, data.CustomerName)

	case EventVisitorJoined:
		var data visitorPayload
		if err := json.Unmarshal(event.Data, &data); err != nil || data.DomainID == "" || data.VisitorID == "" {
			return
		}
		c.hub.presence.Join(data.DomainID, data.VisitorID)

	case EventVisitorLeft:
		var data visitorPayload
		if err := json.Unmarshal(event.Data, &data); err != nil || data.DomainID == "" || data.VisitorID == "" {
			return
		}
		c.hub.presence.Leave(data.DomainID, data.VisitorID)

	case EventVisitorActivity:
		var data visitorPayload
		if err := json.Unmarshal(event.Data, &data); err != nil || data.DomainID == "" || data.VisitorID == "" {
			return
		}
		c.hub.presence.Activity(data.DomainID, data.VisitorID)

	case EventGetDomainStats:
		var data domainStatsPayload
		if err := json.Unmarshal(event.Data, &data); err != nil || data.DomainID == "" {
			return
		}
		c.sendEvent(&Event{
			Type: EventDomainStats,
			Data: domainStatsEvent{
				DomainID: data.DomainID,
				Visitors: c.hub.presence.Count(data.DomainID),
			},
		})

	case EventGetAllDomainStats:
		c.sendEvent(&Event{
			Type: EventAllDomainStats,
			Data: c.hub.presence.Counts(),
		})

	default:
		c.log.Warn("unknown ws event", slog.String("type", event.Type))
	}
}

// sendEvent queues an event for this connection only.
func (c *Client) sendEvent(event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func (c *Client) sendError(message string) {
	c.sendEvent(&Event{
		Type: EventError,
		Data: errorPayload{Message: message},
	})
}

// ServeWs upgrades an HTTP request to a widget or dashboard connection.
// Operator dashboards connect with ?capability=operator; everything else is a
// customer widget.
func ServeWs(hub *Hub, log *slog.Logger, w http.ResponseWriter, r *http.Request) {
	capability := entity.CapabilityCustomer
	if q := r.URL.Query().Get("capability"); q != "" {
		parsed, err := entity.ParseCapability(q)
		if err != nil {
			http.Error(w, "Invalid capability", http.StatusBadRequest)
			return
		}
		capability = parsed
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("websocket upgrade failed", sl.Err(err))
		return
	}

	client := &Client{
		id:         uuid.NewString(),
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, 256),
		capability: capability,
		log:        log.With(sl.Module("ws.client")),
	}

	hub.register <- client

	go client.writePump()
	go client.readPump()
}
