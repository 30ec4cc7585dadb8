package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LiveCS/entity"
)

// fakeHandler stands in for the core: it persists into a slice and can be
// told to fail.
type fakeHandler struct {
	mu       sync.Mutex
	fail     bool
	appended []entity.Message
	liveLog  []bool
	seq      int64
}

func (f *fakeHandler) HandleSendMessage(_ context.Context, roomID string, role entity.Role, body string) (*entity.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, fmt.Errorf("storage unavailable")
	}
	f.seq++
	msg := entity.NewMessage(roomID, role, body, f.seq)
	f.appended = append(f.appended, *msg)
	return msg, nil
}

func (f *fakeHandler) HandleOperatorPresence(_ context.Context, _ string, live bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.liveLog = append(f.liveLog, live)
	return nil
}

func (f *fakeHandler) appendedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.appended)
}

func newTestHub(handler Handler) *Hub {
	hub := NewHub(NewTracker(time.Minute), slog.Default())
	hub.SetHandler(handler)
	return hub
}

func newTestClient(hub *Hub, capability entity.Capability) *Client {
	client := &Client{
		id:         uuid.NewString(),
		hub:        hub,
		send:       make(chan []byte, 16),
		capability: capability,
		log:        slog.Default(),
	}
	hub.mu.Lock()
	hub.clients[client] = true
	hub.mu.Unlock()
	return client
}

// recv pops one queued event from the client or fails the test.
func recv(t *testing.T, client *Client) Event {
	t.Helper()
	select {
	case data := <-client.send:
		var event struct {
			Type string          `json:"type"`
			Data json.RawMessage `json:"data"`
		}
		require.NoError(t, json.Unmarshal(data, &event))
		var payload interface{}
		require.NoError(t, json.Unmarshal(event.Data, &payload))
		return Event{Type: event.Type, Data: payload}
	case <-time.After(time.Second):
		t.Fatal("no event received")
		return Event{}
	}
}

func assertSilent(t *testing.T, client *Client) {
	t.Helper()
	select {
	case data := <-client.send:
		t.Fatalf("unexpected event: %s", data)
	default:
	}
}

func TestHubJoin(t *testing.T) {
	t.Run("join announces to other members only", func(t *testing.T) {
		hub := newTestHub(&fakeHandler{})
		a := newTestClient(hub, entity.CapabilityCustomer)
		b := newTestClient(hub, entity.CapabilityCustomer)
		other := newTestClient(hub, entity.CapabilityCustomer)

		hub.Join(a, "r1", "u1", "Alice", entity.CapabilityCustomer)
		hub.Join(other, "r2", "u3", "Eve", entity.CapabilityCustomer)
		hub.Join(b, "r1", "u2", "Bob", entity.CapabilityCustomer)

		event := recv(t, a)
		assert.Equal(t, EventUserJoined, event.Type)

		assertSilent(t, b)
		assertSilent(t, other)
	})

	t.Run("re-joining the same room is a no-op", func(t *testing.T) {
		hub := newTestHub(&fakeHandler{})
		a := newTestClient(hub, entity.CapabilityCustomer)
		b := newTestClient(hub, entity.CapabilityCustomer)

		hub.Join(a, "r1", "u1", "Alice", entity.CapabilityCustomer)
		hub.Join(b, "r1", "u2", "Bob", entity.CapabilityCustomer)
		recv(t, a)

		hub.Join(b, "r1", "u2", "Bobby", entity.CapabilityCustomer)
		assertSilent(t, a)
		assert.Equal(t, 2, hub.RoomMembers("r1"))
	})

	t.Run("joining a second room leaves the first", func(t *testing.T) {
		hub := newTestHub(&fakeHandler{})
		a := newTestClient(hub, entity.CapabilityCustomer)
		b := newTestClient(hub, entity.CapabilityCustomer)

		hub.Join(a, "r1", "u1", "Alice", entity.CapabilityCustomer)
		hub.Join(b, "r1", "u2", "Bob", entity.CapabilityCustomer)
		recv(t, a)

		hub.Join(b, "r2", "u2", "Bob", entity.CapabilityCustomer)

		event := recv(t, a)
		assert.Equal(t, EventUserLeft, event.Type)
		assert.Equal(t, 1, hub.RoomMembers("r1"))
		assert.Equal(t, 1, hub.RoomMembers("r2"))
	})

	t.Run("operator join and leave toggle the live flag", func(t *testing.T) {
		handler := &fakeHandler{}
		hub := newTestHub(handler)
		op := newTestClient(hub, entity.CapabilityOperator)

		hub.Join(op, "r1", "op1", "Op", entity.CapabilityOperator)
		hub.Leave(op)

		handler.mu.Lock()
		defer handler.mu.Unlock()
		assert.Equal(t, []bool{true, false}, handler.liveLog)
	})
}

func TestHubLeave(t *testing.T) {
	t.Run("customer departure signals the room", func(t *testing.T) {
		hub := newTestHub(&fakeHandler{})
		customer := newTestClient(hub, entity.CapabilityCustomer)
		operator := newTestClient(hub, entity.CapabilityOperator)

		hub.Join(customer, "r1", "c1", "Visitor", entity.CapabilityCustomer)
		hub.Join(operator, "r1", "op1", "Op", entity.CapabilityOperator)
		recv(t, customer)

		hub.Leave(customer)

		left := recv(t, operator)
		assert.Equal(t, EventUserLeft, left.Type)
		disconnected := recv(t, operator)
		assert.Equal(t, EventCustomerDisconnected, disconnected.Type)
	})

	t.Run("disconnect signal waits for the last customer connection", func(t *testing.T) {
		hub := newTestHub(&fakeHandler{})
		first := newTestClient(hub, entity.CapabilityCustomer)
		second := newTestClient(hub, entity.CapabilityCustomer)
		operator := newTestClient(hub, entity.CapabilityOperator)

		hub.Join(first, "r1", "c1", "Visitor", entity.CapabilityCustomer)
		hub.Join(second, "r1", "c1", "Visitor", entity.CapabilityCustomer)
		hub.Join(operator, "r1", "op1", "Op", entity.CapabilityOperator)
		recv(t, first)
		recv(t, first)
		recv(t, second)

		// Another customer tab is still attached: departure only.
		hub.Leave(first)
		left := recv(t, operator)
		assert.Equal(t, EventUserLeft, left.Type)
		assertSilent(t, operator)
		recv(t, second)

		// The last one going away means the customer is gone.
		hub.Leave(second)
		left = recv(t, operator)
		assert.Equal(t, EventUserLeft, left.Type)
		disconnected := recv(t, operator)
		assert.Equal(t, EventCustomerDisconnected, disconnected.Type)
	})

	t.Run("leave without membership is harmless", func(t *testing.T) {
		hub := newTestHub(&fakeHandler{})
		a := newTestClient(hub, entity.CapabilityCustomer)
		hub.Leave(a)
		assertSilent(t, a)
	})
}

func TestHubSendMessage(t *testing.T) {
	t.Run("persists before fanning out to every member including sender", func(t *testing.T) {
		handler := &fakeHandler{}
		hub := newTestHub(handler)
		customer := newTestClient(hub, entity.CapabilityCustomer)
		operator := newTestClient(hub, entity.CapabilityOperator)

		hub.Join(customer, "r1", "c1", "Visitor", entity.CapabilityCustomer)
		hub.Join(operator, "r1", "op1", "Op", entity.CapabilityOperator)
		recv(t, customer)

		hub.SendMessage(customer, "r1", "Hello", entity.RoleCustomer, "c1", "Visitor")

		require.Equal(t, 1, handler.appendedCount())
		persisted := handler.appended[0]

		for _, client := range []*Client{customer, operator} {
			event := recv(t, client)
			require.Equal(t, EventNewMessage, event.Type)
			payload := event.Data.(map[string]interface{})
			assert.Equal(t, persisted.UUID, payload["id"])
			assert.Equal(t, "Hello", payload["message"])
			assert.Equal(t, "customer", payload["role"])
			assert.Equal(t, float64(persisted.Seq), payload["seq"])
		}
	})

	t.Run("persistence failure suppresses the broadcast", func(t *testing.T) {
		handler := &fakeHandler{fail: true}
		hub := newTestHub(handler)
		customer := newTestClient(hub, entity.CapabilityCustomer)
		operator := newTestClient(hub, entity.CapabilityOperator)

		hub.Join(customer, "r1", "c1", "Visitor", entity.CapabilityCustomer)
		hub.Join(operator, "r1", "op1", "Op", entity.CapabilityOperator)
		recv(t, customer)

		hub.SendMessage(customer, "r1", "Hello", entity.RoleCustomer, "c1", "Visitor")

		event := recv(t, customer)
		assert.Equal(t, EventError, event.Type)
		assertSilent(t, operator)
	})
}

func TestHubRelayCustomerJoined(t *testing.T) {
	hub := newTestHub(&fakeHandler{})
	operator := newTestClient(hub, entity.CapabilityOperator)
	customer := newTestClient(hub, entity.CapabilityCustomer)

	hub.RelayCustomerJoined("r1", "c1", "Visitor")

	event := recv(t, operator)
	assert.Equal(t, EventCustomerJoinedRoom, event.Type)
	assertSilent(t, customer)
}

func TestHubBroadcastNewMessage(t *testing.T) {
	hub := newTestHub(&fakeHandler{})
	customer := newTestClient(hub, entity.CapabilityCustomer)
	hub.Join(customer, "r1", "c1", "Visitor", entity.CapabilityCustomer)

	msg := entity.NewMessage("r1", entity.RoleAssistant, "Hi there", 2)
	hub.BroadcastNewMessage(msg, "assistant", "AI Assistant")

	event := recv(t, customer)
	require.Equal(t, EventNewMessage, event.Type)
	payload := event.Data.(map[string]interface{})
	assert.Equal(t, "assistant", payload["role"])
	assert.Equal(t, "AI Assistant", payload["userName"])
}
