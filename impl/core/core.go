package core

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"time"

	"LiveCS/entity"
	"LiveCS/internal/lib/sl"
)

type Repository interface {
	GetDomain(ctx context.Context, domainID string) (*entity.Domain, error)
	ListDomains(ctx context.Context) ([]entity.Domain, error)

	FindCustomerByIP(ctx context.Context, domainID, ip string, cutoff time.Time) (*entity.Customer, error)
	GetCustomer(ctx context.Context, customerID string) (*entity.Customer, error)
	CreateCustomerWithRoom(ctx context.Context, customer *entity.Customer, room *entity.ChatRoom) error
	UpdateCustomerProfile(ctx context.Context, customerID string, profile entity.Profile) error

	GetRoom(ctx context.Context, roomID string) (*entity.ChatRoom, error)
	CreateRoom(ctx context.Context, room *entity.ChatRoom) error
	ListRoomsForCustomer(ctx context.Context, customerID string, cutoff time.Time) ([]entity.ChatRoom, error)
	SetRoomLive(ctx context.Context, roomID string, live bool) error
	DeleteRoom(ctx context.Context, roomID string) error

	AppendMessage(ctx context.Context, roomID string, role entity.Role, body string) (*entity.Message, error)
	ListMessages(ctx context.Context, roomID string, cutoff time.Time) ([]entity.Message, error)
	SaveAssistantUsage(ctx context.Context, usage entity.AssistantUsage) error

	SaveRating(ctx context.Context, rating *entity.SatisfactionRating) error
	ListRatings(ctx context.Context, domainID string) ([]entity.SatisfactionRating, error)

	SweepBefore(ctx context.Context, cutoff time.Time) (entity.SweepStats, error)
	SweepDomainBefore(ctx context.Context, domainID string, cutoff time.Time) (entity.SweepStats, error)
}

// Assistant is the black-box generation call. Given the room history and a
// new customer message it produces a reply or fails; there is no partial
// success.
type Assistant interface {
	Reply(ctx context.Context, domain *entity.Domain, history []entity.Message, userMsg string) (string, entity.AssistantUsage, error)
}

// Fanout is the transport side the core pushes persisted messages through.
type Fanout interface {
	BroadcastNewMessage(message *entity.Message, userID, userName string)
	BroadcastRoomError(roomID, message string)
}

// Presence reads live-visitor counts maintained by the transport layer.
type Presence interface {
	Count(domainID string) int
	Counts() map[string]int
}

type Core struct {
	repo      Repository
	assistant Assistant
	fanout    Fanout
	presence  Presence

	retention     time.Duration
	inactivityGap time.Duration
	authKey       string

	log *slog.Logger
}

func New(retention, inactivityGap time.Duration, log *slog.Logger) *Core {
	return &Core{
		retention:     retention,
		inactivityGap: inactivityGap,
		log:           log.With(sl.Module("core")),
	}
}

func (c *Core) SetRepository(repo Repository) {
	c.repo = repo
}

func (c *Core) SetAssistant(assistant Assistant) {
	c.assistant = assistant
}

func (c *Core) SetFanout(fanout Fanout) {
	c.fanout = fanout
}

func (c *Core) SetPresence(presence Presence) {
	c.presence = presence
}

func (c *Core) SetAuthKey(key string) {
	c.authKey = key
}

// Authenticate checks an API key from the admin surface.
func (c *Core) Authenticate(key string) error {
	if c.authKey == "" {
		return fmt.Errorf("authentication not configured")
	}
	if subtle.ConstantTimeCompare([]byte(key), []byte(c.authKey)) != 1 {
		return fmt.Errorf("invalid api key")
	}
	return nil
}

// cutoffFor returns the retention cutoff for a domain, honoring a per-domain
// override of the default window.
func (c *Core) cutoffFor(domain *entity.Domain) time.Time {
	return time.Now().Add(-domain.Retention(c.retention))
}
