package core

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"LiveCS/entity"
)

// fakeRepo is an in-memory Repository mirroring the store's contracts:
// newest-match identity lookup, per-room sequence assignment, ownership-aware
// sweeping.
type fakeRepo struct {
	mu        sync.Mutex
	domains   map[string]*entity.Domain
	customers map[string]*entity.Customer
	rooms     map[string]*entity.ChatRoom
	messages  map[string][]entity.Message
	ratings   []entity.SatisfactionRating
	usages    []entity.AssistantUsage

	appendErr error
	usageErr  error
	sweepErr  error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		domains:   make(map[string]*entity.Domain),
		customers: make(map[string]*entity.Customer),
		rooms:     make(map[string]*entity.ChatRoom),
		messages:  make(map[string][]entity.Message),
	}
}

func (f *fakeRepo) GetDomain(_ context.Context, domainID string) (*entity.Domain, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	domain, ok := f.domains[domainID]
	if !ok {
		return nil, entity.ErrDomainNotFound
	}
	copied := *domain
	return &copied, nil
}

func (f *fakeRepo) ListDomains(_ context.Context) ([]entity.Domain, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	domains := make([]entity.Domain, 0, len(f.domains))
	for _, domain := range f.domains {
		domains = append(domains, *domain)
	}
	return domains, nil
}

func (f *fakeRepo) FindCustomerByIP(_ context.Context, domainID, ip string, cutoff time.Time) (*entity.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var newest *entity.Customer
	for _, c := range f.customers {
		if c.DomainID != domainID || c.IPAddress != ip || c.CreatedAt.Before(cutoff) {
			continue
		}
		if newest == nil || c.CreatedAt.After(newest.CreatedAt) {
			newest = c
		}
	}
	if newest == nil {
		return nil, entity.ErrCustomerNotFound
	}
	copied := *newest
	return &copied, nil
}

func (f *fakeRepo) GetCustomer(_ context.Context, customerID string) (*entity.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	customer, ok := f.customers[customerID]
	if !ok {
		return nil, entity.ErrCustomerNotFound
	}
	copied := *customer
	return &copied, nil
}

func (f *fakeRepo) CreateCustomerWithRoom(_ context.Context, customer *entity.Customer, room *entity.ChatRoom) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := *customer
	r := *room
	f.customers[c.UUID] = &c
	f.rooms[r.UUID] = &r
	return nil
}

func (f *fakeRepo) UpdateCustomerProfile(_ context.Context, customerID string, profile entity.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	customer, ok := f.customers[customerID]
	if !ok {
		return entity.ErrCustomerNotFound
	}
	if profile.Name != "" {
		customer.Name = profile.Name
	}
	if profile.Email != "" {
		customer.Email = profile.Email
	}
	if profile.Phone != "" {
		customer.Phone = profile.Phone
	}
	if profile.CountryCode != "" {
		customer.CountryCode = profile.CountryCode
	}
	return nil
}

func (f *fakeRepo) GetRoom(_ context.Context, roomID string) (*entity.ChatRoom, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	room, ok := f.rooms[roomID]
	if !ok {
		return nil, entity.ErrRoomNotFound
	}
	copied := *room
	return &copied, nil
}

func (f *fakeRepo) CreateRoom(_ context.Context, room *entity.ChatRoom) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := *room
	f.rooms[r.UUID] = &r
	return nil
}

func (f *fakeRepo) ListRoomsForCustomer(_ context.Context, customerID string, cutoff time.Time) ([]entity.ChatRoom, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var rooms []entity.ChatRoom
	for _, room := range f.rooms {
		if room.CustomerID != customerID || room.CreatedAt.Before(cutoff) {
			continue
		}
		copied := *room
		copied.Messages = append([]entity.Message(nil), f.messages[room.UUID]...)
		rooms = append(rooms, copied)
	}
	sort.Slice(rooms, func(i, j int) bool {
		return rooms[i].CreatedAt.After(rooms[j].CreatedAt)
	})
	return rooms, nil
}

func (f *fakeRepo) SetRoomLive(_ context.Context, roomID string, live bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	room, ok := f.rooms[roomID]
	if !ok {
		return entity.ErrRoomNotFound
	}
	room.Live = live
	return nil
}

func (f *fakeRepo) DeleteRoom(_ context.Context, roomID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rooms[roomID]; !ok {
		return entity.ErrRoomNotFound
	}
	delete(f.rooms, roomID)
	delete(f.messages, roomID)
	return nil
}

func (f *fakeRepo) AppendMessage(_ context.Context, roomID string, role entity.Role, body string) (*entity.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return nil, f.appendErr
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, fmt.Errorf("%w: empty message body", entity.ErrInvalidInput)
	}
	room, ok := f.rooms[roomID]
	if !ok {
		return nil, entity.ErrRoomNotFound
	}
	room.LastSeq++
	room.UpdatedAt = time.Now()
	msg := entity.NewMessage(roomID, role, body, room.LastSeq)
	f.messages[roomID] = append(f.messages[roomID], *msg)
	return msg, nil
}

func (f *fakeRepo) ListMessages(_ context.Context, roomID string, cutoff time.Time) ([]entity.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rooms[roomID]; !ok {
		return nil, entity.ErrRoomNotFound
	}
	var messages []entity.Message
	for _, msg := range f.messages[roomID] {
		if !cutoff.IsZero() && msg.CreatedAt.Before(cutoff) {
			continue
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

func (f *fakeRepo) SaveAssistantUsage(_ context.Context, usage entity.AssistantUsage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.usageErr != nil {
		return f.usageErr
	}
	f.usages = append(f.usages, usage)
	return nil
}

func (f *fakeRepo) SaveRating(_ context.Context, rating *entity.SatisfactionRating) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ratings = append(f.ratings, *rating)
	return nil
}

func (f *fakeRepo) ListRatings(_ context.Context, domainID string) ([]entity.SatisfactionRating, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ratings []entity.SatisfactionRating
	for _, rating := range f.ratings {
		if rating.DomainID == domainID {
			ratings = append(ratings, rating)
		}
	}
	return ratings, nil
}

func (f *fakeRepo) SweepBefore(_ context.Context, cutoff time.Time) (entity.SweepStats, error) {
	return f.sweepScoped("", cutoff)
}

func (f *fakeRepo) SweepDomainBefore(_ context.Context, domainID string, cutoff time.Time) (entity.SweepStats, error) {
	return f.sweepScoped(domainID, cutoff)
}

func (f *fakeRepo) sweepScoped(domainID string, cutoff time.Time) (entity.SweepStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var stats entity.SweepStats
	if f.sweepErr != nil {
		return stats, f.sweepErr
	}
	for id, room := range f.rooms {
		if domainID != "" && room.DomainID != domainID {
			continue
		}
		if !room.CreatedAt.Before(cutoff) {
			continue
		}
		stats.Messages += int64(len(f.messages[id]))
		delete(f.messages, id)
		delete(f.rooms, id)
		stats.Rooms++
	}
	owners := make(map[string]bool)
	for _, room := range f.rooms {
		owners[room.CustomerID] = true
	}
	for id, customer := range f.customers {
		if domainID != "" && customer.DomainID != domainID {
			continue
		}
		if customer.CreatedAt.Before(cutoff) && !owners[id] {
			delete(f.customers, id)
			stats.Customers++
		}
	}
	return stats, nil
}

// fakeAssistant answers with a canned reply or fails.
type fakeAssistant struct {
	mu      sync.Mutex
	reply   string
	err     error
	calls   int
	history []entity.Message
}

func (f *fakeAssistant) Reply(_ context.Context, _ *entity.Domain, history []entity.Message, _ string) (string, entity.AssistantUsage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.history = append([]entity.Message(nil), history...)
	if f.err != nil {
		return "", entity.AssistantUsage{}, f.err
	}
	return f.reply, entity.AssistantUsage{PromptTokens: 10, CompletionTokens: 5}, nil
}

func (f *fakeAssistant) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeFanout records broadcasts and signals through a channel so tests can
// wait for the async assistant path.
type fakeFanout struct {
	mu       sync.Mutex
	messages []entity.Message
	errors   []string
	signal   chan struct{}
}

func newFakeFanout() *fakeFanout {
	return &fakeFanout{signal: make(chan struct{}, 8)}
}

func (f *fakeFanout) BroadcastNewMessage(message *entity.Message, _, _ string) {
	f.mu.Lock()
	f.messages = append(f.messages, *message)
	f.mu.Unlock()
	f.signal <- struct{}{}
}

func (f *fakeFanout) BroadcastRoomError(_, message string) {
	f.mu.Lock()
	f.errors = append(f.errors, message)
	f.mu.Unlock()
	f.signal <- struct{}{}
}

func (f *fakeFanout) wait(t *testing.T) {
	t.Helper()
	select {
	case <-f.signal:
	case <-time.After(2 * time.Second):
		t.Fatal("no fanout activity")
	}
}

const (
	testRetention = 14 * 24 * time.Hour
	testGap       = 8 * time.Hour
)

func newTestCore(repo Repository) *Core {
	c := New(testRetention, testGap, slog.Default())
	c.SetRepository(repo)
	return c
}

func seedDomain(repo *fakeRepo, id string, mutate func(*entity.Domain)) *entity.Domain {
	domain := &entity.Domain{
		ID:               id,
		Name:             "Acme",
		ResponseMode:     entity.ResponseModeAuto,
		IPIdentification: true,
		CreatedAt:        time.Now().Add(-30 * 24 * time.Hour),
	}
	if mutate != nil {
		mutate(domain)
	}
	repo.mu.Lock()
	repo.domains[id] = domain
	repo.mu.Unlock()
	return domain
}
