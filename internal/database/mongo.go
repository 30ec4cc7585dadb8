package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"LiveCS/internal/config"
	"LiveCS/internal/lib/sl"
)

const (
	domainsCollection   = "domains"
	customersCollection = "customers"
	roomsCollection     = "chat-rooms"
	messagesCollection  = "messages"
	ratingsCollection   = "ratings"
	usageCollection     = "assistant-usage"
)

type MongoDB struct {
	clientOptions *options.ClientOptions
	database      string
	rooms         *roomLocks
	log           *slog.Logger
}

// roomLocks hands out one mutex per room id so concurrent appends to the same
// room cannot interleave sequence assignment with the insert.
type roomLocks struct {
	mutex sync.Mutex
	locks map[string]*sync.Mutex
}

// acquire locks the room's mutex and returns it; the caller unlocks the
// returned mutex directly so a concurrent forget cannot orphan a held lock.
func (l *roomLocks) acquire(roomID string) *sync.Mutex {
	l.mutex.Lock()
	m, ok := l.locks[roomID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[roomID] = m
	}
	l.mutex.Unlock()

	m.Lock()
	return m
}

// forget drops a room's mutex once the room document is gone. Must only be
// called after the delete: an append racing the eviction then fails its room
// lookup instead of sharing a counter.
func (l *roomLocks) forget(roomID string) {
	l.mutex.Lock()
	delete(l.locks, roomID)
	l.mutex.Unlock()
}

func NewMongoClient(conf *config.Config, logger *slog.Logger) (*MongoDB, error) {
	if !conf.Mongo.Enabled {
		return nil, nil
	}
	connectionUri := fmt.Sprintf("mongodb://%s:%s", conf.Mongo.Host, conf.Mongo.Port)
	clientOptions := options.Client().ApplyURI(connectionUri)
	if conf.Mongo.User != "" {
		clientOptions.SetAuth(options.Credential{
			Username:   conf.Mongo.User,
			Password:   conf.Mongo.Password,
			AuthSource: conf.Mongo.Database,
		})
	}
	client := &MongoDB{
		clientOptions: clientOptions,
		database:      conf.Mongo.Database,
		rooms:         &roomLocks{locks: make(map[string]*sync.Mutex)},
		log:           logger.With(sl.Module("mongodb")),
	}
	return client, nil
}

func (m *MongoDB) connect(ctx context.Context) (*mongo.Client, error) {
	connection, err := mongo.Connect(ctx, m.clientOptions)
	if err != nil {
		return nil, fmt.Errorf("mongodb connect error: %w", err)
	}
	return connection, nil
}

func (m *MongoDB) disconnect(ctx context.Context, connection *mongo.Client) {
	_ = connection.Disconnect(ctx)
}

func (m *MongoDB) findError(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil
	}
	return fmt.Errorf("mongodb find error: %w", err)
}

// EnsureIndexes creates the indexes the hot paths rely on. Called once at
// startup.
func (m *MongoDB) EnsureIndexes(ctx context.Context) error {
	connection, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer m.disconnect(ctx, connection)

	db := connection.Database(m.database)

	models := map[string]mongo.IndexModel{
		customersCollection: {
			Keys: bson.D{
				{Key: "domain_id", Value: 1},
				{Key: "ip_address", Value: 1},
				{Key: "created_at", Value: -1},
			},
		},
		roomsCollection: {
			Keys: bson.D{
				{Key: "customer_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
		},
		messagesCollection: {
			Keys: bson.D{
				{Key: "room_id", Value: 1},
				{Key: "created_at", Value: 1},
				{Key: "seq", Value: 1},
			},
		},
		ratingsCollection: {
			Keys: bson.D{
				{Key: "domain_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
		},
	}

	for name, model := range models {
		if _, err := db.Collection(name).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("mongodb create index on %s: %w", name, err)
		}
	}

	return nil
}
