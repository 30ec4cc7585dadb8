package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"LiveCS/entity"
)

// AppendMessage durably records a message in a room. The store's clock is the
// ordering authority; the room's last_seq counter breaks timestamp ties. The
// per-room lock keeps the counter bump and the insert from interleaving with
// a concurrent append to the same room.
func (m *MongoDB) AppendMessage(ctx context.Context, roomID string, role entity.Role, body string) (*entity.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, fmt.Errorf("%w: empty message body", entity.ErrInvalidInput)
	}

	connection, err := m.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer m.disconnect(ctx, connection)

	db := connection.Database(m.database)

	lock := m.rooms.acquire(roomID)
	defer lock.Unlock()

	// Claim the next sequence number and refresh the room's activity stamp
	// in one server-side operation.
	now := time.Now()
	update := bson.D{
		{Key: "$inc", Value: bson.D{{Key: "last_seq", Value: int64(1)}}},
		{Key: "$set", Value: bson.D{{Key: "updated_at", Value: now}}},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var room entity.ChatRoom
	err = db.Collection(roomsCollection).
		FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: roomID}}, update, opts).
		Decode(&room)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, entity.ErrRoomNotFound
		}
		return nil, fmt.Errorf("mongodb claim message seq: %w", err)
	}

	message := entity.NewMessage(roomID, role, body, room.LastSeq)
	message.CreatedAt = now

	if _, err := db.Collection(messagesCollection).InsertOne(ctx, message); err != nil {
		return nil, fmt.Errorf("mongodb insert message: %w", err)
	}

	return message, nil
}

// ListMessages returns a room's messages created at or after cutoff, ordered
// ascending by (created_at, seq).
func (m *MongoDB) ListMessages(ctx context.Context, roomID string, cutoff time.Time) ([]entity.Message, error) {
	connection, err := m.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer m.disconnect(ctx, connection)

	db := connection.Database(m.database)

	count, err := db.Collection(roomsCollection).CountDocuments(ctx, bson.D{{Key: "_id", Value: roomID}})
	if err != nil {
		return nil, fmt.Errorf("mongodb check room: %w", err)
	}
	if count == 0 {
		return nil, entity.ErrRoomNotFound
	}

	return m.listMessagesSince(ctx, db, roomID, cutoff)
}

func (m *MongoDB) listMessages(ctx context.Context, db *mongo.Database, roomID string) ([]entity.Message, error) {
	return m.listMessagesSince(ctx, db, roomID, time.Time{})
}

func (m *MongoDB) listMessagesSince(ctx context.Context, db *mongo.Database, roomID string, cutoff time.Time) ([]entity.Message, error) {
	filter := bson.D{{Key: "room_id", Value: roomID}}
	if !cutoff.IsZero() {
		filter = append(filter, bson.E{Key: "created_at", Value: bson.D{{Key: "$gte", Value: cutoff}}})
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "seq", Value: 1}})

	cursor, err := db.Collection(messagesCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("mongodb find messages: %w", err)
	}
	defer cursor.Close(ctx)

	var messages []entity.Message
	if err = cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("mongodb decode messages: %w", err)
	}

	return messages, nil
}

// SaveAssistantUsage records token accounting for a generated reply. Callers
// treat failures as log-and-continue; metering never blocks delivery.
func (m *MongoDB) SaveAssistantUsage(ctx context.Context, usage entity.AssistantUsage) error {
	connection, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer m.disconnect(ctx, connection)

	collection := connection.Database(m.database).Collection(usageCollection)
	if _, err := collection.InsertOne(ctx, usage); err != nil {
		return fmt.Errorf("mongodb insert assistant usage: %w", err)
	}

	return nil
}
