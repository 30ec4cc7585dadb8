package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"LiveCS/entity"
)

func (m *MongoDB) GetRoom(ctx context.Context, roomID string) (*entity.ChatRoom, error) {
	connection, err := m.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer m.disconnect(ctx, connection)

	collection := connection.Database(m.database).Collection(roomsCollection)

	var room entity.ChatRoom
	err = collection.FindOne(ctx, bson.D{{Key: "_id", Value: roomID}}).Decode(&room)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, entity.ErrRoomNotFound
		}
		return nil, fmt.Errorf("mongodb find room: %w", err)
	}

	return &room, nil
}

func (m *MongoDB) CreateRoom(ctx context.Context, room *entity.ChatRoom) error {
	connection, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer m.disconnect(ctx, connection)

	collection := connection.Database(m.database).Collection(roomsCollection)
	if _, err := collection.InsertOne(ctx, room); err != nil {
		return fmt.Errorf("mongodb insert room: %w", err)
	}

	return nil
}

// ListRoomsForCustomer returns the customer's rooms created at or after
// cutoff, newest first, each prefetched with its messages oldest first.
func (m *MongoDB) ListRoomsForCustomer(ctx context.Context, customerID string, cutoff time.Time) ([]entity.ChatRoom, error) {
	connection, err := m.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer m.disconnect(ctx, connection)

	db := connection.Database(m.database)

	filter := bson.D{
		{Key: "customer_id", Value: customerID},
		{Key: "created_at", Value: bson.D{{Key: "$gte", Value: cutoff}}},
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := db.Collection(roomsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("mongodb find rooms: %w", err)
	}
	defer cursor.Close(ctx)

	var rooms []entity.ChatRoom
	if err = cursor.All(ctx, &rooms); err != nil {
		return nil, fmt.Errorf("mongodb decode rooms: %w", err)
	}

	for i := range rooms {
		messages, err := m.listMessages(ctx, db, rooms[i].UUID)
		if err != nil {
			return nil, err
		}
		rooms[i].Messages = messages
	}

	return rooms, nil
}

// SetRoomLive flags whether an operator is actively monitoring the room. A
// live room suspends automatic assistant replies.
func (m *MongoDB) SetRoomLive(ctx context.Context, roomID string, live bool) error {
	connection, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer m.disconnect(ctx, connection)

	collection := connection.Database(m.database).Collection(roomsCollection)
	result, err := collection.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: roomID}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "live", Value: live}}}},
	)
	if err != nil {
		return fmt.Errorf("mongodb set room live: %w", err)
	}
	if result.MatchedCount == 0 {
		return entity.ErrRoomNotFound
	}

	return nil
}

// DeleteRoom removes a room and all its messages. Explicit operator deletion;
// the sweeper has its own path.
func (m *MongoDB) DeleteRoom(ctx context.Context, roomID string) error {
	connection, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer m.disconnect(ctx, connection)

	session, err := connection.StartSession()
	if err != nil {
		return fmt.Errorf("mongodb start session: %w", err)
	}
	defer session.EndSession(ctx)

	db := connection.Database(m.database)
	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		if _, err := db.Collection(messagesCollection).DeleteMany(sc, bson.D{{Key: "room_id", Value: roomID}}); err != nil {
			return nil, fmt.Errorf("delete messages: %w", err)
		}
		result, err := db.Collection(roomsCollection).DeleteOne(sc, bson.D{{Key: "_id", Value: roomID}})
		if err != nil {
			return nil, fmt.Errorf("delete room: %w", err)
		}
		if result.DeletedCount == 0 {
			return nil, entity.ErrRoomNotFound
		}
		return nil, nil
	})
	if err != nil {
		if errors.Is(err, entity.ErrRoomNotFound) {
			return entity.ErrRoomNotFound
		}
		return fmt.Errorf("mongodb delete room: %w", err)
	}

	m.rooms.forget(roomID)

	return nil
}
