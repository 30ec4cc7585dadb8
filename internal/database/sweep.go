package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"LiveCS/entity"
)

// SweepBefore purges data older than cutoff across every tenant. Admin
// override path; the scheduled sweep goes tenant by tenant through
// SweepDomainBefore so per-domain retention windows hold.
func (m *MongoDB) SweepBefore(ctx context.Context, cutoff time.Time) (entity.SweepStats, error) {
	return m.sweep(ctx, cutoff, bson.D{})
}

// SweepDomainBefore purges one tenant's data older than cutoff.
func (m *MongoDB) SweepDomainBefore(ctx context.Context, domainID string, cutoff time.Time) (entity.SweepStats, error) {
	return m.sweep(ctx, cutoff, bson.D{{Key: "domain_id", Value: domainID}})
}

// sweep purges rooms matching scope created before cutoff together with every
// message they own, then scoped customers created before cutoff that have no
// rooms left. The whole batch runs in one transaction so a failure leaves no
// partial state; a customer is never deleted while still owning a room.
func (m *MongoDB) sweep(ctx context.Context, cutoff time.Time, scope bson.D) (entity.SweepStats, error) {
	var stats entity.SweepStats

	connection, err := m.connect(ctx)
	if err != nil {
		return stats, err
	}
	defer m.disconnect(ctx, connection)

	session, err := connection.StartSession()
	if err != nil {
		return stats, fmt.Errorf("mongodb start session: %w", err)
	}
	defer session.EndSession(ctx)

	var sweptRooms []interface{}

	db := connection.Database(m.database)
	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		staleFilter := append(bson.D{{Key: "created_at", Value: bson.D{{Key: "$lt", Value: cutoff}}}}, scope...)

		roomIDs, err := db.Collection(roomsCollection).Distinct(sc, "_id", staleFilter)
		if err != nil {
			return nil, fmt.Errorf("list stale rooms: %w", err)
		}

		if len(roomIDs) > 0 {
			deleted, err := db.Collection(messagesCollection).DeleteMany(sc,
				bson.D{{Key: "room_id", Value: bson.D{{Key: "$in", Value: roomIDs}}}})
			if err != nil {
				return nil, fmt.Errorf("delete stale messages: %w", err)
			}
			stats.Messages = deleted.DeletedCount

			rooms, err := db.Collection(roomsCollection).DeleteMany(sc,
				bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: roomIDs}}}})
			if err != nil {
				return nil, fmt.Errorf("delete stale rooms: %w", err)
			}
			stats.Rooms = rooms.DeletedCount
			sweptRooms = roomIDs
		}

		// Customers still owning a room survive regardless of age.
		owners, err := db.Collection(roomsCollection).Distinct(sc, "customer_id", scope)
		if err != nil {
			return nil, fmt.Errorf("list room owners: %w", err)
		}

		customerFilter := append(bson.D{
			{Key: "created_at", Value: bson.D{{Key: "$lt", Value: cutoff}}},
			{Key: "_id", Value: bson.D{{Key: "$nin", Value: owners}}},
		}, scope...)
		customers, err := db.Collection(customersCollection).DeleteMany(sc, customerFilter)
		if err != nil {
			return nil, fmt.Errorf("delete stale customers: %w", err)
		}
		stats.Customers = customers.DeletedCount

		return nil, nil
	})
	if err != nil {
		return entity.SweepStats{}, fmt.Errorf("mongodb sweep: %w", err)
	}

	for _, id := range sweptRooms {
		if roomID, ok := id.(string); ok {
			m.rooms.forget(roomID)
		}
	}

	return stats, nil
}
