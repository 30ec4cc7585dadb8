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

// FindCustomerByIP returns the most recent customer for (domain, ip) created
// at or after cutoff, or ErrCustomerNotFound. Older matches are ignored, not
// merged.
func (m *MongoDB) FindCustomerByIP(ctx context.Context, domainID, ip string, cutoff time.Time) (*entity.Customer, error) {
	connection, err := m.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer m.disconnect(ctx, connection)

	collection := connection.Database(m.database).Collection(customersCollection)
	filter := bson.D{
		{Key: "domain_id", Value: domainID},
		{Key: "ip_address", Value: ip},
		{Key: "created_at", Value: bson.D{{Key: "$gte", Value: cutoff}}},
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})

	var customer entity.Customer
	err = collection.FindOne(ctx, filter, opts).Decode(&customer)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, entity.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("mongodb find customer: %w", err)
	}

	return &customer, nil
}

func (m *MongoDB) GetCustomer(ctx context.Context, customerID string) (*entity.Customer, error) {
	connection, err := m.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer m.disconnect(ctx, connection)

	collection := connection.Database(m.database).Collection(customersCollection)

	var customer entity.Customer
	err = collection.FindOne(ctx, bson.D{{Key: "_id", Value: customerID}}).Decode(&customer)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, entity.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("mongodb find customer: %w", err)
	}

	return &customer, nil
}

// CreateCustomerWithRoom inserts a customer and its first chat room in a
// single transaction. Either both exist afterwards or neither does.
func (m *MongoDB) CreateCustomerWithRoom(ctx context.Context, customer *entity.Customer, room *entity.ChatRoom) error {
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
		if _, err := db.Collection(customersCollection).InsertOne(sc, customer); err != nil {
			return nil, fmt.Errorf("insert customer: %w", err)
		}
		if _, err := db.Collection(roomsCollection).InsertOne(sc, room); err != nil {
			return nil, fmt.Errorf("insert room: %w", err)
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("mongodb create customer with room: %w", err)
	}

	return nil
}

// UpdateCustomerProfile enriches an existing customer with freshly submitted
// contact fields. Empty fields are left untouched.
func (m *MongoDB) UpdateCustomerProfile(ctx context.Context, customerID string, profile entity.Profile) error {
	if profile.Empty() {
		return nil
	}

	connection, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer m.disconnect(ctx, connection)

	set := bson.D{}
	if profile.Name != "" {
		set = append(set, bson.E{Key: "name", Value: profile.Name})
	}
	if profile.Email != "" {
		set = append(set, bson.E{Key: "email", Value: profile.Email})
	}
	if profile.Phone != "" {
		set = append(set, bson.E{Key: "phone", Value: profile.Phone})
	}
	if profile.CountryCode != "" {
		set = append(set, bson.E{Key: "country_code", Value: profile.CountryCode})
	}

	collection := connection.Database(m.database).Collection(customersCollection)
	result, err := collection.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: customerID}},
		bson.D{{Key: "$set", Value: set}},
	)
	if err != nil {
		return fmt.Errorf("mongodb update customer profile: %w", err)
	}
	if result.MatchedCount == 0 {
		return entity.ErrCustomerNotFound
	}

	return nil
}
