package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"LiveCS/entity"
)

func (m *MongoDB) SaveRating(ctx context.Context, rating *entity.SatisfactionRating) error {
	connection, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer m.disconnect(ctx, connection)

	collection := connection.Database(m.database).Collection(ratingsCollection)
	if _, err := collection.InsertOne(ctx, rating); err != nil {
		return fmt.Errorf("mongodb insert rating: %w", err)
	}

	return nil
}

func (m *MongoDB) ListRatings(ctx context.Context, domainID string) ([]entity.SatisfactionRating, error) {
	connection, err := m.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer m.disconnect(ctx, connection)

	collection := connection.Database(m.database).Collection(ratingsCollection)
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := collection.Find(ctx, bson.D{{Key: "domain_id", Value: domainID}}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongodb find ratings: %w", err)
	}
	defer cursor.Close(ctx)

	var ratings []entity.SatisfactionRating
	if err = cursor.All(ctx, &ratings); err != nil {
		return nil, fmt.Errorf("mongodb decode ratings: %w", err)
	}

	return ratings, nil
}
