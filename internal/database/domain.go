package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"LiveCS/entity"
)

// GetDomain loads a tenant record. Domains are managed elsewhere; this core
// only reads them.
func (m *MongoDB) GetDomain(ctx context.Context, domainID string) (*entity.Domain, error) {
	connection, err := m.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer m.disconnect(ctx, connection)

	collection := connection.Database(m.database).Collection(domainsCollection)
	filter := bson.D{{Key: "_id", Value: domainID}}

	var domain entity.Domain
	err = collection.FindOne(ctx, filter).Decode(&domain)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, entity.ErrDomainNotFound
		}
		return nil, fmt.Errorf("mongodb find domain: %w", err)
	}

	return &domain, nil
}

// ListDomains returns every tenant. The sweeper walks this to apply each
// domain's own retention window.
func (m *MongoDB) ListDomains(ctx context.Context) ([]entity.Domain, error) {
	connection, err := m.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer m.disconnect(ctx, connection)

	collection := connection.Database(m.database).Collection(domainsCollection)

	cursor, err := collection.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("mongodb find domains: %w", err)
	}
	defer cursor.Close(ctx)

	var domains []entity.Domain
	if err = cursor.All(ctx, &domains); err != nil {
		return nil, fmt.Errorf("mongodb decode domains: %w", err)
	}

	return domains, nil
}
