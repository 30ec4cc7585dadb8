package core

import (
	"context"
	"fmt"

	"LiveCS/entity"
)

// SaveRating records end-of-conversation feedback. The domain must exist;
// the visitor id is the widget's anonymous identifier, not a customer uuid.
func (c *Core) SaveRating(ctx context.Context, domainID, visitorID, rating, comment string) (*entity.SatisfactionRating, error) {
	value, err := entity.ParseRatingValue(rating)
	if err != nil {
		return nil, err
	}
	if visitorID == "" {
		return nil, fmt.Errorf("%w: missing visitor id", entity.ErrInvalidInput)
	}

	if _, err := c.repo.GetDomain(ctx, domainID); err != nil {
		return nil, err
	}

	record := entity.NewSatisfactionRating(domainID, visitorID, value, comment)
	if err := c.repo.SaveRating(ctx, record); err != nil {
		return nil, err
	}

	return record, nil
}

func (c *Core) ListRatings(ctx context.Context, domainID string) ([]entity.SatisfactionRating, error) {
	if _, err := c.repo.GetDomain(ctx, domainID); err != nil {
		return nil, err
	}
	return c.repo.ListRatings(ctx, domainID)
}
