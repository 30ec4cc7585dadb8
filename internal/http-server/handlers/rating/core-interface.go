package rating

import (
	"context"

	"LiveCS/entity"
)

type Core interface {
	SaveRating(ctx context.Context, domainID, visitorID, rating, comment string) (*entity.SatisfactionRating, error)
	ListRatings(ctx context.Context, domainID string) ([]entity.SatisfactionRating, error)
}
