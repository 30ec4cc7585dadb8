package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type RatingValue string

const (
	RatingPositive RatingValue = "positive"
	RatingNegative RatingValue = "negative"
)

func ParseRatingValue(s string) (RatingValue, error) {
	switch RatingValue(s) {
	case RatingPositive, RatingNegative:
		return RatingValue(s), nil
	}
	return "", fmt.Errorf("%w: unknown rating %q", ErrInvalidInput, s)
}

// SatisfactionRating is end-of-conversation feedback keyed by an anonymous
// visitor id. Created on demand, never updated.
type SatisfactionRating struct {
	UUID      string      `json:"uuid" bson:"_id"`
	DomainID  string      `json:"domain_id" bson:"domain_id"`
	VisitorID string      `json:"visitor_id" bson:"visitor_id"`
	Rating    RatingValue `json:"rating" bson:"rating"`
	Comment   string      `json:"comment" bson:"comment"`
	CreatedAt time.Time   `json:"created_at" bson:"created_at"`
}

func NewSatisfactionRating(domainID, visitorID string, rating RatingValue, comment string) *SatisfactionRating {
	return &SatisfactionRating{
		UUID:      uuid.NewString(),
		DomainID:  domainID,
		VisitorID: visitorID,
		Rating:    rating,
		Comment:   comment,
		CreatedAt: time.Now(),
	}
}
