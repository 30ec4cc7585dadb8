package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LiveCS/entity"
)

func TestSaveRating(t *testing.T) {
	ctx := context.Background()

	t.Run("stores valid feedback", func(t *testing.T) {
		repo := newFakeRepo()
		seedDomain(repo, "d1", nil)
		c := newTestCore(repo)

		record, err := c.SaveRating(ctx, "d1", "visitor-1", "positive", "quick answer")
		require.NoError(t, err)
		assert.Equal(t, entity.RatingPositive, record.Rating)
		assert.NotEmpty(t, record.UUID)

		list, err := c.ListRatings(ctx, "d1")
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "quick answer", list[0].Comment)
	})

	t.Run("rejects an unknown rating value", func(t *testing.T) {
		repo := newFakeRepo()
		seedDomain(repo, "d1", nil)
		c := newTestCore(repo)

		_, err := c.SaveRating(ctx, "d1", "visitor-1", "meh", "")
		assert.ErrorIs(t, err, entity.ErrInvalidInput)
	})

	t.Run("rejects a missing visitor id", func(t *testing.T) {
		repo := newFakeRepo()
		seedDomain(repo, "d1", nil)
		c := newTestCore(repo)

		_, err := c.SaveRating(ctx, "d1", "", "negative", "")
		assert.ErrorIs(t, err, entity.ErrInvalidInput)
	})

	t.Run("rejects an unknown domain", func(t *testing.T) {
		c := newTestCore(newFakeRepo())

		_, err := c.SaveRating(ctx, "missing", "visitor-1", "positive", "")
		assert.ErrorIs(t, err, entity.ErrDomainNotFound)
	})
}

func TestListRatings(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	seedDomain(repo, "d1", nil)
	seedDomain(repo, "d2", nil)
	c := newTestCore(repo)

	_, err := c.SaveRating(ctx, "d1", "v1", "positive", "")
	require.NoError(t, err)
	_, err = c.SaveRating(ctx, "d2", "v2", "negative", "")
	require.NoError(t, err)

	list, err := c.ListRatings(ctx, "d1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "v1", list[0].VisitorID)
}
