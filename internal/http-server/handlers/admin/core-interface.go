package admin

import (
	"context"
	"time"

	"LiveCS/entity"
)

type Core interface {
	Sweep(ctx context.Context) (entity.SweepStats, error)
	SweepBefore(ctx context.Context, cutoff time.Time) (entity.SweepStats, error)
}
