package portal

import (
	"context"

	"LiveCS/entity"
	"LiveCS/impl/core"
)

type Core interface {
	Resolve(ctx context.Context, domainID, sourceIP string) (*core.Resolution, error)
	SubmitProfile(ctx context.Context, domainID, sourceIP string, profile entity.Profile) (*core.Resolution, error)
}
