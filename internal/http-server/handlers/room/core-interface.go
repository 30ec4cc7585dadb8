package room

import (
	"context"

	"LiveCS/entity"
)

type Core interface {
	ListMessages(ctx context.Context, roomID string) ([]entity.Message, error)
	DeleteRoom(ctx context.Context, roomID string) error
}
