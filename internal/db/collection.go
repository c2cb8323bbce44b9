package db

import (
	"context"

	"github.com/ukydev/triptap-rides/internal/handoff"
)

// HandoffCollection is the hand-off store surface the rider client depends on.
// Both MongoHandoffStore and RedisHandoffStore satisfy it.
type HandoffCollection interface {
	handoff.Store
	Close(ctx context.Context) error
}

var (
	_ HandoffCollection = (*MongoHandoffStore)(nil)
	_ HandoffCollection = (*RedisHandoffStore)(nil)
)
