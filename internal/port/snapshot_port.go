package port

import (
	"context"
)

// SnapshotRepository is the key-value store holding serialized carts.
// Get reports found=false when nothing is stored under key.
type SnapshotRepository interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key string, value string) error
}
