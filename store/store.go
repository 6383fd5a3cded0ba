// Package store provides durable keyed persistence for payment requests.
// Implementations must persist every write synchronously with respect to the
// caller: when Put or Merge returns nil, an immediate Get observes the write.
package store

import (
	"context"

	"github.com/flarepay/paylink/types"
)

// Store is the single shared mutable resource of the library. All writes go
// through the lifecycle controller; reads may happen concurrently and must
// return consistent, never partially-written records.
type Store interface {
	// Put inserts or fully replaces a record by ID.
	Put(ctx context.Context, rec *types.PaymentRequest) error

	// Merge applies a partial update to an existing record and returns the
	// merged result. Fails with NOT_FOUND when the ID is absent. The patch is
	// applied atomically: concurrent merges on the same ID cannot leave a
	// record holding half of either write.
	Merge(ctx context.Context, id string, patch types.PaymentPatch) (*types.PaymentRequest, error)

	// Get returns the record or NOT_FOUND.
	Get(ctx context.Context, id string) (*types.PaymentRequest, error)

	// List returns all records matching the filter, from a single consistent
	// snapshot. Order is stable within one call.
	List(ctx context.Context, filter types.ListFilter) ([]*types.PaymentRequest, error)
}

func notFound(id string) *types.Error {
	return types.Errorf(types.ErrNotFound, "payment request %s not found", id)
}

func unavailable(op string, err error) *types.Error {
	return types.WrapError(types.ErrStorageUnavailable, "store "+op+" failed", err)
}
