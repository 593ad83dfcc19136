package pending

import "context"

// Store holds in-flight requests keyed by correlation key.
// Entries have no expiry: they live until matched or explicitly deleted.
type Store interface {
	// Put upserts req under req.Key(), overwriting any previous entry, and
	// assigns req.Generation.
	Put(ctx context.Context, req *Request) error

	// GetAll returns a snapshot ordered by key. The caller may delete entries
	// while iterating over it.
	GetAll(ctx context.Context) ([]*Request, error)

	// Delete removes key. Deleting an absent key is a no-op.
	Delete(ctx context.Context, key string) error

	// DeleteIfGeneration removes key only if the stored entry still carries
	// generation. Returns whether an entry was removed.
	DeleteIfGeneration(ctx context.Context, key string, generation uint64) (bool, error)

	// Count returns the number of pending entries
	Count(ctx context.Context) (int, error)
}
