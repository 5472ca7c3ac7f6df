package anticipation

import "context"

// Store persists anticipation events. Upserts conflict on the composite
// key; reads return every registered event so the reconciliation index can
// be rebuilt.
type Store interface {
	// Upsert writes the given events, updating rows whose composite key
	// already exists (bank reassignment) and inserting the rest.
	Upsert(ctx context.Context, events []Event) error

	// ListAll returns every registered anticipation event
	ListAll(ctx context.Context) ([]Event, error)
}
