package classification

import "context"

// Store is the read/write contract the aggregation engine relies on for
// human-entered classifications. The backing engine is out of scope; the
// upsert conflict target (client code) and the observation ownership rule
// are part of this contract regardless of backend.
type Store interface {
	// UpsertAnnotation merges the patch into the client's current
	// annotation, creating it if absent. Partial updates keep the
	// last-known values of fields the patch does not set.
	UpsertAnnotation(ctx context.Context, codigoCliente string, patch Patch, author Author) (*Annotation, error)

	// ListAnnotations returns the current annotation of every client that
	// has one, observations included. This is the read snapshot the
	// aggregator overlays onto invoice groups.
	ListAnnotations(ctx context.Context) ([]Annotation, error)

	// AppendObservation adds a free-text note to the client's annotation
	AppendObservation(ctx context.Context, codigoCliente, texto string, author Author) (*Observation, error)

	// DeleteObservation removes an observation. Fails with a permission
	// error when the caller is not the author or the grace window has
	// elapsed; the store is left unchanged in that case.
	DeleteObservation(ctx context.Context, observationID string, caller Author) error

	// FetchHistory returns all classification writes, newest first,
	// optionally scoped to one client (empty string = all clients).
	FetchHistory(ctx context.Context, codigoCliente string) ([]AuditRow, error)
}

// Snapshot indexes a ListAnnotations result by client code for O(1) overlay
// during aggregation.
func Snapshot(annotations []Annotation) map[string]*Annotation {
	byClient := make(map[string]*Annotation, len(annotations))
	for i := range annotations {
		byClient[annotations[i].CodigoCliente] = &annotations[i]
	}
	return byClient
}
