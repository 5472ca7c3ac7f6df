package dashboard

import "sync/atomic"

// DataVersion is the generation counter for the externally mutable inputs
// of a dashboard view (annotations, anticipations, settled invoices).
// Cache keys embed the current generation, so bumping it on a write
// retires every cached view at once without a cache-side delete sweep.
type DataVersion struct {
	n atomic.Int64
}

// NewDataVersion starts at generation zero
func NewDataVersion() *DataVersion {
	return &DataVersion{}
}

// Current returns the generation embedded into new cache keys
func (v *DataVersion) Current() int64 {
	if v == nil {
		return 0
	}
	return v.n.Load()
}

// Bump moves to the next generation, orphaning keys built from the
// previous one. Orphaned entries age out through their TTL.
func (v *DataVersion) Bump() {
	if v == nil {
		return
	}
	v.n.Add(1)
}
