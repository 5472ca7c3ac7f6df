package anticipation

import (
	"github.com/cobranca/backend/internal/domain/receivable"
)

// Reconciler answers "was this invoice anticipated, and where" in O(1)
// against a prebuilt composite-key index. Scanning the event list per
// invoice degrades quadratically at current data volumes, so the index
// is built once per event load and queried from then on.
type Reconciler struct {
	byKey map[receivable.CompositeKey]Event
}

// NewReconciler indexes the given events by composite key. Duplicate keys
// overwrite: the last registered event wins, consistent with the store's
// upsert semantics.
func NewReconciler(events []Event) *Reconciler {
	byKey := make(map[receivable.CompositeKey]Event, len(events))
	for _, ev := range events {
		byKey[ev.Key] = ev
	}
	return &Reconciler{byKey: byKey}
}

// IsAnticipated reports whether the invoice was registered at any bank
func (r *Reconciler) IsAnticipated(key receivable.CompositeKey) bool {
	_, ok := r.byKey[key]
	return ok
}

// BankOf returns the bank the invoice is currently assigned to
func (r *Reconciler) BankOf(key receivable.CompositeKey) (string, bool) {
	ev, ok := r.byKey[key]
	if !ok {
		return "", false
	}
	return ev.Banco, true
}

// EventOf returns the full registered event for an invoice
func (r *Reconciler) EventOf(key receivable.CompositeKey) (Event, bool) {
	ev, ok := r.byKey[key]
	return ev, ok
}

// Len returns the number of indexed invoices
func (r *Reconciler) Len() int {
	return len(r.byKey)
}

// Compile-time check: the reconciler satisfies the filter pipeline's lookup
var _ receivable.AnticipationLookup = (*Reconciler)(nil)
