package classification

import (
	"time"

	"github.com/google/uuid"

	"github.com/cobranca/backend/internal/domain/shared"
)

// Feeling is the collections agent's subjective read on collectability
type Feeling string

const (
	FeelingOtima   Feeling = "OTIMA"
	FeelingBoa     Feeling = "BOA"
	FeelingNeutra  Feeling = "NEUTRA"
	FeelingRuim    Feeling = "RUIM"
	FeelingPessima Feeling = "PESSIMA"
)

// IsValid checks if the feeling is a known value
func (f Feeling) IsValid() bool {
	switch f {
	case FeelingOtima, FeelingBoa, FeelingNeutra, FeelingRuim, FeelingPessima:
		return true
	}
	return false
}

// Status is the workflow stage of the client within collections
type Status string

const (
	StatusEmNegociacao Status = "EM_NEGOCIACAO"
	StatusAcordo       Status = "ACORDO"
	StatusProtesto     Status = "PROTESTO"
	StatusJuridico     Status = "JURIDICO"
	StatusSemContato   Status = "SEM_CONTATO"
)

// IsValid checks if the status is a known value
func (s Status) IsValid() bool {
	switch s {
	case StatusEmNegociacao, StatusAcordo, StatusProtesto, StatusJuridico, StatusSemContato:
		return true
	}
	return false
}

// Author identifies the user performing a classification write
type Author struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Observation is one free-text note attached to a client. Observations are
// append-only; the author may delete their own within the grace window.
type Observation struct {
	ID            uuid.UUID `json:"id"`
	CodigoCliente string    `json:"codigo_cliente"`
	Texto         string    `json:"texto"`
	AuthorID      uuid.UUID `json:"author_id"`
	AuthorName    string    `json:"author_name"`
	CreatedAt     time.Time `json:"created_at"`
}

// DeleteGraceWindow is how long after creation an observation remains
// deletable by its author.
const DeleteGraceWindow = 2 * time.Minute

// CanDelete enforces the observation ownership rule: only the original
// author, and only within the grace window. This is a core business rule
// and must hold identically for every storage backend, so every store
// implementation routes its delete through here.
func (o *Observation) CanDelete(caller Author, now time.Time) error {
	if o.AuthorID != caller.ID {
		return shared.NewPermissionError("observation %s belongs to another author", o.ID)
	}
	if now.Sub(o.CreatedAt) > DeleteGraceWindow {
		return shared.NewPermissionError("observation %s is past the %s delete window", o.ID, DeleteGraceWindow)
	}
	return nil
}

// Annotation is the current human-entered overlay for one client. At most
// one current feeling and one current status exist per client; writes are
// upserts keyed by client code.
type Annotation struct {
	CodigoCliente string        `json:"codigo_cliente"`
	Feeling       *Feeling      `json:"feeling,omitempty"`
	Status        *Status       `json:"status,omitempty"`
	Observations  []Observation `json:"observations,omitempty"`
	UpdatedBy     string        `json:"updated_by"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// Patch is a partial annotation update. Nil fields are left untouched by
// the upsert; updating only the feeling never erases an existing status.
type Patch struct {
	Feeling *Feeling
	Status  *Status
}

// Validate rejects a patch carrying unknown enum values or nothing at all
func (p Patch) Validate() error {
	if p.Feeling == nil && p.Status == nil {
		return shared.NewValidationError("annotation patch must set feeling or status")
	}
	if p.Feeling != nil && !p.Feeling.IsValid() {
		return shared.NewValidationError("unknown feeling %q", *p.Feeling)
	}
	if p.Status != nil && !p.Status.IsValid() {
		return shared.NewValidationError("unknown status %q", *p.Status)
	}
	return nil
}

// Apply merges the patch into the annotation, last write wins per field
func (a *Annotation) Apply(p Patch, author Author, now time.Time) {
	if p.Feeling != nil {
		a.Feeling = p.Feeling
	}
	if p.Status != nil {
		a.Status = p.Status
	}
	a.UpdatedBy = author.Name
	a.UpdatedAt = now
}

// AuditRow records one classification write for history queries
type AuditRow struct {
	ID            uuid.UUID `json:"id"`
	CodigoCliente string    `json:"codigo_cliente"`
	Action        string    `json:"action"`
	Detail        string    `json:"detail"`
	AuthorID      uuid.UUID `json:"author_id"`
	AuthorName    string    `json:"author_name"`
	CreatedAt     time.Time `json:"created_at"`
}

// Audit actions
const (
	AuditActionUpsert            = "ANNOTATION_UPSERT"
	AuditActionObservationAdd    = "OBSERVATION_ADD"
	AuditActionObservationDelete = "OBSERVATION_DELETE"
)
