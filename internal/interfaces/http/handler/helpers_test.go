package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/cobranca/backend/internal/application/dashboard"
	"github.com/cobranca/backend/internal/domain/anticipation"
	"github.com/cobranca/backend/internal/domain/classification"
	"github.com/cobranca/backend/internal/domain/receivable"
	"github.com/cobranca/backend/internal/domain/shared"
	"github.com/cobranca/backend/internal/infrastructure/auth"
	"github.com/cobranca/backend/internal/interfaces/http/dto"
	"github.com/cobranca/backend/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testAuthorID = uuid.MustParse("7b4a2f10-93cd-4f6e-8a4d-2f0f6c1d9e01")

// routeRegistrar mirrors the router contract so the helpers accept any handler
type routeRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// authAs injects JWT claims the way the auth middleware would
func authAs(id uuid.UUID, name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.JWTClaimsKey, &auth.Claims{UserID: id.String(), Username: name})
		c.Next()
	}
}

func newHandlerRouter(t *testing.T, h routeRegistrar, mw ...gin.HandlerFunc) *gin.Engine {
	t.Helper()
	r := gin.New()
	api := r.Group("/api/v1")
	api.Use(mw...)
	h.RegisterRoutes(api)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// fakeClassificationStore is an in-memory classification.Store
type fakeClassificationStore struct {
	annotations  map[string]*classification.Annotation
	observations map[string]*classification.Observation
	audit        []classification.AuditRow
	now          func() time.Time
	failWith     error
}

func newFakeClassificationStore() *fakeClassificationStore {
	return &fakeClassificationStore{
		annotations:  make(map[string]*classification.Annotation),
		observations: make(map[string]*classification.Observation),
		now:          time.Now,
	}
}

func (f *fakeClassificationStore) UpsertAnnotation(_ context.Context, codigoCliente string, patch classification.Patch, author classification.Author) (*classification.Annotation, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	ann, ok := f.annotations[codigoCliente]
	if !ok {
		ann = &classification.Annotation{CodigoCliente: codigoCliente}
		f.annotations[codigoCliente] = ann
	}
	ann.Apply(patch, author, f.now())
	f.audit = append(f.audit, classification.AuditRow{
		ID:            uuid.New(),
		CodigoCliente: codigoCliente,
		Action:        classification.AuditActionUpsert,
		AuthorID:      author.ID,
		AuthorName:    author.Name,
		CreatedAt:     f.now(),
	})
	out := *ann
	return &out, nil
}

func (f *fakeClassificationStore) ListAnnotations(_ context.Context) ([]classification.Annotation, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	out := make([]classification.Annotation, 0, len(f.annotations))
	for _, ann := range f.annotations {
		out = append(out, *ann)
	}
	return out, nil
}

func (f *fakeClassificationStore) AppendObservation(_ context.Context, codigoCliente, texto string, author classification.Author) (*classification.Observation, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	obs := &classification.Observation{
		ID:            uuid.New(),
		CodigoCliente: codigoCliente,
		Texto:         texto,
		AuthorID:      author.ID,
		AuthorName:    author.Name,
		CreatedAt:     f.now(),
	}
	f.observations[obs.ID.String()] = obs
	f.audit = append(f.audit, classification.AuditRow{
		ID:            uuid.New(),
		CodigoCliente: codigoCliente,
		Action:        classification.AuditActionObservationAdd,
		Detail:        texto,
		AuthorID:      author.ID,
		AuthorName:    author.Name,
		CreatedAt:     f.now(),
	})
	out := *obs
	return &out, nil
}

func (f *fakeClassificationStore) DeleteObservation(_ context.Context, observationID string, caller classification.Author) error {
	if f.failWith != nil {
		return f.failWith
	}
	obs, ok := f.observations[observationID]
	if !ok {
		return shared.ErrNotFound
	}
	if err := obs.CanDelete(caller, f.now()); err != nil {
		return err
	}
	delete(f.observations, observationID)
	return nil
}

func (f *fakeClassificationStore) FetchHistory(_ context.Context, codigoCliente string) ([]classification.AuditRow, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	out := make([]classification.AuditRow, 0, len(f.audit))
	for i := len(f.audit) - 1; i >= 0; i-- {
		row := f.audit[i]
		if codigoCliente != "" && row.CodigoCliente != codigoCliente {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

// fakeAnticipationStore is an in-memory anticipation.Store
type fakeAnticipationStore struct {
	events   []anticipation.Event
	failWith error
}

func (f *fakeAnticipationStore) Upsert(_ context.Context, events []anticipation.Event) error {
	if f.failWith != nil {
		return f.failWith
	}
	for _, ev := range events {
		replaced := false
		for i := range f.events {
			if f.events[i].Key == ev.Key {
				f.events[i] = ev
				replaced = true
				break
			}
		}
		if !replaced {
			f.events = append(f.events, ev)
		}
	}
	return nil
}

func (f *fakeAnticipationStore) ListAll(_ context.Context) ([]anticipation.Event, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	out := make([]anticipation.Event, len(f.events))
	copy(out, f.events)
	return out, nil
}

// fakeInvoiceFeed serves one fixed payload for every branch
type fakeInvoiceFeed struct {
	payload []byte
	err     error
}

func (f *fakeInvoiceFeed) FetchInvoices(_ context.Context, _ dashboard.FeedQuery) ([]byte, error) {
	return f.payload, f.err
}

// fakePersonFeed serves fixed enrichment rows
type fakePersonFeed struct {
	persons []receivable.PersonInfo
	err     error
}

func (f *fakePersonFeed) FetchPersons(_ context.Context, _ []string) ([]receivable.PersonInfo, error) {
	return f.persons, f.err
}

func requireErrorCode(t *testing.T, w *httptest.ResponseRecorder, wantStatus int, wantCode string) {
	t.Helper()
	require.Equal(t, wantStatus, w.Code)
	resp := decodeEnvelope(t, w)
	require.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	require.Equal(t, wantCode, resp.Error.Code)
}
