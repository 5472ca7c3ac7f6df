package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cobranca/backend/internal/domain/anticipation"
	"github.com/cobranca/backend/internal/domain/classification"
	"github.com/cobranca/backend/internal/domain/shared"
)

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

type fakeClassificationStore struct {
	classification.Store
	annotations []classification.Annotation
	err         error
}

func (f *fakeClassificationStore) ListAnnotations(context.Context) ([]classification.Annotation, error) {
	return f.annotations, f.err
}

func (f *fakeClassificationStore) UpsertAnnotation(_ context.Context, codigo string, patch classification.Patch, author classification.Author) (*classification.Annotation, error) {
	if f.err != nil {
		return nil, f.err
	}
	ann := classification.Annotation{CodigoCliente: codigo}
	ann.Apply(patch, author, time.Now())
	f.annotations = append(f.annotations, ann)
	return &ann, nil
}

type fakeAnticipationStore struct {
	events []anticipation.Event
	err    error
}

func (f *fakeAnticipationStore) Upsert(_ context.Context, events []anticipation.Event) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, events...)
	return nil
}

func (f *fakeAnticipationStore) ListAll(context.Context) ([]anticipation.Event, error) {
	return f.events, f.err
}

type memoryCache struct {
	mu    sync.Mutex
	items map[string][]byte
	sets  int
	gets  int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: make(map[string][]byte)}
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	v, ok := c.items[key]
	return v, ok
}

func (c *memoryCache) Set(_ context.Context, key string, payload []byte, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.items[key] = payload
}

func newTestService(t *testing.T, feed *fakeInvoiceFeed, opts ...Option) *Service {
	t.Helper()
	ingest := NewIngestService(feed, &fakePersonFeed{}, zap.NewNop())
	return NewService(ingest, &fakeClassificationStore{}, &fakeAnticipationStore{}, zap.NewNop(), opts...)
}

func TestService_SearchClients_RequiresBranchSelection(t *testing.T) {
	svc := newTestService(t, &fakeInvoiceFeed{})

	_, err := svc.SearchClients(context.Background(), SearchRequest{})

	require.Error(t, err)
	assert.True(t, shared.IsValidationError(err))
}

func TestService_SearchClients_UnknownProfile(t *testing.T) {
	svc := newTestService(t, &fakeInvoiceFeed{})

	_, err := svc.SearchClients(context.Background(), SearchRequest{
		Profile:  "nonexistent",
		Branches: []string{"01"},
	})

	require.Error(t, err)
	assert.True(t, shared.IsValidationError(err))
}

func TestService_SearchClients_AssemblesView(t *testing.T) {
	feed := &fakeInvoiceFeed{payloads: map[string][]byte{
		"01": invoicePayload("C1", "C2"),
	}}
	svc := newTestService(t, feed)

	view, err := svc.SearchClients(context.Background(), SearchRequest{Branches: []string{"01"}})

	require.NoError(t, err)
	assert.Equal(t, 2, view.Clientes.Total)
	assert.True(t, view.Metrics.ValorFaturado.Equal(mustDecimal(t, "200")))
}

func TestService_SearchClients_SnapshotFailureDegrades(t *testing.T) {
	feed := &fakeInvoiceFeed{payloads: map[string][]byte{
		"01": invoicePayload("C1"),
	}}
	ingest := NewIngestService(feed, &fakePersonFeed{}, zap.NewNop())
	svc := NewService(ingest,
		&fakeClassificationStore{err: errors.New("db down")},
		&fakeAnticipationStore{err: errors.New("db down")},
		zap.NewNop())

	view, err := svc.SearchClients(context.Background(), SearchRequest{Branches: []string{"01"}})

	require.NoError(t, err)
	require.Equal(t, 1, view.Clientes.Total)
	assert.Nil(t, view.Clientes.Items[0].Annotation)
}

func TestService_SearchClients_CachesByRequest(t *testing.T) {
	feed := &fakeInvoiceFeed{payloads: map[string][]byte{
		"01": invoicePayload("C1"),
	}}
	cache := newMemoryCache()
	ingest := NewIngestService(feed, &fakePersonFeed{}, zap.NewNop())
	svc := NewService(ingest, &fakeClassificationStore{}, &fakeAnticipationStore{}, zap.NewNop(),
		WithCache(cache, time.Minute))

	req := SearchRequest{Branches: []string{"01"}}

	first, err := svc.SearchClients(context.Background(), req)
	require.NoError(t, err)
	callsAfterFirst := len(feed.calls)

	second, err := svc.SearchClients(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, first.Metrics.ValorFaturado.Equal(second.Metrics.ValorFaturado))
	assert.True(t, first.Metrics.ValorAPagar.Equal(second.Metrics.ValorAPagar))
	assert.True(t, first.Metrics.PMCR.Equal(second.Metrics.PMCR))
	assert.Equal(t, first.Clientes.Total, second.Clientes.Total)
	assert.Equal(t, callsAfterFirst, len(feed.calls), "cache hit must not touch the feed")
	assert.Equal(t, 1, cache.sets)
}

func TestService_SearchClients_AnnotationWriteInvalidatesCache(t *testing.T) {
	feed := &fakeInvoiceFeed{payloads: map[string][]byte{
		"01": invoicePayload("C1"),
	}}
	cache := newMemoryCache()
	version := NewDataVersion()
	store := &fakeClassificationStore{}
	ingest := NewIngestService(feed, &fakePersonFeed{}, zap.NewNop())
	svc := NewService(ingest, store, &fakeAnticipationStore{}, zap.NewNop(),
		WithCache(cache, time.Minute),
		WithDataVersion(version))
	clsSvc := NewClassificationService(store, zap.NewNop(), ClassifyWithDataVersion(version))

	req := SearchRequest{Branches: []string{"01"}}

	first, err := svc.SearchClients(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, 1, first.Clientes.Total)
	require.Nil(t, first.Clientes.Items[0].Annotation)

	feeling := classification.FeelingBoa
	_, err = clsSvc.Classify(context.Background(), "C1",
		classification.Patch{Feeling: &feeling},
		classification.Author{Name: "maria.cobranca"})
	require.NoError(t, err)

	second, err := svc.SearchClients(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, 1, second.Clientes.Total)
	require.NotNil(t, second.Clientes.Items[0].Annotation, "view assembled before the write must not be served after it")
	assert.Equal(t, feeling, *second.Clientes.Items[0].Annotation.Feeling)
	assert.Equal(t, 2, cache.sets, "post-write search runs the pipeline under a new key")
}

func TestService_SearchInvoices_FlatView(t *testing.T) {
	feed := &fakeInvoiceFeed{payloads: map[string][]byte{
		"01": invoicePayload("C1", "C2", "C3"),
	}}
	svc := newTestService(t, feed)

	view, err := svc.SearchInvoices(context.Background(), SearchRequest{
		Profile:  ProfileEmissao,
		Branches: []string{"01"},
	})

	require.NoError(t, err)
	assert.Equal(t, 3, view.Faturas.Total)
}

func TestService_Window_DefaultsToProfileLookback(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc := newTestService(t, &fakeInvoiceFeed{}, WithClock(func() time.Time { return now }))

	profiles := BuiltinProfiles()
	from, to := svc.window(SearchRequest{}, profiles[ProfileEmissao], now)

	assert.Equal(t, now, to)
	assert.Equal(t, now.Add(-365*24*time.Hour), from)

	override := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	from, _ = svc.window(SearchRequest{From: &override}, profiles[ProfileEmissao], now)
	assert.Equal(t, override, from)
}
