package dashboard

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cobranca/backend/internal/domain/anticipation"
	"github.com/cobranca/backend/internal/domain/classification"
	"github.com/cobranca/backend/internal/domain/receivable"
	"github.com/cobranca/backend/internal/domain/shared"
	"github.com/cobranca/backend/internal/infrastructure/telemetry"
)

// ViewCache memoizes assembled dashboard payloads. Implementations are
// free to evict at will; a miss just means re-running the pipeline.
type ViewCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration)
}

// SearchRequest is one dashboard query as it arrives from the API layer
type SearchRequest struct {
	Profile  string                    `json:"profile"`
	Branches []string                  `json:"branches" binding:"required,min=1"`
	From     *time.Time                `json:"from"`
	To       *time.Time                `json:"to"`
	Criteria receivable.FilterCriteria `json:"criteria"`
	Sort     receivable.SortSpec       `json:"sort"`
	Page     int                       `json:"page"`
}

// Service orchestrates one dashboard run: ingest, overlay snapshots,
// assemble, cache.
type Service struct {
	ingest         *IngestService
	classification classification.Store
	anticipations  anticipation.Store
	cache          ViewCache
	cacheTTL       time.Duration
	version        *DataVersion
	profiles       map[string]Profile
	logger         *zap.Logger
	now            func() time.Time
}

// Option configures a Service
type Option func(*Service)

// WithCache enables payload memoization with the given TTL
func WithCache(cache ViewCache, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = cache
		s.cacheTTL = ttl
	}
}

// WithDataVersion shares a write-generation counter with the services
// that mutate annotations and anticipations, so their writes invalidate
// cached views instead of hiding behind the TTL.
func WithDataVersion(v *DataVersion) Option {
	return func(s *Service) { s.version = v }
}

// WithClock overrides the wall clock, for tests
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithProfiles replaces the built-in dashboard profiles
func WithProfiles(profiles map[string]Profile) Option {
	return func(s *Service) { s.profiles = profiles }
}

// NewService creates a dashboard Service
func NewService(ingest *IngestService, cls classification.Store, ant anticipation.Store, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		ingest:         ingest,
		classification: cls,
		anticipations:  ant,
		version:        NewDataVersion(),
		profiles:       BuiltinProfiles(),
		logger:         logger,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SearchClients runs the client-grouped dashboard pipeline
func (s *Service) SearchClients(ctx context.Context, req SearchRequest) (*receivable.ClientView, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "dashboard", "search_clients",
		telemetry.WithAttribute(telemetry.SpanAttrProfile, req.Profile),
		telemetry.WithAttribute(telemetry.SpanAttrBranches, req.Branches),
	)
	defer span.End()

	key, cacheable := s.cacheKey("clients", req)
	if cacheable {
		if payload, hit := s.cache.Get(ctx, key); hit {
			var view receivable.ClientView
			if err := json.Unmarshal(payload, &view); err == nil {
				telemetry.AddEvent(span, "cache_hit")
				return &view, nil
			}
			s.logger.Warn("discarding undecodable cached view", zap.String("key", key))
		}
	}

	profile, in, err := s.prepare(ctx, req)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	view := receivable.AssembleClientView(*in, profile.View)
	telemetry.SetAttributes(span, telemetry.SpanAttrClientCount, view.Clientes.Total)
	if cacheable {
		s.putCache(ctx, key, view)
	}
	return &view, nil
}

// SearchInvoices runs the flat invoice-level pipeline used by the
// anticipation audit and emissão dashboards.
func (s *Service) SearchInvoices(ctx context.Context, req SearchRequest) (*receivable.InvoiceView, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "dashboard", "search_invoices",
		telemetry.WithAttribute(telemetry.SpanAttrProfile, req.Profile),
		telemetry.WithAttribute(telemetry.SpanAttrBranches, req.Branches),
	)
	defer span.End()

	key, cacheable := s.cacheKey("invoices", req)
	if cacheable {
		if payload, hit := s.cache.Get(ctx, key); hit {
			var view receivable.InvoiceView
			if err := json.Unmarshal(payload, &view); err == nil {
				telemetry.AddEvent(span, "cache_hit")
				return &view, nil
			}
			s.logger.Warn("discarding undecodable cached view", zap.String("key", key))
		}
	}

	profile, in, err := s.prepare(ctx, req)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	view := receivable.AssembleInvoiceView(*in, profile.View)
	if cacheable {
		s.putCache(ctx, key, view)
	}
	return &view, nil
}

// prepare validates the request and gathers every input the assembler
// consumes: invoice records, the future-window totals, person enrichment,
// the classification snapshot and the anticipation index. The side loads
// run concurrently; a failing one degrades to an absent overlay rather
// than failing the run.
func (s *Service) prepare(ctx context.Context, req SearchRequest) (Profile, *receivable.ViewInput, error) {
	if len(req.Branches) == 0 {
		return Profile{}, nil, shared.NewValidationError("at least one branch must be selected")
	}
	name := req.Profile
	if name == "" {
		name = ProfileInadimplencia
	}
	profile, err := ResolveProfile(s.profiles, name)
	if err != nil {
		return Profile{}, nil, err
	}

	now := s.now()
	from, to := s.window(req, profile, now)

	records := s.ingest.LoadInvoices(ctx, req.Branches, from, to, req.Criteria.Clientes)

	var (
		persons     receivable.PersonIndex
		aVencer     map[string]decimal.Decimal
		annotations map[string]*classification.Annotation
		reconciler  *anticipation.Reconciler
	)

	var g errgroup.Group
	g.Go(func() error {
		persons = s.ingest.LoadPersons(ctx, records)
		return nil
	})
	g.Go(func() error {
		aVencer = s.ingest.LoadAVencer(ctx, req.Branches, now, now.AddDate(1, 0, 0))
		return nil
	})
	g.Go(func() error {
		rows, err := s.classification.ListAnnotations(ctx)
		if err != nil {
			s.logger.Warn("classification snapshot unavailable, continuing without overlay", zap.Error(err))
			return nil
		}
		annotations = classification.Snapshot(rows)
		return nil
	})
	g.Go(func() error {
		events, err := s.anticipations.ListAll(ctx)
		if err != nil {
			s.logger.Warn("anticipation index unavailable, continuing without overlay", zap.Error(err))
			return nil
		}
		reconciler = anticipation.NewReconciler(events)
		return nil
	})
	_ = g.Wait()

	in := &receivable.ViewInput{
		Records:     records,
		Criteria:    req.Criteria,
		Sort:        req.Sort,
		Page:        req.Page,
		Now:         now,
		Persons:     persons,
		Annotations: annotations,
		AVencer:     aVencer,
	}
	// A nil interface holding a typed nil would defeat the "missing table
	// passes everything" rule, so assign only when the index exists.
	if reconciler != nil {
		in.Anticip = reconciler
	}
	return profile, in, nil
}

// window resolves the ingest date range, defaulting to the profile lookback
func (s *Service) window(req SearchRequest, profile Profile, now time.Time) (time.Time, time.Time) {
	from := now.Add(-profile.Lookback)
	to := now
	if req.From != nil {
		from = *req.From
	}
	if req.To != nil {
		to = *req.To
	}
	return from, to
}

// cacheKey hashes the request and prefixes the current data generation.
// Annotation, anticipation and settlement writes bump the generation, so
// views assembled before the write are never served after it.
func (s *Service) cacheKey(kind string, req SearchRequest) (string, bool) {
	if s.cache == nil {
		return "", false
	}
	raw, err := json.Marshal(req)
	if err != nil {
		return "", false
	}
	sum := sha256.Sum256(raw)
	gen := strconv.FormatInt(s.version.Current(), 10)
	return "dashboard:" + kind + ":g" + gen + ":" + hex.EncodeToString(sum[:]), true
}

func (s *Service) putCache(ctx context.Context, key string, view any) {
	payload, err := json.Marshal(view)
	if err != nil {
		return
	}
	s.cache.Set(ctx, key, payload, s.cacheTTL)
}
