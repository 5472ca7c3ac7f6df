package dashboard

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cobranca/backend/internal/domain/receivable"
	"github.com/cobranca/backend/internal/infrastructure/telemetry"
)

// FeedQuery parameterizes one invoice feed request
type FeedQuery struct {
	From        time.Time
	To          time.Time
	Branch      string
	ClientCodes []string // optional allow-list, used by one dashboard variant
}

// InvoiceFeed is the upstream invoice source. It returns the raw payload
// untouched; shape normalization is the engine's job, not the transport's.
type InvoiceFeed interface {
	FetchInvoices(ctx context.Context, query FeedQuery) ([]byte, error)
}

// PersonFeed is the batched client enrichment source
type PersonFeed interface {
	FetchPersons(ctx context.Context, clientCodes []string) ([]receivable.PersonInfo, error)
}

// enrichmentChunkSize bounds one person feed request. Oversized batches get
// rejected upstream, so the codes are chunked and fetched concurrently.
const enrichmentChunkSize = 50

// IngestService loads and merges the raw data one dashboard run consumes
type IngestService struct {
	invoices InvoiceFeed
	persons  PersonFeed
	logger   *zap.Logger
}

// NewIngestService creates an IngestService
func NewIngestService(invoices InvoiceFeed, persons PersonFeed, logger *zap.Logger) *IngestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IngestService{invoices: invoices, persons: persons, logger: logger}
}

// LoadInvoices fetches the invoice feed for every selected branch
// concurrently and merges the normalized results in branch order. A failing
// branch degrades to an empty contribution, logged and excluded, so partial
// upstream failure never voids the other branches.
func (s *IngestService) LoadInvoices(ctx context.Context, branches []string, from, to time.Time, clientCodes []string) []receivable.InvoiceRecord {
	perBranch := make([][]receivable.InvoiceRecord, len(branches))

	var g errgroup.Group
	for i, branch := range branches {
		g.Go(func() error {
			payload, err := s.invoices.FetchInvoices(ctx, FeedQuery{
				From: from, To: to, Branch: branch, ClientCodes: clientCodes,
			})
			if err != nil {
				s.logger.Warn("invoice feed failed for branch, excluding its contribution",
					zap.String("branch", branch),
					zap.Error(err))
				telemetry.AddEvent(telemetry.SpanFromContext(ctx), "feed_branch_failed",
					"branch", branch)
				return nil
			}
			perBranch[i] = receivable.Normalize(payload)
			return nil
		})
	}
	// Branch failures are swallowed above; Wait only synchronizes.
	_ = g.Wait()

	merged := make([]receivable.InvoiceRecord, 0)
	for _, records := range perBranch {
		merged = append(merged, records...)
	}
	return merged
}

// LoadAVencer runs the parallel future-window query and folds it into
// per-client not-yet-due totals.
func (s *IngestService) LoadAVencer(ctx context.Context, branches []string, from, to time.Time) map[string]decimal.Decimal {
	records := s.LoadInvoices(ctx, branches, from, to, nil)

	totals := make(map[string]decimal.Decimal, len(records))
	for i := range records {
		r := &records[i]
		cur, ok := totals[r.CodigoCliente]
		if !ok {
			cur = decimal.Zero
		}
		totals[r.CodigoCliente] = cur.Add(r.ValorFatura)
	}
	return totals
}

// LoadPersons fetches enrichment rows for the given records' clients in
// bounded chunks, concurrently, with per-chunk failure isolation. The
// returned index may be partial; filters that depend on it already treat a
// missing row as "pass".
func (s *IngestService) LoadPersons(ctx context.Context, records []receivable.InvoiceRecord) receivable.PersonIndex {
	codes := distinctClientCodes(records)
	if len(codes) == 0 {
		return receivable.PersonIndex{}
	}

	chunks := chunkStrings(codes, enrichmentChunkSize)
	results := make([][]receivable.PersonInfo, len(chunks))

	var g errgroup.Group
	for i, chunk := range chunks {
		g.Go(func() error {
			persons, err := s.persons.FetchPersons(ctx, chunk)
			if err != nil {
				s.logger.Warn("person enrichment chunk failed, continuing without it",
					zap.Int("chunk", i),
					zap.Int("size", len(chunk)),
					zap.Error(err))
				return nil
			}
			results[i] = persons
			return nil
		})
	}
	_ = g.Wait()

	index := make(receivable.PersonIndex, len(codes))
	for _, persons := range results {
		for _, p := range persons {
			index[p.Codigo] = p
		}
	}
	return index
}

// distinctClientCodes returns the unique client codes, sorted so the
// enrichment chunks are deterministic regardless of record order
func distinctClientCodes(records []receivable.InvoiceRecord) []string {
	seen := make(map[string]bool, len(records))
	codes := make([]string, 0, len(records))
	for i := range records {
		code := records[i].CodigoCliente
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// chunkStrings splits vals into slices of at most size elements
func chunkStrings(vals []string, size int) [][]string {
	if size < 1 {
		size = 1
	}
	chunks := make([][]string, 0, (len(vals)+size-1)/size)
	for start := 0; start < len(vals); start += size {
		end := start + size
		if end > len(vals) {
			end = len(vals)
		}
		chunks = append(chunks, vals[start:end])
	}
	return chunks
}
