package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"holdings/internal/cache"
	"holdings/internal/core"
	"holdings/internal/log"
	"holdings/internal/source"
)

const rowsCacheKey = "rows"

// BalanceOptions tunes how raw records become balance sheet rows.
type BalanceOptions struct {
	Policy   core.InvalidRecordPolicy
	Enricher core.Enricher
	CacheTTL time.Duration
}

// DefaultBalanceOptions matches the configuration defaults.
func DefaultBalanceOptions() BalanceOptions {
	return BalanceOptions{
		Policy:   core.PolicyAbort,
		Enricher: core.Enricher{TrustRecordType: true},
		CacheTTL: 30 * time.Second,
	}
}

// Batch is one normalized and enriched pass over the source.
type Batch struct {
	Rows    []core.CanonicalRow
	Records int
	// Skipped lists records dropped under the skip policy.
	Skipped []string
	// Unknown lists records whose category was not recognised.
	Unknown []string
}

// BalanceView is what the presentation layer renders. A degraded view has
// no rows and carries the reason the pipeline failed, and Err its cause.
type BalanceView struct {
	core.BalanceSheet
	Degraded bool     `json:"degraded"`
	Reason   string   `json:"reason,omitempty"`
	Err      error    `json:"-"`
	Skipped  []string `json:"skipped,omitempty"`
	Unknown  []string `json:"unknownCategories,omitempty"`
}

// RecordSource is what the balance service reads from.
type RecordSource interface {
	source.HoldingLister
	source.HoldingGetter
}

// BalanceService runs fetch, normalize, enrich and aggregate. Enriched rows
// are cached; every query is aggregated fresh from them.
type BalanceService struct {
	source RecordSource
	opts   BalanceOptions
	rows   *cache.LRUCache[Batch]
	logger *log.Logger
	sl     *log.StructuredLogger
}

func NewBalanceService(src RecordSource, opts BalanceOptions, logger *log.Logger) *BalanceService {
	if logger == nil {
		logger = log.Discard()
	}
	if !opts.Policy.Valid() {
		opts.Policy = core.PolicyAbort
	}
	logger = logger.WithComponent(log.ComponentBalance)
	return &BalanceService{
		source: src,
		opts:   opts,
		rows:   cache.NewLRUCache[Batch](1, opts.CacheTTL),
		logger: logger,
		sl:     log.NewStructuredLogger(logger),
	}
}

// Cache exposes the row cache so a cache.Manager can expire it.
func (s *BalanceService) Cache() cache.Cleaner {
	return s.rows
}

// Rows returns the enriched rows of the whole source, from cache when fresh.
// Unlike BalanceSheet it reports failures.
func (s *BalanceService) Rows(ctx context.Context) (Batch, error) {
	if b, ok := s.rows.Get(rowsCacheKey); ok {
		return b, nil
	}

	records, err := s.source.ListHoldings(ctx)
	if err != nil {
		return Batch{}, fmt.Errorf("list holdings: %w", err)
	}
	b, err := s.build(ctx, records)
	if err != nil {
		return Batch{}, err
	}
	s.rows.Set(rowsCacheKey, b)
	return b, nil
}

// Build runs the pipeline over records that did not come from the source,
// e.g. a file handed to the CLI.
func (s *BalanceService) Build(ctx context.Context, records []core.RawRecord) (Batch, error) {
	return s.build(ctx, records)
}

func (s *BalanceService) build(ctx context.Context, records []core.RawRecord) (Batch, error) {
	rows, skipped, err := core.NormalizeAll(records, s.opts.Policy)
	if err != nil {
		return Batch{}, fmt.Errorf("normalize holdings: %w", err)
	}

	b := Batch{
		Rows:    s.opts.Enricher.Enrich(records, rows),
		Records: len(records),
		Unknown: core.UnknownCategories(records),
	}
	for _, inv := range skipped {
		b.Skipped = append(b.Skipped, inv.ID)
		s.logger.WarnContext(ctx, "Skipping invalid holding",
			log.FieldHoldingID, inv.ID, log.FieldCategory, string(inv.Category))
	}
	s.sl.LogBatchNormalized(ctx, b.Records, len(b.Rows), len(b.Skipped), len(b.Unknown))
	return b, nil
}

// BalanceSheet aggregates the rows for q. It never fails: when the source or
// normalization fails the error is logged and an empty, degraded view is
// returned.
func (s *BalanceService) BalanceSheet(ctx context.Context, q core.Query) BalanceView {
	b, err := s.Rows(ctx)
	if err != nil {
		s.sl.LogError(ctx, "Balance sheet unavailable", err, log.ComponentBalance, log.OpAggregate,
			log.NewFields().With(log.FieldSearch, q.SearchText).With(log.FieldOwner, q.OwnerFilter))
		return BalanceView{
			BalanceSheet: core.Aggregate(nil, q),
			Degraded:     true,
			Reason:       degradedReason(err),
			Err:          err,
		}
	}
	return BalanceView{
		BalanceSheet: core.Aggregate(b.Rows, q),
		Skipped:      b.Skipped,
		Unknown:      b.Unknown,
	}
}

// Selection aggregates only the holdings with the given ids, fetched one by
// one rather than wholesale. The row cache is bypassed and, unlike
// BalanceSheet, failures are returned.
func (s *BalanceService) Selection(ctx context.Context, ids []string, q core.Query) (BalanceView, error) {
	records, err := s.fetch(ctx, ids)
	if err != nil {
		return BalanceView{}, err
	}
	b, err := s.build(ctx, records)
	if err != nil {
		return BalanceView{}, err
	}
	return BalanceView{
		BalanceSheet: core.Aggregate(b.Rows, q),
		Skipped:      b.Skipped,
		Unknown:      b.Unknown,
	}, nil
}

func (s *BalanceService) fetch(ctx context.Context, ids []string) ([]core.RawRecord, error) {
	seen := make(map[string]bool, len(ids))
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, id)
	}

	if bg, ok := s.source.(source.HoldingBatchGetter); ok {
		records, err := bg.GetHoldings(ctx, unique)
		if err != nil {
			return nil, fmt.Errorf("get holdings: %w", err)
		}
		return records, nil
	}
	records := make([]core.RawRecord, 0, len(unique))
	for _, id := range unique {
		rec, err := s.source.GetHolding(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("get holding %q: %w", id, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// Row normalizes a single holding fetched by id. Owner is resolved and the
// record's own type is honoured; allocation needs the whole set and is left
// at zero.
func (s *BalanceService) Row(ctx context.Context, id string) (core.CanonicalRow, error) {
	rec, err := s.source.GetHolding(ctx, id)
	if err != nil {
		return core.CanonicalRow{}, err
	}
	row, err := core.Normalize(rec)
	if err != nil {
		return core.CanonicalRow{}, err
	}
	e := s.opts.Enricher
	e.DeriveLoanLiabilities = false
	enriched := e.Enrich([]core.RawRecord{rec}, []core.CanonicalRow{row})
	out := enriched[0]
	out.Allocation = row.Allocation
	return out, nil
}

// Invalidate drops the cached rows so the next read refetches.
func (s *BalanceService) Invalidate() {
	s.rows.Purge()
}

func degradedReason(err error) string {
	switch {
	case errors.Is(err, core.ErrInvalidRecord):
		return "A holding record is corrupt: " + err.Error()
	case errors.Is(err, source.ErrFetchFailed):
		return "Holdings could not be fetched: " + err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return "Fetching holdings timed out"
	default:
		return "Holdings are unavailable: " + err.Error()
	}
}
