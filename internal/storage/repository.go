package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"holdings/internal/core"
	"holdings/internal/source"

	_ "modernc.org/sqlite"
)

// ErrDuplicateHolding is returned when a holding id is already stored.
var ErrDuplicateHolding = source.ErrDuplicate

const (
	// DefaultSnapshotLimit caps ListSnapshots when no limit is given.
	DefaultSnapshotLimit = 100

	// timeLayout is fixed width so stored timestamps sort as text.
	timeLayout = "2006-01-02T15:04:05.000000000Z"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		now:     time.Now,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// ListHoldings implements source.HoldingLister. Records come back in
// insertion order.
func (r *SQLiteRepository) ListHoldings(ctx context.Context) ([]core.RawRecord, error) {
	rows, err := r.queries.ListHoldings(ctx)
	if err != nil {
		return nil, fmt.Errorf("list holdings: %w", err)
	}
	out := make([]core.RawRecord, 0, len(rows))
	for _, h := range rows {
		rec, err := decodeHolding(h)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// GetHolding implements source.HoldingGetter
func (r *SQLiteRepository) GetHolding(ctx context.Context, id string) (core.RawRecord, error) {
	h, err := r.queries.GetHolding(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.RawRecord{}, source.ErrNotFound
	}
	if err != nil {
		return core.RawRecord{}, fmt.Errorf("get holding by id: %w", err)
	}
	return decodeHolding(h)
}

// CreateHolding implements source.HoldingWriter. The whole raw record is kept
// as JSON so payload fields round-trip exactly.
func (r *SQLiteRepository) CreateHolding(ctx context.Context, rec core.RawRecord) (string, error) {
	if err := rec.Validate(); err != nil {
		return "", err
	}
	body, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("encode holding: %w", err)
	}
	h, err := r.queries.CreateHolding(ctx, CreateHoldingParams{
		ID:         rec.ID,
		Category:   string(rec.Category),
		EntryType:  string(rec.Type),
		Status:     string(rec.Status),
		RecordJSON: string(body),
		CreatedAt:  r.now().UTC().Format(timeLayout),
	})
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return "", fmt.Errorf("%w: %q", ErrDuplicateHolding, rec.ID)
		}
		return "", fmt.Errorf("create holding: %w", err)
	}

	slog.InfoContext(ctx, "Holding saved to SQLite",
		"holding_id", h.ID,
		"category", h.Category,
		"position", h.Position)

	return h.ID, nil
}

// ImportHoldings stores records in one transaction, skipping ids that are
// already present. It returns how many were inserted.
func (r *SQLiteRepository) ImportHoldings(ctx context.Context, records []core.RawRecord) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	inserted := 0
	for _, rec := range records {
		if _, err := q.GetHolding(ctx, rec.ID); err == nil {
			continue
		} else if !errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("check holding %q: %w", rec.ID, err)
		}
		body, err := json.Marshal(rec)
		if err != nil {
			return 0, fmt.Errorf("encode holding %q: %w", rec.ID, err)
		}
		if _, err := q.CreateHolding(ctx, CreateHoldingParams{
			ID:         rec.ID,
			Category:   string(rec.Category),
			EntryType:  string(rec.Type),
			Status:     string(rec.Status),
			RecordJSON: string(body),
			CreatedAt:  r.now().UTC().Format(timeLayout),
		}); err != nil {
			return 0, fmt.Errorf("import holding %q: %w", rec.ID, err)
		}
		inserted++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}
	return inserted, nil
}

// CountHoldings returns the number of stored holdings.
func (r *SQLiteRepository) CountHoldings(ctx context.Context) (int64, error) {
	n, err := r.queries.CountHoldings(ctx)
	if err != nil {
		return 0, fmt.Errorf("count holdings: %w", err)
	}
	return n, nil
}

// SaveSnapshot stores the totals and returns the snapshot with its id.
func (r *SQLiteRepository) SaveSnapshot(ctx context.Context, s core.Snapshot) (core.Snapshot, error) {
	id, err := r.queries.CreateBalanceSnapshot(ctx, CreateBalanceSnapshotParams{
		TakenAt:          s.TakenAt.UTC().Format(timeLayout),
		TotalAssets:      s.TotalAssets.String(),
		TotalLiabilities: s.TotalLiabilities.String(),
		NetEquity:        s.NetEquity.String(),
		Holdings:         int64(s.Holdings),
	})
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("create balance snapshot: %w", err)
	}
	s.ID = id
	return s, nil
}

// ListSnapshots returns the most recent snapshots, newest first.
func (r *SQLiteRepository) ListSnapshots(ctx context.Context, limit int) ([]core.Snapshot, error) {
	if limit <= 0 {
		limit = DefaultSnapshotLimit
	}
	rows, err := r.queries.ListBalanceSnapshots(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("list balance snapshots: %w", err)
	}
	out := make([]core.Snapshot, 0, len(rows))
	for _, row := range rows {
		s, err := decodeSnapshot(row)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func decodeHolding(h Holding) (core.RawRecord, error) {
	var rec core.RawRecord
	if err := json.Unmarshal([]byte(h.RecordJSON), &rec); err != nil {
		return core.RawRecord{}, fmt.Errorf("decode holding %q: %w", h.ID, err)
	}
	return rec, nil
}

func decodeSnapshot(row BalanceSnapshot) (core.Snapshot, error) {
	takenAt, err := time.Parse(timeLayout, row.TakenAt)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("snapshot %d taken_at: %w", row.ID, err)
	}
	s := core.Snapshot{ID: row.ID, TakenAt: takenAt, Holdings: int(row.Holdings)}
	for _, f := range []struct {
		dst *decimal.Decimal
		src string
	}{
		{&s.TotalAssets, row.TotalAssets},
		{&s.TotalLiabilities, row.TotalLiabilities},
		{&s.NetEquity, row.NetEquity},
	} {
		d, err := decimal.NewFromString(f.src)
		if err != nil {
			return core.Snapshot{}, fmt.Errorf("snapshot %d amount %q: %w", row.ID, f.src, err)
		}
		*f.dst = d
	}
	return s, nil
}
