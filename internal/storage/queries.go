package storage

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type Holding struct {
	Position   int64
	ID         string
	Category   string
	EntryType  string
	Status     string
	RecordJSON string
	CreatedAt  string
}

type BalanceSnapshot struct {
	ID               int64
	TakenAt          string
	TotalAssets      string
	TotalLiabilities string
	NetEquity        string
	Holdings         int64
}

const createHolding = `-- name: CreateHolding :one
INSERT INTO holdings (id, category, entry_type, status, record_json, created_at)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING position, id, category, entry_type, status, record_json, created_at
`

type CreateHoldingParams struct {
	ID         string
	Category   string
	EntryType  string
	Status     string
	RecordJSON string
	CreatedAt  string
}

func (q *Queries) CreateHolding(ctx context.Context, arg CreateHoldingParams) (Holding, error) {
	row := q.db.QueryRowContext(ctx, createHolding,
		arg.ID,
		arg.Category,
		arg.EntryType,
		arg.Status,
		arg.RecordJSON,
		arg.CreatedAt,
	)
	var i Holding
	err := row.Scan(
		&i.Position,
		&i.ID,
		&i.Category,
		&i.EntryType,
		&i.Status,
		&i.RecordJSON,
		&i.CreatedAt,
	)
	return i, err
}

const getHolding = `-- name: GetHolding :one
SELECT position, id, category, entry_type, status, record_json, created_at
FROM holdings
WHERE id = ?
`

func (q *Queries) GetHolding(ctx context.Context, id string) (Holding, error) {
	row := q.db.QueryRowContext(ctx, getHolding, id)
	var i Holding
	err := row.Scan(
		&i.Position,
		&i.ID,
		&i.Category,
		&i.EntryType,
		&i.Status,
		&i.RecordJSON,
		&i.CreatedAt,
	)
	return i, err
}

const listHoldings = `-- name: ListHoldings :many
SELECT position, id, category, entry_type, status, record_json, created_at
FROM holdings
ORDER BY position
`

func (q *Queries) ListHoldings(ctx context.Context) ([]Holding, error) {
	rows, err := q.db.QueryContext(ctx, listHoldings)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Holding
	for rows.Next() {
		var i Holding
		if err := rows.Scan(
			&i.Position,
			&i.ID,
			&i.Category,
			&i.EntryType,
			&i.Status,
			&i.RecordJSON,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countHoldings = `-- name: CountHoldings :one
SELECT COUNT(*) FROM holdings
`

func (q *Queries) CountHoldings(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countHoldings)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const createBalanceSnapshot = `-- name: CreateBalanceSnapshot :one
INSERT INTO balance_snapshots (taken_at, total_assets, total_liabilities, net_equity, holdings)
VALUES (?, ?, ?, ?, ?)
RETURNING id
`

type CreateBalanceSnapshotParams struct {
	TakenAt          string
	TotalAssets      string
	TotalLiabilities string
	NetEquity        string
	Holdings         int64
}

func (q *Queries) CreateBalanceSnapshot(ctx context.Context, arg CreateBalanceSnapshotParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, createBalanceSnapshot,
		arg.TakenAt,
		arg.TotalAssets,
		arg.TotalLiabilities,
		arg.NetEquity,
		arg.Holdings,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const listBalanceSnapshots = `-- name: ListBalanceSnapshots :many
SELECT id, taken_at, total_assets, total_liabilities, net_equity, holdings
FROM balance_snapshots
ORDER BY taken_at DESC, id DESC
LIMIT ?
`

func (q *Queries) ListBalanceSnapshots(ctx context.Context, limit int64) ([]BalanceSnapshot, error) {
	rows, err := q.db.QueryContext(ctx, listBalanceSnapshots, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []BalanceSnapshot
	for rows.Next() {
		var i BalanceSnapshot
		if err := rows.Scan(
			&i.ID,
			&i.TakenAt,
			&i.TotalAssets,
			&i.TotalLiabilities,
			&i.NetEquity,
			&i.Holdings,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
