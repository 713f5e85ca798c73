package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/seaboard-ops/port-finance/internal/domain"
)

const ledgerColumns = `id, owner_id, direction, amount, source_kind, source_ref,
	posted_by, description, balance_after, posted_at`

type LedgerRepository struct {
	db *sql.DB
}

func NewLedgerRepository(db *sql.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Create appends one entry inside tx. A violation of the per-source unique
// index surfaces as domain.ErrDuplicatePosting.
func (r *LedgerRepository) Create(ctx context.Context, tx *sql.Tx, e *domain.LedgerEntry) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO ledger_entries (
			id, owner_id, direction, amount, source_kind, source_ref,
			posted_by, description, balance_after, posted_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		e.ID, e.OwnerID, e.Direction, e.Amount, e.SourceKind, e.SourceRef,
		e.PostedBy, e.Description, e.BalanceAfter, e.PostedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "ledger_entries_source_uq") {
			return fmt.Errorf("Create: %w", domain.ErrDuplicatePosting)
		}
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

// LatestForOwner returns the owner's most recent entry within tx, with ties
// on posted_at broken by insertion order. Returns ErrNotFound when the owner
// has no entries yet.
func (r *LedgerRepository) LatestForOwner(ctx context.Context, tx *sql.Tx, ownerID uuid.UUID) (*domain.LedgerEntry, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+ledgerColumns+` FROM ledger_entries
		WHERE owner_id = $1
		ORDER BY posted_at DESC, id DESC LIMIT 1`, ownerID,
	)
	e, err := scanLedgerEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("LatestForOwner: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("LatestForOwner: %w", err)
	}
	return e, nil
}

// LatestBalance reads the owner's current balance outside any transaction.
func (r *LedgerRepository) LatestBalance(ctx context.Context, ownerID uuid.UUID) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := r.db.QueryRowContext(ctx,
		`SELECT balance_after FROM ledger_entries
		WHERE owner_id = $1
		ORDER BY posted_at DESC, id DESC LIMIT 1`, ownerID,
	).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("LatestBalance: %w", err)
	}
	return balance, nil
}

func (r *LedgerRepository) GetByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]domain.LedgerEntry, int, error) {
	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM ledger_entries WHERE owner_id = $1`, ownerID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("GetByOwner: count: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+ledgerColumns+` FROM ledger_entries
		WHERE owner_id = $1 ORDER BY posted_at DESC, id DESC LIMIT $2 OFFSET $3`,
		ownerID, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("GetByOwner: %w", err)
	}
	defer rows.Close()

	entries, err := collectLedgerEntries(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("GetByOwner: %w", err)
	}
	return entries, total, nil
}

func (r *LedgerRepository) GetByOwnerRange(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]domain.LedgerEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+ledgerColumns+` FROM ledger_entries
		WHERE owner_id = $1 AND posted_at >= $2 AND posted_at < $3
		ORDER BY posted_at, id`,
		ownerID, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("GetByOwnerRange: %w", err)
	}
	defer rows.Close()

	entries, err := collectLedgerEntries(rows)
	if err != nil {
		return nil, fmt.Errorf("GetByOwnerRange: %w", err)
	}
	return entries, nil
}

func collectLedgerEntries(rows *sql.Rows) ([]domain.LedgerEntry, error) {
	var entries []domain.LedgerEntry
	for rows.Next() {
		e, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return entries, nil
}

func scanLedgerEntry(s scanner) (*domain.LedgerEntry, error) {
	var e domain.LedgerEntry
	err := s.Scan(
		&e.ID, &e.OwnerID, &e.Direction, &e.Amount, &e.SourceKind, &e.SourceRef,
		&e.PostedBy, &e.Description, &e.BalanceAfter, &e.PostedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
