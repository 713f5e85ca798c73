package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/seaboard-ops/port-finance/internal/domain"
)

const tallyColumns = `id, entry_type, reference_id, tally_voucher_number,
	amount, description, logged_by, logged_at`

type TallyRepository struct {
	db *sql.DB
}

func NewTallyRepository(db *sql.DB) *TallyRepository {
	return &TallyRepository{db: db}
}

// Create inserts a bookkeeping record inside the caller's transaction. The
// partial unique index on (entry_type, reference_id) makes a second insert
// for the same expense or voucher fail.
func (r *TallyRepository) Create(ctx context.Context, tx *sql.Tx, t *domain.TallyLog) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO tally_logs (
			id, entry_type, reference_id, tally_voucher_number, amount,
			description, logged_by, logged_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		t.ID, t.EntryType, t.ReferenceID, t.TallyVoucherNumber, t.Amount,
		t.Description, t.LoggedBy, t.LoggedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "tally_logs_source_uq") {
			return fmt.Errorf("Create: %w", domain.ErrDuplicatePosting)
		}
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

// CreateStandalone inserts a manual or revenue record outside any workflow
// transaction.
func (r *TallyRepository) CreateStandalone(ctx context.Context, t *domain.TallyLog) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tally_logs (
			id, entry_type, reference_id, tally_voucher_number, amount,
			description, logged_by, logged_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		t.ID, t.EntryType, t.ReferenceID, t.TallyVoucherNumber, t.Amount,
		t.Description, t.LoggedBy, t.LoggedAt,
	)
	if err != nil {
		return fmt.Errorf("CreateStandalone: %w", err)
	}
	return nil
}

type TallyFilter struct {
	EntryType *domain.TallyEntryType
	From      *time.Time
	To        *time.Time
}

func (r *TallyRepository) List(ctx context.Context, f TallyFilter) ([]domain.TallyLog, error) {
	query := `SELECT ` + tallyColumns + ` FROM tally_logs WHERE 1=1`
	var args []any

	if f.EntryType != nil {
		args = append(args, *f.EntryType)
		query += fmt.Sprintf(" AND entry_type = $%d", len(args))
	}
	if f.From != nil {
		args = append(args, *f.From)
		query += fmt.Sprintf(" AND logged_at >= $%d", len(args))
	}
	if f.To != nil {
		args = append(args, *f.To)
		query += fmt.Sprintf(" AND logged_at < $%d", len(args))
	}
	query += ` ORDER BY logged_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	var logs []domain.TallyLog
	for rows.Next() {
		var t domain.TallyLog
		err := rows.Scan(
			&t.ID, &t.EntryType, &t.ReferenceID, &t.TallyVoucherNumber,
			&t.Amount, &t.Description, &t.LoggedBy, &t.LoggedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("List: scan: %w", err)
		}
		logs = append(logs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List: rows: %w", err)
	}
	return logs, nil
}

// ExistsForReference reports whether a bookkeeping record was already written
// for the given source.
func (r *TallyRepository) ExistsForReference(ctx context.Context, entryType domain.TallyEntryType, referenceID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM tally_logs WHERE entry_type = $1 AND reference_id = $2
		)`,
		entryType, referenceID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("ExistsForReference: %w", err)
	}
	return exists, nil
}
