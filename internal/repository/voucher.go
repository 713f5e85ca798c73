package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/seaboard-ops/port-finance/internal/domain"
)

const voucherColumns = `id, owner_id, occurred_at, category, amount, document_ref,
	remarks, status, approved_by, logged_by, approval_comments, tally_reference,
	created_at, updated_at`

type VoucherRepository struct {
	db *sql.DB
}

func NewVoucherRepository(db *sql.DB) *VoucherRepository {
	return &VoucherRepository{db: db}
}

func (r *VoucherRepository) Create(ctx context.Context, v *domain.Voucher) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO vouchers (
			id, owner_id, occurred_at, category, amount, document_ref, remarks,
			status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		v.ID, v.OwnerID, v.OccurredAt, v.Category, v.Amount, v.DocumentRef,
		v.Remarks, v.Status, v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *VoucherRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Voucher, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+voucherColumns+` FROM vouchers WHERE id = $1`, id,
	)
	v, err := scanVoucher(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return v, nil
}

func (r *VoucherRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Voucher, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+voucherColumns+` FROM vouchers WHERE id = $1 FOR UPDATE`, id,
	)
	v, err := scanVoucher(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return v, nil
}

// UpdateTransition is conditional on the current status; zero rows affected
// means a concurrent transition won and is reported as ErrInvalidTransition.
func (r *VoucherRepository) UpdateTransition(ctx context.Context, tx *sql.Tx, v *domain.Voucher, fromStatus domain.VoucherStatus) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE vouchers
		SET status = $1, approved_by = $2, logged_by = $3, approval_comments = $4,
			tally_reference = $5, updated_at = $6
		WHERE id = $7 AND status = $8`,
		v.Status, v.ApprovedBy, v.LoggedBy, v.ApprovalComments,
		v.TallyReference, v.UpdatedAt,
		v.ID, fromStatus,
	)
	if err != nil {
		return fmt.Errorf("UpdateTransition: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateTransition: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("UpdateTransition: %w", domain.ErrInvalidTransition)
	}
	return nil
}

type VoucherFilter struct {
	OwnerID *uuid.UUID
	Status  *domain.VoucherStatus
}

func (r *VoucherRepository) List(ctx context.Context, f VoucherFilter) ([]domain.Voucher, error) {
	query := `SELECT ` + voucherColumns + ` FROM vouchers WHERE 1=1`
	var args []any

	if f.OwnerID != nil {
		args = append(args, *f.OwnerID)
		query += fmt.Sprintf(" AND owner_id = $%d", len(args))
	}
	if f.Status != nil {
		args = append(args, *f.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	var vouchers []domain.Voucher
	for rows.Next() {
		v, err := scanVoucher(rows)
		if err != nil {
			return nil, fmt.Errorf("List: scan: %w", err)
		}
		vouchers = append(vouchers, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List: rows: %w", err)
	}
	return vouchers, nil
}

func scanVoucher(s scanner) (*domain.Voucher, error) {
	var v domain.Voucher
	var approvedBy, loggedBy uuid.NullUUID
	err := s.Scan(
		&v.ID, &v.OwnerID, &v.OccurredAt, &v.Category, &v.Amount, &v.DocumentRef,
		&v.Remarks, &v.Status, &approvedBy, &loggedBy, &v.ApprovalComments,
		&v.TallyReference, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if approvedBy.Valid {
		v.ApprovedBy = &approvedBy.UUID
	}
	if loggedBy.Valid {
		v.LoggedBy = &loggedBy.UUID
	}
	return &v, nil
}
