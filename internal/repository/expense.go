package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/seaboard-ops/port-finance/internal/domain"
)

const expenseColumns = `id, seq, owner_id, occurred_at, vehicle, vehicle_number,
	gate, direction, description, cisf_amount, kpt_amount, customs_amount,
	road_tax_days, road_tax_amount, other_charges, total_amount, status,
	reviewed_by, finalized_by, review_comments, created_at, updated_at`

type ExpenseRepository struct {
	db *sql.DB
}

func NewExpenseRepository(db *sql.DB) *ExpenseRepository {
	return &ExpenseRepository{db: db}
}

func (r *ExpenseRepository) Create(ctx context.Context, e *domain.Expense) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO expenses (
			id, owner_id, occurred_at, vehicle, vehicle_number, gate, direction,
			description, cisf_amount, kpt_amount, customs_amount, road_tax_days,
			road_tax_amount, other_charges, total_amount, status,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING seq`,
		e.ID, e.OwnerID, e.OccurredAt, e.Vehicle, e.VehicleNumber, e.Gate, e.Direction,
		e.Description, e.CISFAmount, e.KPTAmount, e.CustomsAmount, e.RoadTaxDays,
		e.RoadTaxAmount, e.OtherCharges, e.TotalAmount, e.Status,
		e.CreatedAt, e.UpdatedAt,
	).Scan(&e.Seq)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *ExpenseRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Expense, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = $1`, id,
	)
	e, err := scanExpense(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return e, nil
}

// GetForUpdate locks the expense row so that concurrent transitions on the
// same expense serialize.
func (r *ExpenseRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Expense, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = $1 FOR UPDATE`, id,
	)
	e, err := scanExpense(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return e, nil
}

// UpdateTransition writes the outcome of a workflow transition. The fromStatus
// predicate makes the write conditional; zero rows affected means the state
// moved underneath the caller and is reported as ErrInvalidTransition.
func (r *ExpenseRepository) UpdateTransition(ctx context.Context, tx *sql.Tx, e *domain.Expense, fromStatus domain.ExpenseStatus) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE expenses
		SET status = $1, reviewed_by = $2, finalized_by = $3, review_comments = $4, updated_at = $5
		WHERE id = $6 AND status = $7`,
		e.Status, e.ReviewedBy, e.FinalizedBy, e.ReviewComments, e.UpdatedAt,
		e.ID, fromStatus,
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

type ExpenseFilter struct {
	OwnerID *uuid.UUID
	Status  *domain.ExpenseStatus
	From    *time.Time
	To      *time.Time
}

func (r *ExpenseRepository) List(ctx context.Context, f ExpenseFilter) ([]domain.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE 1=1`
	var args []any

	if f.OwnerID != nil {
		args = append(args, *f.OwnerID)
		query += fmt.Sprintf(" AND owner_id = $%d", len(args))
	}
	if f.Status != nil {
		args = append(args, *f.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if f.From != nil {
		args = append(args, *f.From)
		query += fmt.Sprintf(" AND occurred_at >= $%d", len(args))
	}
	if f.To != nil {
		args = append(args, *f.To)
		query += fmt.Sprintf(" AND occurred_at < $%d", len(args))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	var expenses []domain.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("List: scan: %w", err)
		}
		expenses = append(expenses, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List: rows: %w", err)
	}
	return expenses, nil
}

func scanExpense(s scanner) (*domain.Expense, error) {
	var e domain.Expense
	var reviewedBy, finalizedBy uuid.NullUUID
	err := s.Scan(
		&e.ID, &e.Seq, &e.OwnerID, &e.OccurredAt, &e.Vehicle, &e.VehicleNumber,
		&e.Gate, &e.Direction, &e.Description, &e.CISFAmount, &e.KPTAmount,
		&e.CustomsAmount, &e.RoadTaxDays, &e.RoadTaxAmount, &e.OtherCharges,
		&e.TotalAmount, &e.Status, &reviewedBy, &finalizedBy, &e.ReviewComments,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if reviewedBy.Valid {
		e.ReviewedBy = &reviewedBy.UUID
	}
	if finalizedBy.Valid {
		e.FinalizedBy = &finalizedBy.UUID
	}
	return &e, nil
}
