package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/seaboard-ops/port-finance/internal/domain"
)

const usageColumns = `id, party_id, vehicle_type_id, work_type_id, vehicle_number,
	contract_type, started_at, ended_at, quantity, rate, total_cost, comments,
	status, created_by, ended_by, created_at, updated_at`

type UsageRepository struct {
	db *sql.DB
}

func NewUsageRepository(db *sql.DB) *UsageRepository {
	return &UsageRepository{db: db}
}

func (r *UsageRepository) Create(ctx context.Context, u *domain.UsageRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO usage_records (
			id, party_id, vehicle_type_id, work_type_id, vehicle_number,
			contract_type, started_at, comments, status, created_by,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		u.ID, u.PartyID, u.VehicleTypeID, u.WorkTypeID, u.VehicleNumber,
		u.ContractType, u.StartedAt, u.Comments, u.Status, u.CreatedBy,
		u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *UsageRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.UsageRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+usageColumns+` FROM usage_records WHERE id = $1`, id,
	)
	u, err := scanUsageRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return u, nil
}

func (r *UsageRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.UsageRecord, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+usageColumns+` FROM usage_records WHERE id = $1 FOR UPDATE`, id,
	)
	u, err := scanUsageRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return u, nil
}

// Complete closes out a running record. Conditional on status so a record can
// only be completed once.
func (r *UsageRepository) Complete(ctx context.Context, tx *sql.Tx, u *domain.UsageRecord) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE usage_records
		SET ended_at = $1, quantity = $2, rate = $3, total_cost = $4,
			comments = $5, status = $6, ended_by = $7, updated_at = $8
		WHERE id = $9 AND status = $10`,
		u.EndedAt, u.Quantity, u.Rate, u.TotalCost,
		u.Comments, u.Status, u.EndedBy, u.UpdatedAt,
		u.ID, domain.UsageRunning,
	)
	if err != nil {
		return fmt.Errorf("Complete: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Complete: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("Complete: %w", domain.ErrInvalidTransition)
	}
	return nil
}

type UsageFilter struct {
	PartyID *uuid.UUID
	Status  *domain.UsageStatus
}

func (r *UsageRepository) List(ctx context.Context, f UsageFilter) ([]domain.UsageRecord, error) {
	query := `SELECT ` + usageColumns + ` FROM usage_records WHERE 1=1`
	var args []any

	if f.PartyID != nil {
		args = append(args, *f.PartyID)
		query += fmt.Sprintf(" AND party_id = $%d", len(args))
	}
	if f.Status != nil {
		args = append(args, *f.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += ` ORDER BY started_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	var records []domain.UsageRecord
	for rows.Next() {
		u, err := scanUsageRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("List: scan: %w", err)
		}
		records = append(records, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List: rows: %w", err)
	}
	return records, nil
}

func scanUsageRecord(s scanner) (*domain.UsageRecord, error) {
	var u domain.UsageRecord
	var endedBy uuid.NullUUID
	err := s.Scan(
		&u.ID, &u.PartyID, &u.VehicleTypeID, &u.WorkTypeID, &u.VehicleNumber,
		&u.ContractType, &u.StartedAt, &u.EndedAt, &u.Quantity, &u.Rate,
		&u.TotalCost, &u.Comments, &u.Status, &u.CreatedBy, &endedBy,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if endedBy.Valid {
		u.EndedBy = &endedBy.UUID
	}
	return &u, nil
}
