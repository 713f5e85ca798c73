package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/seaboard-ops/port-finance/internal/domain"
)

// CatalogRepository serves the master data the equipment workflows reference:
// counterparties, vehicle types and work types.
type CatalogRepository struct {
	db *sql.DB
}

func NewCatalogRepository(db *sql.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) CreateParty(ctx context.Context, p *domain.PartyMaster) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO party_masters (id, name, active, created_at) VALUES ($1, $2, $3, $4)`,
		p.ID, p.Name, p.Active, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("CreateParty: %w", err)
	}
	return nil
}

func (r *CatalogRepository) CreateVehicleType(ctx context.Context, v *domain.VehicleType) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO vehicle_types (id, name, active, created_at) VALUES ($1, $2, $3, $4)`,
		v.ID, v.Name, v.Active, v.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("CreateVehicleType: %w", err)
	}
	return nil
}

func (r *CatalogRepository) CreateWorkType(ctx context.Context, w *domain.WorkType) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO work_types (id, name, active, created_at) VALUES ($1, $2, $3, $4)`,
		w.ID, w.Name, w.Active, w.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("CreateWorkType: %w", err)
	}
	return nil
}

// VerifyReferences checks that the party, vehicle type and work type all
// exist and are active. A miss on any of them is ErrUnknownReference.
func (r *CatalogRepository) VerifyReferences(ctx context.Context, partyID, vehicleTypeID, workTypeID uuid.UUID) error {
	var partyOK, vehicleOK, workOK bool
	err := r.db.QueryRowContext(ctx,
		`SELECT
			EXISTS (SELECT 1 FROM party_masters WHERE id = $1 AND active),
			EXISTS (SELECT 1 FROM vehicle_types WHERE id = $2 AND active),
			EXISTS (SELECT 1 FROM work_types WHERE id = $3 AND active)`,
		partyID, vehicleTypeID, workTypeID,
	).Scan(&partyOK, &vehicleOK, &workOK)
	if err != nil {
		return fmt.Errorf("VerifyReferences: %w", err)
	}
	if !partyOK || !vehicleOK || !workOK {
		return fmt.Errorf("VerifyReferences: %w", domain.ErrUnknownReference)
	}
	return nil
}

func (r *CatalogRepository) GetParty(ctx context.Context, id uuid.UUID) (*domain.PartyMaster, error) {
	var p domain.PartyMaster
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, active, created_at FROM party_masters WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.Active, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetParty: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetParty: %w", err)
	}
	return &p, nil
}

func (r *CatalogRepository) ListParties(ctx context.Context) ([]domain.PartyMaster, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, active, created_at FROM party_masters ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("ListParties: %w", err)
	}
	defer rows.Close()

	var parties []domain.PartyMaster
	for rows.Next() {
		var p domain.PartyMaster
		if err := rows.Scan(&p.ID, &p.Name, &p.Active, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("ListParties: scan: %w", err)
		}
		parties = append(parties, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListParties: rows: %w", err)
	}
	return parties, nil
}

func (r *CatalogRepository) ListVehicleTypes(ctx context.Context) ([]domain.VehicleType, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, active, created_at FROM vehicle_types ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("ListVehicleTypes: %w", err)
	}
	defer rows.Close()

	var types []domain.VehicleType
	for rows.Next() {
		var v domain.VehicleType
		if err := rows.Scan(&v.ID, &v.Name, &v.Active, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("ListVehicleTypes: scan: %w", err)
		}
		types = append(types, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListVehicleTypes: rows: %w", err)
	}
	return types, nil
}

func (r *CatalogRepository) ListWorkTypes(ctx context.Context) ([]domain.WorkType, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, active, created_at FROM work_types ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("ListWorkTypes: %w", err)
	}
	defer rows.Close()

	var types []domain.WorkType
	for rows.Next() {
		var w domain.WorkType
		if err := rows.Scan(&w.ID, &w.Name, &w.Active, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("ListWorkTypes: scan: %w", err)
		}
		types = append(types, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListWorkTypes: rows: %w", err)
	}
	return types, nil
}
