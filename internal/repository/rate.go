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

const rateRuleColumns = `id, party_id, vehicle_type_id, work_type_id,
	contract_type, rate, effective_from, active, created_by, created_at`

type RateRuleRepository struct {
	db *sql.DB
}

func NewRateRuleRepository(db *sql.DB) *RateRuleRepository {
	return &RateRuleRepository{db: db}
}

func (r *RateRuleRepository) Create(ctx context.Context, rule *domain.RateRule) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO rate_rules (
			id, party_id, vehicle_type_id, work_type_id, contract_type, rate,
			effective_from, active, created_by, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		rule.ID, rule.PartyID, rule.VehicleTypeID, rule.WorkTypeID,
		rule.ContractType, rule.Rate, rule.EffectiveFrom, rule.Active,
		rule.CreatedBy, rule.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "") {
			return fmt.Errorf("Create: %w", domain.ErrDuplicateRateRule)
		}
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

// Resolve returns the newest active rule whose effective date is on or before
// asOf for the given combination. ErrNotFound when no rule matches.
func (r *RateRuleRepository) Resolve(ctx context.Context, tx *sql.Tx, partyID, vehicleTypeID, workTypeID uuid.UUID, contract domain.ContractType, asOf time.Time) (*domain.RateRule, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+rateRuleColumns+` FROM rate_rules
		WHERE party_id = $1 AND vehicle_type_id = $2 AND work_type_id = $3
			AND contract_type = $4 AND active AND effective_from <= $5
		ORDER BY effective_from DESC
		LIMIT 1`,
		partyID, vehicleTypeID, workTypeID, contract, asOf,
	)
	rule, err := scanRateRule(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("Resolve: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("Resolve: %w", err)
	}
	return rule, nil
}

func (r *RateRuleRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE rate_rules SET active = FALSE WHERE id = $1`, id,
	)
	if err != nil {
		return fmt.Errorf("Deactivate: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Deactivate: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("Deactivate: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *RateRuleRepository) ListByParty(ctx context.Context, partyID uuid.UUID) ([]domain.RateRule, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+rateRuleColumns+` FROM rate_rules
		WHERE party_id = $1
		ORDER BY effective_from DESC, created_at DESC`,
		partyID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByParty: %w", err)
	}
	defer rows.Close()

	var rules []domain.RateRule
	for rows.Next() {
		rule, err := scanRateRule(rows)
		if err != nil {
			return nil, fmt.Errorf("ListByParty: scan: %w", err)
		}
		rules = append(rules, *rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByParty: rows: %w", err)
	}
	return rules, nil
}

func scanRateRule(s scanner) (*domain.RateRule, error) {
	var rule domain.RateRule
	err := s.Scan(
		&rule.ID, &rule.PartyID, &rule.VehicleTypeID, &rule.WorkTypeID,
		&rule.ContractType, &rule.Rate, &rule.EffectiveFrom, &rule.Active,
		&rule.CreatedBy, &rule.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rule, nil
}
