package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/seaboard-ops/port-finance/internal/domain"
)

type TopUpRepository struct {
	db *sql.DB
}

func NewTopUpRepository(db *sql.DB) *TopUpRepository {
	return &TopUpRepository{db: db}
}

// Create records the top-up in the same transaction as its ledger credit.
func (r *TopUpRepository) Create(ctx context.Context, tx *sql.Tx, t *domain.WalletTopUp) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO wallet_topups (
			id, owner_id, amount, payment_method, reference_number, remarks,
			topped_up_by, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		t.ID, t.OwnerID, t.Amount, t.PaymentMethod, t.ReferenceNumber,
		t.Remarks, t.ToppedUpBy, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *TopUpRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.WalletTopUp, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner_id, amount, payment_method, reference_number, remarks,
			topped_up_by, created_at
		FROM wallet_topups
		WHERE owner_id = $1
		ORDER BY created_at DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByOwner: %w", err)
	}
	defer rows.Close()

	var topups []domain.WalletTopUp
	for rows.Next() {
		var t domain.WalletTopUp
		err := rows.Scan(
			&t.ID, &t.OwnerID, &t.Amount, &t.PaymentMethod, &t.ReferenceNumber,
			&t.Remarks, &t.ToppedUpBy, &t.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("ListByOwner: scan: %w", err)
		}
		topups = append(topups, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByOwner: rows: %w", err)
	}
	return topups, nil
}
