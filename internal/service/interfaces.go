package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/seaboard-ops/port-finance/internal/domain"
	"github.com/seaboard-ops/port-finance/internal/repository"
)

type userRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.User, error)
}

type ledgerRepository interface {
	Create(ctx context.Context, tx *sql.Tx, entry *domain.LedgerEntry) error
	LatestForOwner(ctx context.Context, tx *sql.Tx, ownerID uuid.UUID) (*domain.LedgerEntry, error)
	LatestBalance(ctx context.Context, ownerID uuid.UUID) (decimal.Decimal, error)
	GetByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]domain.LedgerEntry, int, error)
	GetByOwnerRange(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]domain.LedgerEntry, error)
}

type topUpRepository interface {
	Create(ctx context.Context, tx *sql.Tx, t *domain.WalletTopUp) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.WalletTopUp, error)
}

type usageRepository interface {
	Create(ctx context.Context, u *domain.UsageRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.UsageRecord, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.UsageRecord, error)
	Complete(ctx context.Context, tx *sql.Tx, u *domain.UsageRecord) error
	List(ctx context.Context, f repository.UsageFilter) ([]domain.UsageRecord, error)
}

type catalogRepository interface {
	VerifyReferences(ctx context.Context, partyID, vehicleTypeID, workTypeID uuid.UUID) error
}

type rateRuleRepository interface {
	Create(ctx context.Context, rule *domain.RateRule) error
	Resolve(ctx context.Context, tx *sql.Tx, partyID, vehicleTypeID, workTypeID uuid.UUID, contract domain.ContractType, asOf time.Time) (*domain.RateRule, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	ListByParty(ctx context.Context, partyID uuid.UUID) ([]domain.RateRule, error)
}

type tallyRepository interface {
	Create(ctx context.Context, tx *sql.Tx, t *domain.TallyLog) error
	CreateStandalone(ctx context.Context, t *domain.TallyLog) error
	List(ctx context.Context, f repository.TallyFilter) ([]domain.TallyLog, error)
}

type auditRepository interface {
	Create(ctx context.Context, tx *sql.Tx, a *domain.AuditLog) error
	TrimSubject(ctx context.Context, subjectType, subjectID string, keep int) (int64, error)
	TrimAll(ctx context.Context, keep int) (int64, error)
	ListBySubject(ctx context.Context, subjectType, subjectID string) ([]domain.AuditLog, error)
}
