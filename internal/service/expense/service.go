// Package expense runs the gate expense workflow:
// submitted -> approved/rejected; approved -> finalized/rejected.
// Finalize is the money moment: the status flip, the wallet debit and the
// bookkeeping record commit together or not at all.
package expense

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/seaboard-ops/port-finance/internal/auth"
	"github.com/seaboard-ops/port-finance/internal/domain"
	"github.com/seaboard-ops/port-finance/internal/repository"
	"github.com/seaboard-ops/port-finance/internal/service"
)

type expenseRepo interface {
	Create(ctx context.Context, e *domain.Expense) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Expense, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Expense, error)
	UpdateTransition(ctx context.Context, tx *sql.Tx, e *domain.Expense, fromStatus domain.ExpenseStatus) error
	List(ctx context.Context, f repository.ExpenseFilter) ([]domain.Expense, error)
}

type tallyRepo interface {
	Create(ctx context.Context, tx *sql.Tx, t *domain.TallyLog) error
}

type userRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

type Service struct {
	expenses expenseRepo
	tally    tallyRepo
	users    userRepo
	ledger   *service.LedgerService
	audit    *service.AuditService
	db       *sql.DB

	roadTaxRate       decimal.Decimal
	defaultGateCharge decimal.Decimal
	voucherPrefix     string
}

func NewService(
	expenses expenseRepo,
	tally tallyRepo,
	users userRepo,
	ledger *service.LedgerService,
	audit *service.AuditService,
	db *sql.DB,
	roadTaxRate decimal.Decimal,
	defaultGateCharge decimal.Decimal,
	voucherPrefix string,
) *Service {
	return &Service{
		expenses:          expenses,
		tally:             tally,
		users:             users,
		ledger:            ledger,
		audit:             audit,
		db:                db,
		roadTaxRate:       roadTaxRate,
		defaultGateCharge: defaultGateCharge,
		voucherPrefix:     voucherPrefix,
	}
}

// VoucherNumber builds the tally voucher number for a finalized expense from
// its insertion sequence, e.g. PE-000042.
func (s *Service) VoucherNumber(seq int64) string {
	return fmt.Sprintf("%s%06d", s.voucherPrefix, seq)
}

// SubmitRequest carries the gate charges as pointers: an omitted charge
// falls back to the configured default gate charge, while an explicit zero
// stays zero.
type SubmitRequest struct {
	OccurredAt    time.Time
	Vehicle       string
	VehicleNumber string
	Gate          string
	Direction     domain.GateDirection
	Description   string
	CISFAmount    *decimal.Decimal
	KPTAmount     *decimal.Decimal
	CustomsAmount *decimal.Decimal
	RoadTaxDays   int
	OtherCharges  decimal.Decimal
}

func (s *Service) gateCharge(amount *decimal.Decimal) decimal.Decimal {
	if amount == nil {
		return s.defaultGateCharge
	}
	return *amount
}

func (s *Service) Submit(ctx context.Context, actor *auth.Actor, req SubmitRequest) (*domain.Expense, error) {
	if !actor.Role.Can(domain.CapSubmitExpense) {
		return nil, fmt.Errorf("Submit: %w", domain.ErrPermissionDenied)
	}
	owner, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("Submit: %w", err)
	}
	if !owner.Role.OwnsWallet() {
		return nil, fmt.Errorf("Submit: %w", domain.ErrIneligibleOwner)
	}
	cisf := s.gateCharge(req.CISFAmount)
	kpt := s.gateCharge(req.KPTAmount)
	customs := s.gateCharge(req.CustomsAmount)
	if cisf.IsNegative() || kpt.IsNegative() ||
		customs.IsNegative() || req.OtherCharges.IsNegative() || req.RoadTaxDays < 0 {
		return nil, fmt.Errorf("Submit: %w", domain.ErrInvalidAmount)
	}
	if req.Direction != domain.GateIn && req.Direction != domain.GateOut {
		return nil, fmt.Errorf("Submit: invalid gate direction %q", req.Direction)
	}

	now := time.Now().UTC()
	exp := &domain.Expense{
		ID:            uuid.New(),
		OwnerID:       actor.ID,
		OccurredAt:    req.OccurredAt,
		Vehicle:       req.Vehicle,
		VehicleNumber: domain.NormalizeVehicleNumber(req.VehicleNumber),
		Gate:          req.Gate,
		Direction:     req.Direction,
		Description:   req.Description,
		CISFAmount:    cisf,
		KPTAmount:     kpt,
		CustomsAmount: customs,
		RoadTaxDays:   req.RoadTaxDays,
		OtherCharges:  req.OtherCharges,
		Status:        domain.ExpenseSubmitted,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	exp.ComputeTotals(s.roadTaxRate)

	if err := s.expenses.Create(ctx, exp); err != nil {
		return nil, fmt.Errorf("Submit: %w", err)
	}

	if err := s.audit.RecordNow(ctx, domain.AuditSubjectExpense, exp.ID.String(), "submitted", &actor.ID, map[string]string{
		"total_amount": exp.TotalAmount.String(),
	}); err != nil {
		return nil, fmt.Errorf("Submit: %w", err)
	}
	return exp, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Expense, error) {
	exp, err := s.expenses.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return exp, nil
}

func (s *Service) List(ctx context.Context, actor *auth.Actor, f repository.ExpenseFilter) ([]domain.Expense, error) {
	// Without the view-any capability a caller only ever sees their own.
	if !actor.Role.Can(domain.CapViewAnyWallet) {
		f.OwnerID = &actor.ID
	}
	expenses, err := s.expenses.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	return expenses, nil
}
