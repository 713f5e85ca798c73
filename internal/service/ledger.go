package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/seaboard-ops/port-finance/internal/auth"
	"github.com/seaboard-ops/port-finance/internal/domain"
	"github.com/seaboard-ops/port-finance/internal/metrics"
)

// LedgerService owns the append-only wallet ledgers. All balance math happens
// here: callers never supply balance_after.
type LedgerService struct {
	users  userRepository
	ledger ledgerRepository
	topups topUpRepository
	audit  *AuditService
	db     *sql.DB
}

func NewLedgerService(users userRepository, ledger ledgerRepository, topups topUpRepository, audit *AuditService, db *sql.DB) *LedgerService {
	return &LedgerService{
		users:  users,
		ledger: ledger,
		topups: topups,
		audit:  audit,
		db:     db,
	}
}

type PostRequest struct {
	OwnerID     uuid.UUID
	Direction   domain.Direction
	Amount      decimal.Decimal
	SourceKind  domain.SourceKind
	SourceRef   *string
	PostedBy    uuid.UUID
	Description *string
}

// Post appends one ledger entry in its own transaction.
func (s *LedgerService) Post(ctx context.Context, req PostRequest) (*domain.LedgerEntry, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Post: begin tx: %w", err)
	}
	defer tx.Rollback()

	entry, err := s.PostInTx(ctx, tx, req)
	if err != nil {
		return nil, fmt.Errorf("Post: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Post: commit: %w", err)
	}
	return entry, nil
}

// PostInTx appends one ledger entry inside a caller-owned transaction. The
// owner's users row is locked FOR UPDATE first, which serializes postings per
// owner and makes the tail read stable for the balance computation.
func (s *LedgerService) PostInTx(ctx context.Context, tx *sql.Tx, req PostRequest) (*domain.LedgerEntry, error) {
	if req.Amount.IsNegative() {
		return nil, fmt.Errorf("PostInTx: %w", domain.ErrInvalidAmount)
	}

	owner, err := s.users.GetForUpdate(ctx, tx, req.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("PostInTx: owner: %w", err)
	}
	if !owner.Role.OwnsWallet() {
		return nil, fmt.Errorf("PostInTx: %w", domain.ErrIneligibleOwner)
	}
	if !owner.Active {
		return nil, fmt.Errorf("PostInTx: %w", domain.ErrUserInactive)
	}

	prior := decimal.Zero
	tail, err := s.ledger.LatestForOwner(ctx, tx, req.OwnerID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("PostInTx: tail: %w", err)
	}
	if tail != nil {
		prior = tail.BalanceAfter
	}

	entry := &domain.LedgerEntry{
		ID:          uuid.New(),
		OwnerID:     req.OwnerID,
		Direction:   req.Direction,
		Amount:      req.Amount,
		SourceKind:  req.SourceKind,
		SourceRef:   req.SourceRef,
		PostedBy:    req.PostedBy,
		Description: req.Description,
		PostedAt:    time.Now().UTC(),
	}
	entry.BalanceAfter = entry.Apply(prior)

	if err := s.ledger.Create(ctx, tx, entry); err != nil {
		return nil, fmt.Errorf("PostInTx: %w", err)
	}

	metrics.LedgerPostings.WithLabelValues(string(entry.Direction), string(entry.SourceKind)).Inc()
	return entry, nil
}

// GetBalance returns the owner's current balance. Roles without a wallet
// always read zero.
func (s *LedgerService) GetBalance(ctx context.Context, ownerID uuid.UUID) (decimal.Decimal, error) {
	owner, err := s.users.GetByID(ctx, ownerID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("GetBalance: %w", err)
	}
	if !owner.Role.OwnsWallet() {
		return decimal.Zero, nil
	}

	balance, err := s.ledger.LatestBalance(ctx, ownerID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("GetBalance: %w", err)
	}
	return balance, nil
}

func (s *LedgerService) History(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]domain.LedgerEntry, int, error) {
	entries, total, err := s.ledger.GetByOwner(ctx, ownerID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("History: %w", err)
	}
	return entries, total, nil
}

func (s *LedgerService) HistoryRange(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]domain.LedgerEntry, error) {
	entries, err := s.ledger.GetByOwnerRange(ctx, ownerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("HistoryRange: %w", err)
	}
	return entries, nil
}

type TopUpRequest struct {
	OwnerID         uuid.UUID
	Amount          decimal.Decimal
	PaymentMethod   domain.PaymentMethod
	ReferenceNumber *string
	Remarks         *string
}

// TopUp credits an owner's wallet and records the payment details, both in
// one transaction.
func (s *LedgerService) TopUp(ctx context.Context, actor *auth.Actor, req TopUpRequest) (*domain.WalletTopUp, *domain.LedgerEntry, error) {
	if !actor.Role.Can(domain.CapTopUpWallet) {
		return nil, nil, fmt.Errorf("TopUp: %w", domain.ErrPermissionDenied)
	}
	if !req.Amount.IsPositive() {
		return nil, nil, fmt.Errorf("TopUp: %w", domain.ErrInvalidAmount)
	}
	if !req.PaymentMethod.IsValid() {
		return nil, nil, fmt.Errorf("TopUp: invalid payment method %q", req.PaymentMethod)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("TopUp: begin tx: %w", err)
	}
	defer tx.Rollback()

	topup := &domain.WalletTopUp{
		ID:              uuid.New(),
		OwnerID:         req.OwnerID,
		Amount:          req.Amount,
		PaymentMethod:   req.PaymentMethod,
		ReferenceNumber: req.ReferenceNumber,
		Remarks:         req.Remarks,
		ToppedUpBy:      actor.ID,
		CreatedAt:       time.Now().UTC(),
	}

	sourceRef := topup.ID.String()
	entry, err := s.PostInTx(ctx, tx, PostRequest{
		OwnerID:    req.OwnerID,
		Direction:  domain.DirectionCredit,
		Amount:     req.Amount,
		SourceKind: domain.SourceTopUp,
		SourceRef:  &sourceRef,
		PostedBy:   actor.ID,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("TopUp: %w", err)
	}

	if err := s.topups.Create(ctx, tx, topup); err != nil {
		return nil, nil, fmt.Errorf("TopUp: %w", err)
	}

	if err := s.audit.Record(ctx, tx, domain.AuditSubjectWallet, req.OwnerID.String(), "topup", &actor.ID, map[string]string{
		"amount":         req.Amount.String(),
		"payment_method": string(req.PaymentMethod),
	}); err != nil {
		return nil, nil, fmt.Errorf("TopUp: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("TopUp: commit: %w", err)
	}

	s.audit.TrimSubject(ctx, domain.AuditSubjectWallet, req.OwnerID.String())
	return topup, entry, nil
}

func (s *LedgerService) TopUps(ctx context.Context, ownerID uuid.UUID) ([]domain.WalletTopUp, error) {
	topups, err := s.topups.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("TopUps: %w", err)
	}
	return topups, nil
}
