package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/seaboard-ops/port-finance/internal/auth"
	"github.com/seaboard-ops/port-finance/internal/domain"
	"github.com/seaboard-ops/port-finance/internal/metrics"
	"github.com/seaboard-ops/port-finance/internal/repository"
)

// TallyService serves reporting reads over the bookkeeping log and accepts
// manual entries. Expense and voucher records are written by their workflows,
// never through here.
type TallyService struct {
	tally tallyRepository
}

func NewTallyService(tally tallyRepository) *TallyService {
	return &TallyService{tally: tally}
}

func (s *TallyService) List(ctx context.Context, actor *auth.Actor, f repository.TallyFilter) ([]domain.TallyLog, error) {
	if !actor.Role.Can(domain.CapViewReports) {
		return nil, fmt.Errorf("List: %w", domain.ErrPermissionDenied)
	}
	logs, err := s.tally.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	return logs, nil
}

type ManualEntryRequest struct {
	EntryType          domain.TallyEntryType
	ReferenceID        string
	TallyVoucherNumber string
	Amount             decimal.Decimal
	Description        string
}

// RecordManual writes a manual or revenue bookkeeping record. These carry no
// ledger effect.
func (s *TallyService) RecordManual(ctx context.Context, actor *auth.Actor, req ManualEntryRequest) (*domain.TallyLog, error) {
	if !actor.Role.Can(domain.CapRecordManualTally) {
		return nil, fmt.Errorf("RecordManual: %w", domain.ErrPermissionDenied)
	}
	if req.EntryType != domain.TallyManual && req.EntryType != domain.TallyRevenue {
		return nil, fmt.Errorf("RecordManual: entry type %q not allowed", req.EntryType)
	}
	if req.TallyVoucherNumber == "" {
		return nil, fmt.Errorf("RecordManual: tally voucher number required")
	}

	entry := &domain.TallyLog{
		ID:                 uuid.New(),
		EntryType:          req.EntryType,
		ReferenceID:        req.ReferenceID,
		TallyVoucherNumber: req.TallyVoucherNumber,
		Amount:             req.Amount,
		Description:        req.Description,
		LoggedBy:           actor.ID,
		LoggedAt:           time.Now().UTC(),
	}
	if err := s.tally.CreateStandalone(ctx, entry); err != nil {
		return nil, fmt.Errorf("RecordManual: %w", err)
	}

	metrics.TallyEntries.WithLabelValues(string(entry.EntryType)).Inc()
	return entry, nil
}
