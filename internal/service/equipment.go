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
	"github.com/seaboard-ops/port-finance/internal/repository"
)

// EquipmentService runs the hire cost engine: usage records, quantity
// derivation on close, and the rate rules that price them.
type EquipmentService struct {
	usage   usageRepository
	catalog catalogRepository
	rates   rateRuleRepository
	audit   *AuditService
	db      *sql.DB
}

func NewEquipmentService(usage usageRepository, catalog catalogRepository, rates rateRuleRepository, audit *AuditService, db *sql.DB) *EquipmentService {
	return &EquipmentService{
		usage:   usage,
		catalog: catalog,
		rates:   rates,
		audit:   audit,
		db:      db,
	}
}

type StartUsageRequest struct {
	PartyID       uuid.UUID
	VehicleTypeID uuid.UUID
	WorkTypeID    uuid.UUID
	VehicleNumber string
	ContractType  domain.ContractType
	StartedAt     time.Time
	Comments      *string
}

func (s *EquipmentService) Start(ctx context.Context, actor *auth.Actor, req StartUsageRequest) (*domain.UsageRecord, error) {
	if !actor.Role.Can(domain.CapManageEquipment) {
		return nil, fmt.Errorf("Start: %w", domain.ErrPermissionDenied)
	}
	if !req.ContractType.IsValid() {
		return nil, fmt.Errorf("Start: invalid contract type %q", req.ContractType)
	}
	if err := s.catalog.VerifyReferences(ctx, req.PartyID, req.VehicleTypeID, req.WorkTypeID); err != nil {
		return nil, fmt.Errorf("Start: %w", err)
	}

	now := time.Now().UTC()
	startedAt := req.StartedAt
	if startedAt.IsZero() {
		startedAt = now
	}

	record := &domain.UsageRecord{
		ID:            uuid.New(),
		PartyID:       req.PartyID,
		VehicleTypeID: req.VehicleTypeID,
		WorkTypeID:    req.WorkTypeID,
		VehicleNumber: domain.NormalizeVehicleNumber(req.VehicleNumber),
		ContractType:  req.ContractType,
		StartedAt:     startedAt,
		Comments:      req.Comments,
		Status:        domain.UsageRunning,
		CreatedBy:     actor.ID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.usage.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("Start: %w", err)
	}
	return record, nil
}

type CloseUsageRequest struct {
	EndedAt  time.Time
	Quantity *decimal.Decimal
	Comments *string
}

// Close completes a running record: derives the billable quantity from the
// contract type, resolves a rate if one applies, and prices the hire. A
// missing rate rule is not an error; the record completes unpriced.
func (s *EquipmentService) Close(ctx context.Context, actor *auth.Actor, id uuid.UUID, req CloseUsageRequest) (*domain.UsageRecord, error) {
	if !actor.Role.Can(domain.CapCloseEquipment) {
		return nil, fmt.Errorf("Close: %w", domain.ErrPermissionDenied)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Close: begin tx: %w", err)
	}
	defer tx.Rollback()

	record, err := s.usage.GetForUpdate(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("Close: %w", err)
	}
	if record.Status != domain.UsageRunning {
		return nil, fmt.Errorf("Close: %w", domain.ErrInvalidTransition)
	}

	endedAt := req.EndedAt
	if endedAt.IsZero() {
		endedAt = time.Now().UTC()
	}
	if endedAt.Before(record.StartedAt) {
		return nil, fmt.Errorf("Close: ended_at precedes started_at")
	}

	quantity, err := domain.DeriveQuantity(record.ContractType, endedAt.Sub(record.StartedAt), req.Quantity)
	if err != nil {
		return nil, fmt.Errorf("Close: %w", err)
	}

	// A rate already on the record wins; otherwise consult the rules. No
	// matching rule leaves the record unpriced without complaint.
	if record.Rate == nil {
		rule, err := s.rates.Resolve(ctx, tx, record.PartyID, record.VehicleTypeID, record.WorkTypeID, record.ContractType, record.StartedAt)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("Close: resolve rate: %w", err)
		}
		if rule != nil {
			rate := rule.Rate
			record.Rate = &rate
		}
	}

	record.Quantity = &quantity
	if record.Rate != nil {
		total := quantity.Mul(*record.Rate)
		record.TotalCost = &total
	}
	if req.Comments != nil {
		record.Comments = req.Comments
	}
	record.EndedAt = &endedAt
	record.EndedBy = &actor.ID
	record.Status = domain.UsageCompleted
	record.UpdatedAt = time.Now().UTC()

	if err := s.usage.Complete(ctx, tx, record); err != nil {
		return nil, fmt.Errorf("Close: %w", err)
	}

	if err := s.audit.Record(ctx, tx, domain.AuditSubjectUsage, record.ID.String(), "closed", &actor.ID, map[string]string{
		"quantity": quantity.String(),
	}); err != nil {
		return nil, fmt.Errorf("Close: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Close: commit: %w", err)
	}

	metrics.UsageClosed.WithLabelValues(string(record.ContractType)).Inc()
	s.audit.TrimSubject(ctx, domain.AuditSubjectUsage, record.ID.String())
	return record, nil
}

func (s *EquipmentService) Get(ctx context.Context, id uuid.UUID) (*domain.UsageRecord, error) {
	record, err := s.usage.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return record, nil
}

func (s *EquipmentService) List(ctx context.Context, f repository.UsageFilter) ([]domain.UsageRecord, error) {
	records, err := s.usage.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	return records, nil
}

type CreateRateRuleRequest struct {
	PartyID       uuid.UUID
	VehicleTypeID uuid.UUID
	WorkTypeID    uuid.UUID
	ContractType  domain.ContractType
	Rate          decimal.Decimal
	EffectiveFrom time.Time
}

func (s *EquipmentService) CreateRateRule(ctx context.Context, actor *auth.Actor, req CreateRateRuleRequest) (*domain.RateRule, error) {
	if !actor.Role.Can(domain.CapManageRates) {
		return nil, fmt.Errorf("CreateRateRule: %w", domain.ErrPermissionDenied)
	}
	if !req.ContractType.IsValid() {
		return nil, fmt.Errorf("CreateRateRule: invalid contract type %q", req.ContractType)
	}
	if req.Rate.IsNegative() {
		return nil, fmt.Errorf("CreateRateRule: %w", domain.ErrInvalidAmount)
	}
	if err := s.catalog.VerifyReferences(ctx, req.PartyID, req.VehicleTypeID, req.WorkTypeID); err != nil {
		return nil, fmt.Errorf("CreateRateRule: %w", err)
	}

	rule := &domain.RateRule{
		ID:            uuid.New(),
		PartyID:       req.PartyID,
		VehicleTypeID: req.VehicleTypeID,
		WorkTypeID:    req.WorkTypeID,
		ContractType:  req.ContractType,
		Rate:          req.Rate,
		EffectiveFrom: req.EffectiveFrom,
		Active:        true,
		CreatedBy:     actor.ID,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.rates.Create(ctx, rule); err != nil {
		return nil, fmt.Errorf("CreateRateRule: %w", err)
	}

	if err := s.audit.RecordNow(ctx, domain.AuditSubjectRateRule, rule.ID.String(), "created", &actor.ID, map[string]string{
		"rate":          rule.Rate.String(),
		"contract_type": string(rule.ContractType),
	}); err != nil {
		return nil, fmt.Errorf("CreateRateRule: %w", err)
	}
	return rule, nil
}

func (s *EquipmentService) DeactivateRateRule(ctx context.Context, actor *auth.Actor, id uuid.UUID) error {
	if !actor.Role.Can(domain.CapManageRates) {
		return fmt.Errorf("DeactivateRateRule: %w", domain.ErrPermissionDenied)
	}
	if err := s.rates.Deactivate(ctx, id); err != nil {
		return fmt.Errorf("DeactivateRateRule: %w", err)
	}
	if err := s.audit.RecordNow(ctx, domain.AuditSubjectRateRule, id.String(), "deactivated", &actor.ID, nil); err != nil {
		return fmt.Errorf("DeactivateRateRule: %w", err)
	}
	return nil
}

func (s *EquipmentService) ListRateRules(ctx context.Context, partyID uuid.UUID) ([]domain.RateRule, error) {
	rules, err := s.rates.ListByParty(ctx, partyID)
	if err != nil {
		return nil, fmt.Errorf("ListRateRules: %w", err)
	}
	return rules, nil
}
