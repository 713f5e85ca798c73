// Package voucher runs the payment voucher workflow:
// submitted -> approved/declined; approved -> logged/declined.
// Log mirrors expense finalization: status flip, wallet debit and
// bookkeeping record in one transaction.
package voucher

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/seaboard-ops/port-finance/internal/auth"
	"github.com/seaboard-ops/port-finance/internal/domain"
	"github.com/seaboard-ops/port-finance/internal/metrics"
	"github.com/seaboard-ops/port-finance/internal/repository"
	"github.com/seaboard-ops/port-finance/internal/service"
)

type voucherRepo interface {
	Create(ctx context.Context, v *domain.Voucher) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Voucher, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Voucher, error)
	UpdateTransition(ctx context.Context, tx *sql.Tx, v *domain.Voucher, fromStatus domain.VoucherStatus) error
	List(ctx context.Context, f repository.VoucherFilter) ([]domain.Voucher, error)
}

type tallyRepo interface {
	Create(ctx context.Context, tx *sql.Tx, t *domain.TallyLog) error
}

type userRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

type Service struct {
	vouchers voucherRepo
	tally    tallyRepo
	users    userRepo
	ledger   *service.LedgerService
	audit    *service.AuditService
	db       *sql.DB
}

func NewService(vouchers voucherRepo, tally tallyRepo, users userRepo, ledger *service.LedgerService, audit *service.AuditService, db *sql.DB) *Service {
	return &Service{
		vouchers: vouchers,
		tally:    tally,
		users:    users,
		ledger:   ledger,
		audit:    audit,
		db:       db,
	}
}

type SubmitRequest struct {
	OccurredAt  time.Time
	Category    domain.VoucherCategory
	Amount      decimal.Decimal
	DocumentRef string
	Remarks     *string
}

func (s *Service) Submit(ctx context.Context, actor *auth.Actor, req SubmitRequest) (*domain.Voucher, error) {
	if !actor.Role.Can(domain.CapSubmitVoucher) {
		return nil, fmt.Errorf("Submit: %w", domain.ErrPermissionDenied)
	}
	owner, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("Submit: %w", err)
	}
	if !owner.Role.OwnsWallet() {
		return nil, fmt.Errorf("Submit: %w", domain.ErrIneligibleOwner)
	}
	if !req.Category.IsValid() {
		return nil, fmt.Errorf("Submit: invalid category %q", req.Category)
	}
	if req.Amount.IsNegative() {
		return nil, fmt.Errorf("Submit: %w", domain.ErrInvalidAmount)
	}
	if req.DocumentRef == "" {
		return nil, fmt.Errorf("Submit: document reference required")
	}

	now := time.Now().UTC()
	v := &domain.Voucher{
		ID:          uuid.New(),
		OwnerID:     actor.ID,
		OccurredAt:  req.OccurredAt,
		Category:    req.Category,
		Amount:      req.Amount,
		DocumentRef: req.DocumentRef,
		Remarks:     req.Remarks,
		Status:      domain.VoucherSubmitted,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.vouchers.Create(ctx, v); err != nil {
		return nil, fmt.Errorf("Submit: %w", err)
	}

	if err := s.audit.RecordNow(ctx, domain.AuditSubjectVoucher, v.ID.String(), "submitted", &actor.ID, map[string]string{
		"amount":   v.Amount.String(),
		"category": string(v.Category),
	}); err != nil {
		return nil, fmt.Errorf("Submit: %w", err)
	}
	return v, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Voucher, error) {
	v, err := s.vouchers.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return v, nil
}

func (s *Service) List(ctx context.Context, actor *auth.Actor, f repository.VoucherFilter) ([]domain.Voucher, error) {
	if !actor.Role.Can(domain.CapViewAnyWallet) {
		f.OwnerID = &actor.ID
	}
	vouchers, err := s.vouchers.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	return vouchers, nil
}

// Approve moves a submitted voucher to approved.
func (s *Service) Approve(ctx context.Context, actor *auth.Actor, id uuid.UUID, comments *string) (*domain.Voucher, error) {
	if !actor.Role.Can(domain.CapApproveVoucher) {
		return nil, fmt.Errorf("Approve: %w", domain.ErrPermissionDenied)
	}
	v, err := s.review(ctx, actor, id, domain.VoucherApproved, comments, []domain.VoucherStatus{domain.VoucherSubmitted})
	if err != nil {
		return nil, fmt.Errorf("Approve: %w", err)
	}
	return v, nil
}

// Decline terminates a voucher from submitted or approved.
func (s *Service) Decline(ctx context.Context, actor *auth.Actor, id uuid.UUID, comments *string) (*domain.Voucher, error) {
	if !actor.Role.Can(domain.CapApproveVoucher) {
		return nil, fmt.Errorf("Decline: %w", domain.ErrPermissionDenied)
	}
	v, err := s.review(ctx, actor, id, domain.VoucherDeclined, comments, []domain.VoucherStatus{domain.VoucherSubmitted, domain.VoucherApproved})
	if err != nil {
		return nil, fmt.Errorf("Decline: %w", err)
	}
	return v, nil
}

func (s *Service) review(ctx context.Context, actor *auth.Actor, id uuid.UUID, target domain.VoucherStatus, comments *string, allowedFrom []domain.VoucherStatus) (*domain.Voucher, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("review: begin tx: %w", err)
	}
	defer tx.Rollback()

	v, err := s.vouchers.GetForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	from := v.Status
	allowed := false
	for _, st := range allowedFrom {
		if from == st {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, domain.ErrInvalidTransition
	}

	v.Status = target
	v.ApprovedBy = &actor.ID
	v.ApprovalComments = comments
	v.UpdatedAt = time.Now().UTC()

	if err := s.vouchers.UpdateTransition(ctx, tx, v, from); err != nil {
		return nil, err
	}
	if err := s.audit.Record(ctx, tx, domain.AuditSubjectVoucher, v.ID.String(), string(target), &actor.ID, nil); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("review: commit: %w", err)
	}

	metrics.WorkflowTransitions.WithLabelValues(domain.AuditSubjectVoucher, string(target)).Inc()
	s.audit.TrimSubject(ctx, domain.AuditSubjectVoucher, v.ID.String())
	return v, nil
}

// Log settles an approved voucher against the external books: status flip,
// one wallet debit, one bookkeeping record, all in one transaction. An
// already logged voucher is returned unchanged; any other state is
// ErrInvalidTransition with nothing written.
func (s *Service) Log(ctx context.Context, actor *auth.Actor, id uuid.UUID, tallyReference string) (*domain.Voucher, error) {
	if !actor.Role.Can(domain.CapLogVoucher) {
		return nil, fmt.Errorf("Log: %w", domain.ErrPermissionDenied)
	}
	if tallyReference == "" {
		return nil, fmt.Errorf("Log: tally reference required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Log: begin tx: %w", err)
	}
	defer tx.Rollback()

	v, err := s.vouchers.GetForUpdate(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("Log: %w", err)
	}
	if v.Status == domain.VoucherLogged {
		return v, nil
	}
	if v.Status != domain.VoucherApproved {
		return nil, fmt.Errorf("Log: %w", domain.ErrInvalidTransition)
	}

	v.Status = domain.VoucherLogged
	v.LoggedBy = &actor.ID
	v.TallyReference = &tallyReference
	v.UpdatedAt = time.Now().UTC()

	if err := s.vouchers.UpdateTransition(ctx, tx, v, domain.VoucherApproved); err != nil {
		return nil, fmt.Errorf("Log: %w", err)
	}

	sourceRef := v.ID.String()
	description := fmt.Sprintf("voucher %s", tallyReference)
	if _, err := s.ledger.PostInTx(ctx, tx, service.PostRequest{
		OwnerID:     v.OwnerID,
		Direction:   domain.DirectionDebit,
		Amount:      v.Amount,
		SourceKind:  domain.SourceVoucher,
		SourceRef:   &sourceRef,
		PostedBy:    actor.ID,
		Description: &description,
	}); err != nil {
		return nil, fmt.Errorf("Log: %w", err)
	}

	tallyDescription := string(v.Category)
	if v.Remarks != nil {
		tallyDescription = *v.Remarks
	}
	if err := s.tally.Create(ctx, tx, &domain.TallyLog{
		ID:                 uuid.New(),
		EntryType:          domain.TallyVoucher,
		ReferenceID:        v.ID.String(),
		TallyVoucherNumber: tallyReference,
		Amount:             v.Amount,
		Description:        tallyDescription,
		LoggedBy:           actor.ID,
		LoggedAt:           time.Now().UTC(),
	}); err != nil {
		return nil, fmt.Errorf("Log: %w", err)
	}

	if err := s.audit.Record(ctx, tx, domain.AuditSubjectVoucher, v.ID.String(), "logged", &actor.ID, map[string]string{
		"debit":           v.Amount.String(),
		"tally_reference": tallyReference,
	}); err != nil {
		return nil, fmt.Errorf("Log: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Log: commit: %w", err)
	}

	metrics.WorkflowTransitions.WithLabelValues(domain.AuditSubjectVoucher, string(domain.VoucherLogged)).Inc()
	metrics.TallyEntries.WithLabelValues(string(domain.TallyVoucher)).Inc()
	s.audit.TrimSubject(ctx, domain.AuditSubjectVoucher, v.ID.String())
	return v, nil
}

// BulkResult reports the outcome for one item of a bulk call.
type BulkResult struct {
	ID      uuid.UUID
	Voucher *domain.Voucher
	Err     error
}

// BulkApprove applies Approve to each id independently.
func (s *Service) BulkApprove(ctx context.Context, actor *auth.Actor, ids []uuid.UUID, comments *string) []BulkResult {
	results := make([]BulkResult, 0, len(ids))
	for _, id := range ids {
		v, err := s.Approve(ctx, actor, id, comments)
		results = append(results, BulkResult{ID: id, Voucher: v, Err: err})
	}
	return results
}

// BulkLog applies Log to each id independently, pairing ids with references
// positionally.
func (s *Service) BulkLog(ctx context.Context, actor *auth.Actor, items []BulkLogItem) []BulkResult {
	results := make([]BulkResult, 0, len(items))
	for _, item := range items {
		v, err := s.Log(ctx, actor, item.ID, item.TallyReference)
		results = append(results, BulkResult{ID: item.ID, Voucher: v, Err: err})
	}
	return results
}

type BulkLogItem struct {
	ID             uuid.UUID
	TallyReference string
}
