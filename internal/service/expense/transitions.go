package expense

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/seaboard-ops/port-finance/internal/auth"
	"github.com/seaboard-ops/port-finance/internal/domain"
	"github.com/seaboard-ops/port-finance/internal/metrics"
	"github.com/seaboard-ops/port-finance/internal/service"
)

// Approve moves a submitted expense to approved.
func (s *Service) Approve(ctx context.Context, actor *auth.Actor, id uuid.UUID, comments *string) (*domain.Expense, error) {
	if !actor.Role.Can(domain.CapReviewExpense) {
		return nil, fmt.Errorf("Approve: %w", domain.ErrPermissionDenied)
	}
	exp, err := s.review(ctx, actor, id, domain.ExpenseApproved, comments, []domain.ExpenseStatus{domain.ExpenseSubmitted})
	if err != nil {
		return nil, fmt.Errorf("Approve: %w", err)
	}
	return exp, nil
}

// Reject terminates an expense from submitted or approved.
func (s *Service) Reject(ctx context.Context, actor *auth.Actor, id uuid.UUID, comments *string) (*domain.Expense, error) {
	if !actor.Role.Can(domain.CapReviewExpense) {
		return nil, fmt.Errorf("Reject: %w", domain.ErrPermissionDenied)
	}
	exp, err := s.review(ctx, actor, id, domain.ExpenseRejected, comments, []domain.ExpenseStatus{domain.ExpenseSubmitted, domain.ExpenseApproved})
	if err != nil {
		return nil, fmt.Errorf("Reject: %w", err)
	}
	return exp, nil
}

func (s *Service) review(ctx context.Context, actor *auth.Actor, id uuid.UUID, target domain.ExpenseStatus, comments *string, allowedFrom []domain.ExpenseStatus) (*domain.Expense, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("review: begin tx: %w", err)
	}
	defer tx.Rollback()

	exp, err := s.expenses.GetForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	from := exp.Status
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

	exp.Status = target
	exp.ReviewedBy = &actor.ID
	exp.ReviewComments = comments
	exp.UpdatedAt = time.Now().UTC()

	if err := s.expenses.UpdateTransition(ctx, tx, exp, from); err != nil {
		return nil, err
	}
	if err := s.audit.Record(ctx, tx, domain.AuditSubjectExpense, exp.ID.String(), string(target), &actor.ID, nil); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("review: commit: %w", err)
	}

	metrics.WorkflowTransitions.WithLabelValues(domain.AuditSubjectExpense, string(target)).Inc()
	s.audit.TrimSubject(ctx, domain.AuditSubjectExpense, exp.ID.String())
	return exp, nil
}

// Finalize settles an approved expense: status flip, one wallet debit against
// the owner, one bookkeeping record, all in one transaction. Calling it
// again on an already finalized expense is a no-op that returns the stored
// row; any other state is ErrInvalidTransition with nothing written.
func (s *Service) Finalize(ctx context.Context, actor *auth.Actor, id uuid.UUID) (*domain.Expense, error) {
	if !actor.Role.Can(domain.CapFinalizeExpense) {
		return nil, fmt.Errorf("Finalize: %w", domain.ErrPermissionDenied)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Finalize: begin tx: %w", err)
	}
	defer tx.Rollback()

	exp, err := s.expenses.GetForUpdate(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("Finalize: %w", err)
	}
	if exp.Status == domain.ExpenseFinalized {
		return exp, nil
	}
	if exp.Status != domain.ExpenseApproved {
		return nil, fmt.Errorf("Finalize: %w", domain.ErrInvalidTransition)
	}

	exp.Status = domain.ExpenseFinalized
	exp.FinalizedBy = &actor.ID
	exp.UpdatedAt = time.Now().UTC()

	if err := s.expenses.UpdateTransition(ctx, tx, exp, domain.ExpenseApproved); err != nil {
		return nil, fmt.Errorf("Finalize: %w", err)
	}

	sourceRef := exp.ID.String()
	description := fmt.Sprintf("gate expense %s", s.VoucherNumber(exp.Seq))
	if _, err := s.ledger.PostInTx(ctx, tx, service.PostRequest{
		OwnerID:     exp.OwnerID,
		Direction:   domain.DirectionDebit,
		Amount:      exp.TotalAmount,
		SourceKind:  domain.SourceExpense,
		SourceRef:   &sourceRef,
		PostedBy:    actor.ID,
		Description: &description,
	}); err != nil {
		return nil, fmt.Errorf("Finalize: %w", err)
	}

	if err := s.tally.Create(ctx, tx, &domain.TallyLog{
		ID:                 uuid.New(),
		EntryType:          domain.TallyExpense,
		ReferenceID:        exp.ID.String(),
		TallyVoucherNumber: s.VoucherNumber(exp.Seq),
		Amount:             exp.TotalAmount,
		Description:        exp.Description,
		LoggedBy:           actor.ID,
		LoggedAt:           time.Now().UTC(),
	}); err != nil {
		return nil, fmt.Errorf("Finalize: %w", err)
	}

	if err := s.audit.Record(ctx, tx, domain.AuditSubjectExpense, exp.ID.String(), "finalized", &actor.ID, map[string]string{
		"debit": exp.TotalAmount.String(),
	}); err != nil {
		return nil, fmt.Errorf("Finalize: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Finalize: commit: %w", err)
	}

	metrics.WorkflowTransitions.WithLabelValues(domain.AuditSubjectExpense, string(domain.ExpenseFinalized)).Inc()
	metrics.TallyEntries.WithLabelValues(string(domain.TallyExpense)).Inc()
	s.audit.TrimSubject(ctx, domain.AuditSubjectExpense, exp.ID.String())
	return exp, nil
}

// BulkResult reports the outcome for one item of a bulk call.
type BulkResult struct {
	ID      uuid.UUID
	Expense *domain.Expense
	Err     error
}

// BulkApprove applies Approve to each id independently. A failure on one item
// never rolls back another.
func (s *Service) BulkApprove(ctx context.Context, actor *auth.Actor, ids []uuid.UUID, comments *string) []BulkResult {
	results := make([]BulkResult, 0, len(ids))
	for _, id := range ids {
		exp, err := s.Approve(ctx, actor, id, comments)
		results = append(results, BulkResult{ID: id, Expense: exp, Err: err})
	}
	return results
}

// BulkFinalize applies Finalize to each id independently.
func (s *Service) BulkFinalize(ctx context.Context, actor *auth.Actor, ids []uuid.UUID) []BulkResult {
	results := make([]BulkResult, 0, len(ids))
	for _, id := range ids {
		exp, err := s.Finalize(ctx, actor, id)
		results = append(results, BulkResult{ID: id, Expense: exp, Err: err})
	}
	return results
}
