package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/seaboard-ops/port-finance/internal/domain"
	"github.com/seaboard-ops/port-finance/internal/logging"
)

// AuditService appends workflow audit rows and enforces the per-subject
// retention bound.
type AuditService struct {
	audit auditRepository
	keep  int
	db    *sql.DB
}

func NewAuditService(audit auditRepository, keep int, db *sql.DB) *AuditService {
	return &AuditService{audit: audit, keep: keep, db: db}
}

// Record writes one audit row inside the caller's transaction. changes is
// marshalled to JSON; pass nil for transitions with nothing extra to say.
func (s *AuditService) Record(ctx context.Context, tx *sql.Tx, subjectType, subjectID, action string, actorID *uuid.UUID, changes any) error {
	payload := json.RawMessage(`{}`)
	if changes != nil {
		b, err := json.Marshal(changes)
		if err != nil {
			return fmt.Errorf("Record: marshal changes: %w", err)
		}
		payload = b
	}

	entry := &domain.AuditLog{
		ID:          uuid.New(),
		SubjectType: subjectType,
		SubjectID:   subjectID,
		Action:      action,
		ActorID:     actorID,
		Changes:     payload,
		RecordedAt:  time.Now().UTC(),
	}
	if err := s.audit.Create(ctx, tx, entry); err != nil {
		return fmt.Errorf("Record: %w", err)
	}
	return nil
}

// RecordNow writes one audit row in its own transaction, for actions that do
// not run inside a workflow transaction.
func (s *AuditService) RecordNow(ctx context.Context, subjectType, subjectID, action string, actorID *uuid.UUID, changes any) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("RecordNow: begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := s.Record(ctx, tx, subjectType, subjectID, action, actorID, changes); err != nil {
		return fmt.Errorf("RecordNow: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("RecordNow: commit: %w", err)
	}
	return nil
}

// TrimSubject applies the retention bound to one subject. Called after a
// workflow commit; failures are logged and swallowed since retention is
// best-effort housekeeping.
func (s *AuditService) TrimSubject(ctx context.Context, subjectType, subjectID string) {
	if _, err := s.audit.TrimSubject(ctx, subjectType, subjectID, s.keep); err != nil {
		logging.FromContext(ctx).Warn("audit trim failed",
			"subject_type", subjectType, "subject_id", subjectID, "error", err)
	}
}

// Trim applies the retention bound across all subjects. Exposed through the
// admin CLI.
func (s *AuditService) Trim(ctx context.Context, keep int) (int64, error) {
	if keep <= 0 {
		keep = s.keep
	}
	deleted, err := s.audit.TrimAll(ctx, keep)
	if err != nil {
		return 0, fmt.Errorf("Trim: %w", err)
	}
	return deleted, nil
}

func (s *AuditService) History(ctx context.Context, subjectType, subjectID string) ([]domain.AuditLog, error) {
	logs, err := s.audit.ListBySubject(ctx, subjectType, subjectID)
	if err != nil {
		return nil, fmt.Errorf("History: %w", err)
	}
	return logs, nil
}
