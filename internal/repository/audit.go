package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/seaboard-ops/port-finance/internal/domain"
)

const auditColumns = `id, subject_type, subject_id, action, actor_id, changes, recorded_at`

type AuditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Create(ctx context.Context, tx *sql.Tx, a *domain.AuditLog) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO audit_logs (
			id, subject_type, subject_id, action, actor_id, changes, recorded_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.SubjectType, a.SubjectID, a.Action, a.ActorID, []byte(a.Changes), a.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

// TrimSubject deletes all but the newest keep entries for one subject.
func (r *AuditRepository) TrimSubject(ctx context.Context, subjectType, subjectID string, keep int) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM audit_logs
		WHERE subject_type = $1 AND subject_id = $2 AND id NOT IN (
			SELECT id FROM audit_logs
			WHERE subject_type = $1 AND subject_id = $2
			ORDER BY recorded_at DESC, id DESC
			LIMIT $3
		)`,
		subjectType, subjectID, keep,
	)
	if err != nil {
		return 0, fmt.Errorf("TrimSubject: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("TrimSubject: rows affected: %w", err)
	}
	return rows, nil
}

// TrimAll applies the retention bound across every subject in one statement.
func (r *AuditRepository) TrimAll(ctx context.Context, keep int) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM audit_logs WHERE id IN (
			SELECT id FROM (
				SELECT id, row_number() OVER (
					PARTITION BY subject_type, subject_id
					ORDER BY recorded_at DESC, id DESC
				) AS rn
				FROM audit_logs
			) ranked
			WHERE rn > $1
		)`,
		keep,
	)
	if err != nil {
		return 0, fmt.Errorf("TrimAll: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("TrimAll: rows affected: %w", err)
	}
	return rows, nil
}

func (r *AuditRepository) ListBySubject(ctx context.Context, subjectType, subjectID string) ([]domain.AuditLog, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+auditColumns+` FROM audit_logs
		WHERE subject_type = $1 AND subject_id = $2
		ORDER BY recorded_at DESC, id DESC`,
		subjectType, subjectID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListBySubject: %w", err)
	}
	defer rows.Close()

	var logs []domain.AuditLog
	for rows.Next() {
		var a domain.AuditLog
		var changes []byte
		err := rows.Scan(
			&a.ID, &a.SubjectType, &a.SubjectID, &a.Action, &a.ActorID,
			&changes, &a.RecordedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("ListBySubject: scan: %w", err)
		}
		a.Changes = changes
		logs = append(logs, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListBySubject: rows: %w", err)
	}
	return logs, nil
}
