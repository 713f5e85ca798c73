package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type AuditLog struct {
	ID          uuid.UUID
	SubjectType string
	SubjectID   string
	Action      string
	ActorID     *uuid.UUID
	Changes     json.RawMessage
	RecordedAt  time.Time
}

// Audit subject types used by the workflows.
const (
	AuditSubjectExpense  = "expense"
	AuditSubjectVoucher  = "voucher"
	AuditSubjectUsage    = "usage_record"
	AuditSubjectRateRule = "rate_rule"
	AuditSubjectWallet   = "wallet"
)
