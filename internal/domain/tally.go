package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TallyEntryType string

const (
	TallyExpense TallyEntryType = "expense"
	TallyVoucher TallyEntryType = "voucher"
	TallyRevenue TallyEntryType = "revenue"
	TallyManual  TallyEntryType = "manual"
)

func (t TallyEntryType) IsValid() bool {
	switch t {
	case TallyExpense, TallyVoucher, TallyRevenue, TallyManual:
		return true
	}
	return false
}

// TallyLog records that an entry was posted to the external bookkeeping
// system. Immutable; created exactly once per finalized expense or logged
// voucher, and on demand for revenue/manual entries.
type TallyLog struct {
	ID                 uuid.UUID
	EntryType          TallyEntryType
	ReferenceID        string
	TallyVoucherNumber string
	Amount             decimal.Decimal
	Description        string
	LoggedBy           uuid.UUID
	LoggedAt           time.Time
}
