package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Direction string

const (
	DirectionCredit Direction = "credit"
	DirectionDebit  Direction = "debit"
)

type SourceKind string

const (
	SourceExpense    SourceKind = "expense"
	SourceVoucher    SourceKind = "voucher"
	SourceTopUp      SourceKind = "topup"
	SourceAdjustment SourceKind = "adjustment"
)

// LedgerEntry is one immutable row in an owner's wallet ledger. BalanceAfter
// is computed at posting time from the owner's most recent entry; it is never
// supplied by callers and never updated.
type LedgerEntry struct {
	ID           uuid.UUID
	OwnerID      uuid.UUID
	Direction    Direction
	Amount       decimal.Decimal
	SourceKind   SourceKind
	SourceRef    *string
	PostedBy     uuid.UUID
	Description  *string
	BalanceAfter decimal.Decimal
	PostedAt     time.Time
}

// Apply returns the balance that results from posting this entry on top of
// the given prior balance.
func (e *LedgerEntry) Apply(prior decimal.Decimal) decimal.Decimal {
	if e.Direction == DirectionCredit {
		return prior.Add(e.Amount)
	}
	return prior.Sub(e.Amount)
}
