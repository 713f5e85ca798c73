package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentIMPS   PaymentMethod = "imps"
	PaymentNEFT   PaymentMethod = "neft"
	PaymentCash   PaymentMethod = "cash"
	PaymentCheque PaymentMethod = "cheque"
	PaymentOther  PaymentMethod = "other"
)

func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentIMPS, PaymentNEFT, PaymentCash, PaymentCheque, PaymentOther:
		return true
	}
	return false
}

// WalletTopUp records an accountant crediting a field user's wallet.
type WalletTopUp struct {
	ID              uuid.UUID
	OwnerID         uuid.UUID
	Amount          decimal.Decimal
	PaymentMethod   PaymentMethod
	ReferenceNumber *string
	Remarks         *string
	ToppedUpBy      uuid.UUID
	CreatedAt       time.Time
}
