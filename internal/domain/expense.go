package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ExpenseStatus string

const (
	ExpenseSubmitted ExpenseStatus = "submitted"
	ExpenseApproved  ExpenseStatus = "approved"
	ExpenseRejected  ExpenseStatus = "rejected"
	ExpenseFinalized ExpenseStatus = "finalized"
)

type GateDirection string

const (
	GateIn  GateDirection = "in"
	GateOut GateDirection = "out"
)

// Expense is a port gate expense submitted by a supervisor. The total is the
// sum of the fixed gate charges, the per-day road tax, and any ad-hoc
// charges; it is computed once at submission and never recomputed.
type Expense struct {
	ID             uuid.UUID
	Seq            int64
	OwnerID        uuid.UUID
	OccurredAt     time.Time
	Vehicle        string
	VehicleNumber  string
	Gate           string
	Direction      GateDirection
	Description    string
	CISFAmount     decimal.Decimal
	KPTAmount      decimal.Decimal
	CustomsAmount  decimal.Decimal
	RoadTaxDays    int
	RoadTaxAmount  decimal.Decimal
	OtherCharges   decimal.Decimal
	TotalAmount    decimal.Decimal
	Status         ExpenseStatus
	ReviewedBy     *uuid.UUID
	FinalizedBy    *uuid.UUID
	ReviewComments *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ComputeTotals fills RoadTaxAmount (rate per day times days) and TotalAmount
// from the additive components.
func (e *Expense) ComputeTotals(roadTaxRatePerDay decimal.Decimal) {
	e.RoadTaxAmount = roadTaxRatePerDay.Mul(decimal.NewFromInt(int64(e.RoadTaxDays)))
	e.TotalAmount = e.CISFAmount.
		Add(e.KPTAmount).
		Add(e.CustomsAmount).
		Add(e.RoadTaxAmount).
		Add(e.OtherCharges)
}

func (s ExpenseStatus) Terminal() bool {
	return s == ExpenseRejected || s == ExpenseFinalized
}
