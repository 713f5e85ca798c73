package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type VoucherStatus string

const (
	VoucherSubmitted VoucherStatus = "submitted"
	VoucherApproved  VoucherStatus = "approved"
	VoucherDeclined  VoucherStatus = "declined"
	VoucherLogged    VoucherStatus = "logged"
)

type VoucherCategory string

const (
	VoucherFuel          VoucherCategory = "fuel"
	VoucherMaintenance   VoucherCategory = "maintenance"
	VoucherOfficeSupply  VoucherCategory = "office_supplies"
	VoucherTravel        VoucherCategory = "travel"
	VoucherMeals         VoucherCategory = "meals"
	VoucherCommunication VoucherCategory = "communication"
	VoucherUtilities     VoucherCategory = "utilities"
	VoucherProfessional  VoucherCategory = "professional_services"
	VoucherOther         VoucherCategory = "others"
)

func (c VoucherCategory) IsValid() bool {
	switch c {
	case VoucherFuel, VoucherMaintenance, VoucherOfficeSupply, VoucherTravel,
		VoucherMeals, VoucherCommunication, VoucherUtilities,
		VoucherProfessional, VoucherOther:
		return true
	}
	return false
}

// Voucher is a discretionary spend record backed by a supporting document.
type Voucher struct {
	ID               uuid.UUID
	OwnerID          uuid.UUID
	OccurredAt       time.Time
	Category         VoucherCategory
	Amount           decimal.Decimal
	DocumentRef      string
	Remarks          *string
	Status           VoucherStatus
	ApprovedBy       *uuid.UUID
	LoggedBy         *uuid.UUID
	ApprovalComments *string
	TallyReference   *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (s VoucherStatus) Terminal() bool {
	return s == VoucherDeclined || s == VoucherLogged
}
