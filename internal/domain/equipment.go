package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ContractType string

const (
	ContractFixed  ContractType = "fixed"
	ContractShift  ContractType = "shift"
	ContractTonnes ContractType = "tonnes"
	ContractHours  ContractType = "hours"
)

func (c ContractType) IsValid() bool {
	switch c {
	case ContractFixed, ContractShift, ContractTonnes, ContractHours:
		return true
	}
	return false
}

type UsageStatus string

const (
	UsageRunning   UsageStatus = "running"
	UsageCompleted UsageStatus = "completed"
)

// UsageRecord tracks one billable hire of equipment against a counterparty.
// Quantity, rate and total are only set when the record completes; a rate,
// once set, is never overwritten.
type UsageRecord struct {
	ID            uuid.UUID
	PartyID       uuid.UUID
	VehicleTypeID uuid.UUID
	WorkTypeID    uuid.UUID
	VehicleNumber string
	ContractType  ContractType
	StartedAt     time.Time
	EndedAt       *time.Time
	Quantity      *decimal.Decimal
	Rate          *decimal.Decimal
	TotalCost     *decimal.Decimal
	Comments      *string
	Status        UsageStatus
	CreatedBy     uuid.UUID
	EndedBy       *uuid.UUID
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// RateRule prices one (party, vehicle type, work type, contract type)
// combination from its effective date onward.
type RateRule struct {
	ID            uuid.UUID
	PartyID       uuid.UUID
	VehicleTypeID uuid.UUID
	WorkTypeID    uuid.UUID
	ContractType  ContractType
	Rate          decimal.Decimal
	EffectiveFrom time.Time
	Active        bool
	CreatedBy     uuid.UUID
	CreatedAt     time.Time
}

const hoursPerShift = 8

// DeriveQuantity converts an elapsed usage duration into the billable
// quantity for the contract type. For tonnes contracts the quantity cannot
// be derived and must be supplied by the closer.
func DeriveQuantity(contract ContractType, elapsed time.Duration, supplied *decimal.Decimal) (decimal.Decimal, error) {
	switch contract {
	case ContractHours:
		return elapsedHours(elapsed), nil
	case ContractShift:
		// Round up to the next half shift.
		shifts := elapsedHours(elapsed).Div(decimal.NewFromInt(hoursPerShift))
		halves := shifts.Mul(decimal.NewFromInt(2)).Ceil()
		return halves.Div(decimal.NewFromInt(2)), nil
	case ContractFixed:
		return decimal.NewFromInt(1), nil
	case ContractTonnes:
		if supplied == nil || !supplied.IsPositive() {
			return decimal.Zero, ErrMissingQuantity
		}
		return *supplied, nil
	default:
		return decimal.Zero, fmt.Errorf("unknown contract type %q", contract)
	}
}

func elapsedHours(d time.Duration) decimal.Decimal {
	seconds := decimal.NewFromInt(int64(d / time.Second))
	return seconds.DivRound(decimal.NewFromInt(3600), 2)
}

// NormalizeVehicleNumber maps a vehicle registration to its canonical form.
func NormalizeVehicleNumber(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
