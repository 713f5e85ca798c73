package domain

import (
	"time"

	"github.com/google/uuid"
)

// Master data referenced by usage records and rate rules.

type PartyMaster struct {
	ID        uuid.UUID
	Name      string
	Active    bool
	CreatedAt time.Time
}

type VehicleType struct {
	ID        uuid.UUID
	Name      string
	Active    bool
	CreatedAt time.Time
}

type WorkType struct {
	ID        uuid.UUID
	Name      string
	Active    bool
	CreatedAt time.Time
}
