package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/seaboard-ops/port-finance/internal/domain"
)

func SeedUser(t *testing.T, db *sql.DB, username string, role domain.Role) *domain.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := &domain.User{
		ID:           uuid.New(),
		Username:     username,
		Name:         username,
		PasswordHash: string(hash),
		Role:         role,
		Active:       true,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}

	_, err = db.Exec(
		`INSERT INTO users (id, username, name, password_hash, role, active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		u.ID, u.Username, u.Name, u.PasswordHash, u.Role, u.Active, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}
	return u
}

// SeedMasterData inserts one party, vehicle type and work type and returns
// their ids.
func SeedMasterData(t *testing.T, db *sql.DB) (partyID, vehicleTypeID, workTypeID uuid.UUID) {
	t.Helper()

	partyID = uuid.New()
	vehicleTypeID = uuid.New()
	workTypeID = uuid.New()

	now := time.Now().UTC()
	for _, stmt := range []struct {
		query string
		id    uuid.UUID
		name  string
	}{
		{`INSERT INTO party_masters (id, name, active, created_at) VALUES ($1, $2, TRUE, $3)`, partyID, "Test Party " + partyID.String()[:8]},
		{`INSERT INTO vehicle_types (id, name, active, created_at) VALUES ($1, $2, TRUE, $3)`, vehicleTypeID, "Test Vehicle " + vehicleTypeID.String()[:8]},
		{`INSERT INTO work_types (id, name, active, created_at) VALUES ($1, $2, TRUE, $3)`, workTypeID, "Test Work " + workTypeID.String()[:8]},
	} {
		if _, err := db.Exec(stmt.query, stmt.id, stmt.name, now); err != nil {
			t.Fatalf("seed master data: %v", err)
		}
	}
	return partyID, vehicleTypeID, workTypeID
}

// SeedRateRule inserts an active rate rule effective from well in the past.
func SeedRateRule(t *testing.T, db *sql.DB, partyID, vehicleTypeID, workTypeID, createdBy uuid.UUID, contract domain.ContractType, rate string) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := db.Exec(
		`INSERT INTO rate_rules (id, party_id, vehicle_type_id, work_type_id, contract_type, rate, effective_from, active, created_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, $8, $9)`,
		id, partyID, vehicleTypeID, workTypeID, contract, rate,
		time.Now().UTC().AddDate(-1, 0, 0), createdBy, time.Now().UTC(),
	)
	if err != nil {
		t.Fatalf("seed rate rule: %v", err)
	}
	return id
}
