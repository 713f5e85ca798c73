// Package seed inserts the baseline records a fresh deployment needs: one
// user per role and the master data the equipment workflows reference.
package seed

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/seaboard-ops/port-finance/internal/domain"
	"github.com/seaboard-ops/port-finance/internal/repository"
)

var defaultUsers = []struct {
	username string
	name     string
	role     domain.Role
}{
	{"admin", "Administrator", domain.RoleAdmin},
	{"manager", "Operations Manager", domain.RoleManager},
	{"supervisor", "Field Supervisor", domain.RoleSupervisor},
	{"accountant", "Accounts Desk", domain.RoleAccountant},
	{"office", "Office Staff", domain.RoleOffice},
}

var defaultParties = []string{"KPT Stevedores", "Eastern Cargo Movers"}
var defaultVehicleTypes = []string{"Hydra Crane", "Forklift", "Trailer"}
var defaultWorkTypes = []string{"Loading", "Unloading", "Shifting"}

// Run is idempotent in the practical sense: reruns fail on the unique
// username and name constraints rather than duplicating data.
func Run(ctx context.Context, db *sql.DB) error {
	users := repository.NewUserRepository(db)
	catalog := repository.NewCatalogRepository(db)

	password := os.Getenv("SEED_PASSWORD")
	if password == "" {
		password = "changeme"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed.Run: hash password: %w", err)
	}

	now := time.Now().UTC()
	for _, u := range defaultUsers {
		err := users.Create(ctx, &domain.User{
			ID:           uuid.New(),
			Username:     u.username,
			Name:         u.name,
			PasswordHash: string(hash),
			Role:         u.role,
			Active:       true,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		if err != nil {
			return fmt.Errorf("seed.Run: user %s: %w", u.username, err)
		}
	}

	for _, name := range defaultParties {
		if err := catalog.CreateParty(ctx, &domain.PartyMaster{ID: uuid.New(), Name: name, Active: true, CreatedAt: now}); err != nil {
			return fmt.Errorf("seed.Run: party %s: %w", name, err)
		}
	}
	for _, name := range defaultVehicleTypes {
		if err := catalog.CreateVehicleType(ctx, &domain.VehicleType{ID: uuid.New(), Name: name, Active: true, CreatedAt: now}); err != nil {
			return fmt.Errorf("seed.Run: vehicle type %s: %w", name, err)
		}
	}
	for _, name := range defaultWorkTypes {
		if err := catalog.CreateWorkType(ctx, &domain.WorkType{ID: uuid.New(), Name: name, Active: true, CreatedAt: now}); err != nil {
			return fmt.Errorf("seed.Run: work type %s: %w", name, err)
		}
	}

	return nil
}
