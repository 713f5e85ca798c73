package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seaboard-ops/port-finance/internal/domain"
	"github.com/seaboard-ops/port-finance/internal/repository"
	"github.com/seaboard-ops/port-finance/internal/testutil"
)

type equipmentEnv struct {
	db            *sql.DB
	svc           *EquipmentService
	manager       *domain.User
	partyID       uuid.UUID
	vehicleTypeID uuid.UUID
	workTypeID    uuid.UUID
}

func setupEquipment(t *testing.T) *equipmentEnv {
	db := testutil.SetupTestDB(t)

	audit := NewAuditService(repository.NewAuditRepository(db), 10, db)
	svc := NewEquipmentService(
		repository.NewUsageRepository(db),
		repository.NewCatalogRepository(db),
		repository.NewRateRuleRepository(db),
		audit,
		db,
	)
	partyID, vehicleTypeID, workTypeID := testutil.SeedMasterData(t, db)
	return &equipmentEnv{
		db:            db,
		svc:           svc,
		manager:       testutil.SeedUser(t, db, "manager1", domain.RoleManager),
		partyID:       partyID,
		vehicleTypeID: vehicleTypeID,
		workTypeID:    workTypeID,
	}
}

func (e *equipmentEnv) start(t *testing.T, contract domain.ContractType, startedAt time.Time) *domain.UsageRecord {
	record, err := e.svc.Start(context.Background(), actorFor(e.manager), StartUsageRequest{
		PartyID:       e.partyID,
		VehicleTypeID: e.vehicleTypeID,
		WorkTypeID:    e.workTypeID,
		VehicleNumber: "cr-450",
		ContractType:  contract,
		StartedAt:     startedAt,
	})
	require.NoError(t, err)
	return record
}

func TestStartRejectsUnknownReferences(t *testing.T) {
	env := setupEquipment(t)

	_, err := env.svc.Start(context.Background(), actorFor(env.manager), StartUsageRequest{
		PartyID:       uuid.New(),
		VehicleTypeID: env.vehicleTypeID,
		WorkTypeID:    env.workTypeID,
		ContractType:  domain.ContractHours,
	})
	assert.True(t, errors.Is(err, domain.ErrUnknownReference))
}

func TestClosePricesFromRateRule(t *testing.T) {
	env := setupEquipment(t)
	ctx := context.Background()

	testutil.SeedRateRule(t, env.db, env.partyID, env.vehicleTypeID, env.workTypeID,
		env.manager.ID, domain.ContractHours, "120.00")

	startedAt := time.Now().UTC().Add(-150 * time.Minute)
	record := env.start(t, domain.ContractHours, startedAt)
	assert.Equal(t, domain.UsageRunning, record.Status)

	closed, err := env.svc.Close(ctx, actorFor(env.manager), record.ID, CloseUsageRequest{
		EndedAt: startedAt.Add(150 * time.Minute),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.UsageCompleted, closed.Status)
	require.NotNil(t, closed.Quantity)
	assert.True(t, closed.Quantity.Equal(decimal.RequireFromString("2.5")))
	require.NotNil(t, closed.Rate)
	assert.True(t, closed.Rate.Equal(decimal.RequireFromString("120.00")))
	require.NotNil(t, closed.TotalCost)
	assert.True(t, closed.TotalCost.Equal(decimal.RequireFromString("300.00")))
	require.NotNil(t, closed.EndedBy)
	assert.Equal(t, env.manager.ID, *closed.EndedBy)
}

func TestCloseWithoutRateRuleCompletesUnpriced(t *testing.T) {
	env := setupEquipment(t)
	ctx := context.Background()

	startedAt := time.Now().UTC().Add(-9 * time.Hour)
	record := env.start(t, domain.ContractShift, startedAt)

	closed, err := env.svc.Close(ctx, actorFor(env.manager), record.ID, CloseUsageRequest{
		EndedAt: startedAt.Add(9 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.UsageCompleted, closed.Status)
	require.NotNil(t, closed.Quantity)
	assert.True(t, closed.Quantity.Equal(decimal.RequireFromString("1.5")))
	assert.Nil(t, closed.Rate)
	assert.Nil(t, closed.TotalCost)
}

func TestCloseTonnesRequiresQuantity(t *testing.T) {
	env := setupEquipment(t)
	ctx := context.Background()

	record := env.start(t, domain.ContractTonnes, time.Now().UTC().Add(-time.Hour))

	_, err := env.svc.Close(ctx, actorFor(env.manager), record.ID, CloseUsageRequest{})
	assert.True(t, errors.Is(err, domain.ErrMissingQuantity))

	got, err := env.svc.Get(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.UsageRunning, got.Status)

	qty := decimal.RequireFromString("42.7")
	closed, err := env.svc.Close(ctx, actorFor(env.manager), record.ID, CloseUsageRequest{
		Quantity: &qty,
	})
	require.NoError(t, err)
	require.NotNil(t, closed.Quantity)
	assert.True(t, closed.Quantity.Equal(qty))
}

func TestCloseCompletedRecordFails(t *testing.T) {
	env := setupEquipment(t)
	ctx := context.Background()

	record := env.start(t, domain.ContractFixed, time.Now().UTC().Add(-time.Hour))

	_, err := env.svc.Close(ctx, actorFor(env.manager), record.ID, CloseUsageRequest{})
	require.NoError(t, err)

	_, err = env.svc.Close(ctx, actorFor(env.manager), record.ID, CloseUsageRequest{})
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition))
}

func TestCloseBeforeStartRejected(t *testing.T) {
	env := setupEquipment(t)

	startedAt := time.Now().UTC()
	record := env.start(t, domain.ContractHours, startedAt)

	_, err := env.svc.Close(context.Background(), actorFor(env.manager), record.ID, CloseUsageRequest{
		EndedAt: startedAt.Add(-time.Minute),
	})
	assert.Error(t, err)
}

func TestDuplicateRateRuleRejected(t *testing.T) {
	env := setupEquipment(t)
	ctx := context.Background()

	effective := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	req := CreateRateRuleRequest{
		PartyID:       env.partyID,
		VehicleTypeID: env.vehicleTypeID,
		WorkTypeID:    env.workTypeID,
		ContractType:  domain.ContractHours,
		Rate:          decimal.RequireFromString("100.00"),
		EffectiveFrom: effective,
	}
	_, err := env.svc.CreateRateRule(ctx, actorFor(env.manager), req)
	require.NoError(t, err)

	_, err = env.svc.CreateRateRule(ctx, actorFor(env.manager), req)
	assert.True(t, errors.Is(err, domain.ErrDuplicateRateRule))
}

func TestNewerRateRuleWins(t *testing.T) {
	env := setupEquipment(t)
	ctx := context.Background()

	testutil.SeedRateRule(t, env.db, env.partyID, env.vehicleTypeID, env.workTypeID,
		env.manager.ID, domain.ContractFixed, "500.00")
	_, err := env.svc.CreateRateRule(ctx, actorFor(env.manager), CreateRateRuleRequest{
		PartyID:       env.partyID,
		VehicleTypeID: env.vehicleTypeID,
		WorkTypeID:    env.workTypeID,
		ContractType:  domain.ContractFixed,
		Rate:          decimal.RequireFromString("650.00"),
		EffectiveFrom: time.Now().UTC().AddDate(0, -1, 0),
	})
	require.NoError(t, err)

	record := env.start(t, domain.ContractFixed, time.Now().UTC().Add(-time.Hour))
	closed, err := env.svc.Close(ctx, actorFor(env.manager), record.ID, CloseUsageRequest{})
	require.NoError(t, err)
	require.NotNil(t, closed.Rate)
	assert.True(t, closed.Rate.Equal(decimal.RequireFromString("650.00")))
	require.NotNil(t, closed.TotalCost)
	assert.True(t, closed.TotalCost.Equal(decimal.RequireFromString("650.00")))
}
