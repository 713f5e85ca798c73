package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seaboard-ops/port-finance/internal/domain"
	"github.com/seaboard-ops/port-finance/internal/repository"
	"github.com/seaboard-ops/port-finance/internal/testutil"
)

func TestRecordManualEntry(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewTallyService(repository.NewTallyRepository(db))
	ctx := context.Background()

	acct := testutil.SeedUser(t, db, "accountant1", domain.RoleAccountant)

	entry, err := svc.RecordManual(ctx, actorFor(acct), ManualEntryRequest{
		EntryType:          domain.TallyRevenue,
		ReferenceID:        "berth-hire-aug",
		TallyVoucherNumber: "REV-2026-0815",
		Amount:             decimal.RequireFromString("125000.00"),
		Description:        "berth hire receipts",
	})
	require.NoError(t, err)
	assert.Equal(t, acct.ID, entry.LoggedBy)

	entryType := domain.TallyRevenue
	logs, err := svc.List(ctx, actorFor(acct), repository.TallyFilter{EntryType: &entryType})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "REV-2026-0815", logs[0].TallyVoucherNumber)
}

func TestRecordManualRejectsWorkflowEntryTypes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewTallyService(repository.NewTallyRepository(db))

	acct := testutil.SeedUser(t, db, "accountant1", domain.RoleAccountant)

	for _, entryType := range []domain.TallyEntryType{domain.TallyExpense, domain.TallyVoucher} {
		_, err := svc.RecordManual(context.Background(), actorFor(acct), ManualEntryRequest{
			EntryType:          entryType,
			TallyVoucherNumber: "X-001",
			Amount:             decimal.RequireFromString("1.00"),
		})
		assert.Error(t, err, "entry type %s", entryType)
	}
}

func TestTallyListRequiresReportsCapability(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewTallyService(repository.NewTallyRepository(db))

	supervisor := testutil.SeedUser(t, db, "supervisor1", domain.RoleSupervisor)

	_, err := svc.List(context.Background(), actorFor(supervisor), repository.TallyFilter{})
	assert.True(t, errors.Is(err, domain.ErrPermissionDenied))
}
