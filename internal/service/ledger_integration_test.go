package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seaboard-ops/port-finance/internal/auth"
	"github.com/seaboard-ops/port-finance/internal/domain"
	"github.com/seaboard-ops/port-finance/internal/repository"
	"github.com/seaboard-ops/port-finance/internal/testutil"
)

func newLedgerService(db *sql.DB) *LedgerService {
	audit := NewAuditService(repository.NewAuditRepository(db), 10, db)
	return NewLedgerService(
		repository.NewUserRepository(db),
		repository.NewLedgerRepository(db),
		repository.NewTopUpRepository(db),
		audit,
		db,
	)
}

func actorFor(u *domain.User) *auth.Actor {
	return &auth.Actor{ID: u.ID, Username: u.Username, Role: u.Role}
}

func TestPostComputesRunningBalance(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newLedgerService(db)
	ctx := context.Background()

	owner := testutil.SeedUser(t, db, "supervisor1", domain.RoleSupervisor)
	accountant := testutil.SeedUser(t, db, "accountant1", domain.RoleAccountant)

	steps := []struct {
		direction domain.Direction
		amount    string
		want      string
	}{
		{domain.DirectionCredit, "1000.00", "1000.00"},
		{domain.DirectionDebit, "200.00", "800.00"},
		{domain.DirectionDebit, "0.00", "800.00"},
		{domain.DirectionCredit, "49.50", "849.50"},
		{domain.DirectionDebit, "1000.00", "-150.50"},
	}
	for i, step := range steps {
		entry, err := svc.Post(ctx, PostRequest{
			OwnerID:    owner.ID,
			Direction:  step.direction,
			Amount:     decimal.RequireFromString(step.amount),
			SourceKind: domain.SourceAdjustment,
			PostedBy:   accountant.ID,
		})
		require.NoError(t, err, "step %d", i)
		assert.True(t, entry.BalanceAfter.Equal(decimal.RequireFromString(step.want)),
			"step %d: want %s, got %s", i, step.want, entry.BalanceAfter)
	}

	balance, err := svc.GetBalance(ctx, owner.ID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.RequireFromString("-150.50")))
}

func TestPostRejectsNegativeAmount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newLedgerService(db)

	owner := testutil.SeedUser(t, db, "supervisor1", domain.RoleSupervisor)

	_, err := svc.Post(context.Background(), PostRequest{
		OwnerID:    owner.ID,
		Direction:  domain.DirectionCredit,
		Amount:     decimal.RequireFromString("-1.00"),
		SourceKind: domain.SourceAdjustment,
		PostedBy:   owner.ID,
	})
	assert.True(t, errors.Is(err, domain.ErrInvalidAmount))
}

func TestAccountantsNeverOwnLedgers(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newLedgerService(db)
	ctx := context.Background()

	accountant := testutil.SeedUser(t, db, "accountant1", domain.RoleAccountant)

	_, err := svc.Post(ctx, PostRequest{
		OwnerID:    accountant.ID,
		Direction:  domain.DirectionCredit,
		Amount:     decimal.RequireFromString("10.00"),
		SourceKind: domain.SourceAdjustment,
		PostedBy:   accountant.ID,
	})
	assert.True(t, errors.Is(err, domain.ErrIneligibleOwner))

	balance, err := svc.GetBalance(ctx, accountant.ID)
	require.NoError(t, err)
	assert.True(t, balance.IsZero())
}

func TestDuplicateSourcePostingRejected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newLedgerService(db)
	ctx := context.Background()

	owner := testutil.SeedUser(t, db, "supervisor1", domain.RoleSupervisor)
	ref := "expense-abc"

	_, err := svc.Post(ctx, PostRequest{
		OwnerID:    owner.ID,
		Direction:  domain.DirectionDebit,
		Amount:     decimal.RequireFromString("25.00"),
		SourceKind: domain.SourceExpense,
		SourceRef:  &ref,
		PostedBy:   owner.ID,
	})
	require.NoError(t, err)

	_, err = svc.Post(ctx, PostRequest{
		OwnerID:    owner.ID,
		Direction:  domain.DirectionDebit,
		Amount:     decimal.RequireFromString("25.00"),
		SourceKind: domain.SourceExpense,
		SourceRef:  &ref,
		PostedBy:   owner.ID,
	})
	assert.True(t, errors.Is(err, domain.ErrDuplicatePosting))

	balance, err := svc.GetBalance(ctx, owner.ID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.RequireFromString("-25.00")))
}

func TestTopUpCreditsWallet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newLedgerService(db)
	ctx := context.Background()

	owner := testutil.SeedUser(t, db, "supervisor1", domain.RoleSupervisor)
	accountant := testutil.SeedUser(t, db, "accountant1", domain.RoleAccountant)

	topup, entry, err := svc.TopUp(ctx, actorFor(accountant), TopUpRequest{
		OwnerID:       owner.ID,
		Amount:        decimal.RequireFromString("500.00"),
		PaymentMethod: domain.PaymentIMPS,
	})
	require.NoError(t, err)
	assert.Equal(t, owner.ID, topup.OwnerID)
	assert.True(t, entry.BalanceAfter.Equal(decimal.RequireFromString("500.00")))

	balance, err := svc.GetBalance(ctx, owner.ID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.RequireFromString("500.00")))

	topups, err := svc.TopUps(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, topups, 1)
	assert.Equal(t, accountant.ID, topups[0].ToppedUpBy)
}

func TestTopUpRequiresCapability(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newLedgerService(db)

	owner := testutil.SeedUser(t, db, "supervisor1", domain.RoleSupervisor)

	_, _, err := svc.TopUp(context.Background(), actorFor(owner), TopUpRequest{
		OwnerID:       owner.ID,
		Amount:        decimal.RequireFromString("10.00"),
		PaymentMethod: domain.PaymentCash,
	})
	assert.True(t, errors.Is(err, domain.ErrPermissionDenied))
}
