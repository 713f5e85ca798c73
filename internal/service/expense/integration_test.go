package expense

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seaboard-ops/port-finance/internal/auth"
	"github.com/seaboard-ops/port-finance/internal/domain"
	"github.com/seaboard-ops/port-finance/internal/repository"
	"github.com/seaboard-ops/port-finance/internal/service"
	"github.com/seaboard-ops/port-finance/internal/testutil"
)

type testEnv struct {
	db      *sql.DB
	svc     *Service
	ledger  *service.LedgerService
	tally   *repository.TallyRepository
	owner   *domain.User
	manager *domain.User
	acct    *domain.User
}

func setup(t *testing.T) *testEnv {
	db := testutil.SetupTestDB(t)

	users := repository.NewUserRepository(db)
	tally := repository.NewTallyRepository(db)
	audit := service.NewAuditService(repository.NewAuditRepository(db), 10, db)
	ledger := service.NewLedgerService(users, repository.NewLedgerRepository(db), repository.NewTopUpRepository(db), audit, db)
	svc := NewService(
		repository.NewExpenseRepository(db),
		tally, users, ledger, audit, db,
		decimal.RequireFromString("50.00"),
		decimal.RequireFromString("50.00"),
		"PE-",
	)
	return &testEnv{
		db:      db,
		svc:     svc,
		ledger:  ledger,
		tally:   tally,
		owner:   testutil.SeedUser(t, db, "supervisor1", domain.RoleSupervisor),
		manager: testutil.SeedUser(t, db, "manager1", domain.RoleManager),
		acct:    testutil.SeedUser(t, db, "accountant1", domain.RoleAccountant),
	}
}

func actorFor(u *domain.User) *auth.Actor {
	return &auth.Actor{ID: u.ID, Username: u.Username, Role: u.Role}
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func (e *testEnv) submit(t *testing.T) *domain.Expense {
	exp, err := e.svc.Submit(context.Background(), actorFor(e.owner), SubmitRequest{
		OccurredAt:    time.Now().UTC(),
		Vehicle:       "trailer",
		VehicleNumber: "ka-01 ab 1234",
		Gate:          "gate 4",
		Direction:     domain.GateIn,
		CISFAmount:    dec("50.00"),
		KPTAmount:     dec("50.00"),
		CustomsAmount: dec("50.00"),
		RoadTaxDays:   1,
		OtherCharges:  decimal.Zero,
	})
	require.NoError(t, err)
	return exp
}

func TestSubmitComputesTotals(t *testing.T) {
	env := setup(t)
	exp := env.submit(t)

	assert.Equal(t, domain.ExpenseSubmitted, exp.Status)
	assert.Equal(t, "KA-01 AB 1234", exp.VehicleNumber)
	assert.True(t, exp.RoadTaxAmount.Equal(decimal.RequireFromString("50.00")))
	assert.True(t, exp.TotalAmount.Equal(decimal.RequireFromString("200.00")))
	assert.Positive(t, exp.Seq)
}

func TestSubmitDefaultsOmittedGateCharges(t *testing.T) {
	env := setup(t)

	// CISF and KPT omitted: both take the configured default. Customs is an
	// explicit zero and must stay zero.
	exp, err := env.svc.Submit(context.Background(), actorFor(env.owner), SubmitRequest{
		OccurredAt:    time.Now().UTC(),
		Vehicle:       "trailer",
		VehicleNumber: "KA-02 CD 5678",
		Gate:          "gate 2",
		Direction:     domain.GateOut,
		CustomsAmount: dec("0.00"),
		RoadTaxDays:   1,
	})
	require.NoError(t, err)
	assert.True(t, exp.CISFAmount.Equal(decimal.RequireFromString("50.00")))
	assert.True(t, exp.KPTAmount.Equal(decimal.RequireFromString("50.00")))
	assert.True(t, exp.CustomsAmount.IsZero())
	assert.True(t, exp.TotalAmount.Equal(decimal.RequireFromString("150.00")))
}

func TestSubmitRejectsAccountant(t *testing.T) {
	env := setup(t)

	_, err := env.svc.Submit(context.Background(), actorFor(env.acct), SubmitRequest{
		OccurredAt: time.Now().UTC(),
		Direction:  domain.GateIn,
	})
	assert.Error(t, err)
}

func TestApproveFinalizeSettlesOnce(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	exp := env.submit(t)

	approved, err := env.svc.Approve(ctx, actorFor(env.manager), exp.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.ExpenseApproved, approved.Status)
	require.NotNil(t, approved.ReviewedBy)
	assert.Equal(t, env.manager.ID, *approved.ReviewedBy)

	final, err := env.svc.Finalize(ctx, actorFor(env.acct), exp.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ExpenseFinalized, final.Status)

	// Exactly one debit against the supervisor's wallet.
	balance, err := env.ledger.GetBalance(ctx, env.owner.ID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.RequireFromString("-200.00")))

	entryType := domain.TallyExpense
	logs, err := env.tally.List(ctx, repository.TallyFilter{EntryType: &entryType})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, fmt.Sprintf("PE-%06d", exp.Seq), logs[0].TallyVoucherNumber)
	assert.True(t, logs[0].Amount.Equal(decimal.RequireFromString("200.00")))
	assert.Equal(t, exp.ID.String(), logs[0].ReferenceID)

	written, err := env.tally.ExistsForReference(ctx, domain.TallyExpense, exp.ID.String())
	require.NoError(t, err)
	assert.True(t, written)

	// Retrying a finalized expense is a no-op, not a second settlement.
	again, err := env.svc.Finalize(ctx, actorFor(env.acct), exp.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ExpenseFinalized, again.Status)

	balance, err = env.ledger.GetBalance(ctx, env.owner.ID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.RequireFromString("-200.00")))

	logs, err = env.tally.List(ctx, repository.TallyFilter{EntryType: &entryType})
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestFinalizeRequiresApproval(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	exp := env.submit(t)

	_, err := env.svc.Finalize(ctx, actorFor(env.acct), exp.ID)
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition))

	got, err := env.svc.Get(ctx, exp.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ExpenseSubmitted, got.Status)

	balance, err := env.ledger.GetBalance(ctx, env.owner.ID)
	require.NoError(t, err)
	assert.True(t, balance.IsZero())
}

func TestRejectApprovedExpense(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	exp := env.submit(t)

	_, err := env.svc.Approve(ctx, actorFor(env.manager), exp.ID, nil)
	require.NoError(t, err)

	comments := "duplicate of an earlier entry"
	rejected, err := env.svc.Reject(ctx, actorFor(env.manager), exp.ID, &comments)
	require.NoError(t, err)
	assert.Equal(t, domain.ExpenseRejected, rejected.Status)
	require.NotNil(t, rejected.ReviewComments)
	assert.Equal(t, comments, *rejected.ReviewComments)

	// A rejected expense can no longer be finalized.
	_, err = env.svc.Finalize(ctx, actorFor(env.acct), exp.ID)
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition))

	balance, err := env.ledger.GetBalance(ctx, env.owner.ID)
	require.NoError(t, err)
	assert.True(t, balance.IsZero())
}

func TestReviewRequiresCapability(t *testing.T) {
	env := setup(t)
	exp := env.submit(t)

	_, err := env.svc.Approve(context.Background(), actorFor(env.owner), exp.ID, nil)
	assert.True(t, errors.Is(err, domain.ErrPermissionDenied))

	_, err = env.svc.Finalize(context.Background(), actorFor(env.manager), exp.ID)
	assert.True(t, errors.Is(err, domain.ErrPermissionDenied))
}

func TestBulkApproveReportsPerItem(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	a := env.submit(t)
	b := env.submit(t)
	_, err := env.svc.Approve(ctx, actorFor(env.manager), b.ID, nil)
	require.NoError(t, err)

	results := env.svc.BulkApprove(ctx, actorFor(env.manager), []uuid.UUID{a.ID, b.ID}, nil)
	require.Len(t, results, 2)

	assert.NoError(t, results[0].Err)
	assert.Equal(t, domain.ExpenseApproved, results[0].Expense.Status)

	// Already approved: the second item fails without affecting the first.
	assert.True(t, errors.Is(results[1].Err, domain.ErrInvalidTransition))
}

func TestListPinsNonPrivilegedToOwnExpenses(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	mine := env.submit(t)
	other := testutil.SeedUser(t, env.db, "supervisor2", domain.RoleSupervisor)
	_, err := env.svc.Submit(ctx, actorFor(other), SubmitRequest{
		OccurredAt: time.Now().UTC(),
		Direction:  domain.GateOut,
	})
	require.NoError(t, err)

	list, err := env.svc.List(ctx, actorFor(env.owner), repository.ExpenseFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, mine.ID, list[0].ID)

	list, err = env.svc.List(ctx, actorFor(env.manager), repository.ExpenseFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
