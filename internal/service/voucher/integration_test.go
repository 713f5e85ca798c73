package voucher

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

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
	db     *sql.DB
	svc    *Service
	ledger *service.LedgerService
	tally  *repository.TallyRepository
	owner  *domain.User
	admin  *domain.User
	acct   *domain.User
}

func setup(t *testing.T) *testEnv {
	db := testutil.SetupTestDB(t)

	users := repository.NewUserRepository(db)
	tally := repository.NewTallyRepository(db)
	audit := service.NewAuditService(repository.NewAuditRepository(db), 10, db)
	ledger := service.NewLedgerService(users, repository.NewLedgerRepository(db), repository.NewTopUpRepository(db), audit, db)
	svc := NewService(repository.NewVoucherRepository(db), tally, users, ledger, audit, db)

	return &testEnv{
		db:     db,
		svc:    svc,
		ledger: ledger,
		tally:  tally,
		owner:  testutil.SeedUser(t, db, "supervisor1", domain.RoleSupervisor),
		admin:  testutil.SeedUser(t, db, "admin1", domain.RoleAdmin),
		acct:   testutil.SeedUser(t, db, "accountant1", domain.RoleAccountant),
	}
}

func actorFor(u *domain.User) *auth.Actor {
	return &auth.Actor{ID: u.ID, Username: u.Username, Role: u.Role}
}

func (e *testEnv) submit(t *testing.T) *domain.Voucher {
	remarks := "diesel for the yard generator"
	v, err := e.svc.Submit(context.Background(), actorFor(e.owner), SubmitRequest{
		OccurredAt:  time.Now().UTC(),
		Category:    domain.VoucherFuel,
		Amount:      decimal.RequireFromString("750.00"),
		DocumentRef: "INV-8841",
		Remarks:     &remarks,
	})
	require.NoError(t, err)
	return v
}

func TestSubmitRequiresDocumentRef(t *testing.T) {
	env := setup(t)

	_, err := env.svc.Submit(context.Background(), actorFor(env.owner), SubmitRequest{
		OccurredAt: time.Now().UTC(),
		Category:   domain.VoucherFuel,
		Amount:     decimal.RequireFromString("10.00"),
	})
	assert.Error(t, err)
}

func TestApproveLogSettlesOnce(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	v := env.submit(t)

	approved, err := env.svc.Approve(ctx, actorFor(env.admin), v.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.VoucherApproved, approved.Status)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, env.admin.ID, *approved.ApprovedBy)

	logged, err := env.svc.Log(ctx, actorFor(env.acct), v.ID, "TLY-2026-0099")
	require.NoError(t, err)
	assert.Equal(t, domain.VoucherLogged, logged.Status)
	require.NotNil(t, logged.TallyReference)
	assert.Equal(t, "TLY-2026-0099", *logged.TallyReference)

	balance, err := env.ledger.GetBalance(ctx, env.owner.ID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.RequireFromString("-750.00")))

	entryType := domain.TallyVoucher
	logs, err := env.tally.List(ctx, repository.TallyFilter{EntryType: &entryType})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "TLY-2026-0099", logs[0].TallyVoucherNumber)
	assert.Equal(t, "diesel for the yard generator", logs[0].Description)

	// Logging twice leaves the books untouched.
	again, err := env.svc.Log(ctx, actorFor(env.acct), v.ID, "TLY-2026-9999")
	require.NoError(t, err)
	require.NotNil(t, again.TallyReference)
	assert.Equal(t, "TLY-2026-0099", *again.TallyReference)

	balance, err = env.ledger.GetBalance(ctx, env.owner.ID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.RequireFromString("-750.00")))

	logs, err = env.tally.List(ctx, repository.TallyFilter{EntryType: &entryType})
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestDeclinedVoucherNeverPosts(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	v := env.submit(t)

	comments := "no supporting invoice"
	declined, err := env.svc.Decline(ctx, actorFor(env.admin), v.ID, &comments)
	require.NoError(t, err)
	assert.Equal(t, domain.VoucherDeclined, declined.Status)

	_, err = env.svc.Log(ctx, actorFor(env.acct), v.ID, "TLY-2026-0100")
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition))

	balance, err := env.ledger.GetBalance(ctx, env.owner.ID)
	require.NoError(t, err)
	assert.True(t, balance.IsZero())

	entryType := domain.TallyVoucher
	logs, err := env.tally.List(ctx, repository.TallyFilter{EntryType: &entryType})
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestDeclineAfterApproval(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	v := env.submit(t)

	_, err := env.svc.Approve(ctx, actorFor(env.admin), v.ID, nil)
	require.NoError(t, err)

	declined, err := env.svc.Decline(ctx, actorFor(env.admin), v.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.VoucherDeclined, declined.Status)
}

func TestApproveRequiresAdmin(t *testing.T) {
	env := setup(t)
	v := env.submit(t)

	_, err := env.svc.Approve(context.Background(), actorFor(env.acct), v.ID, nil)
	assert.True(t, errors.Is(err, domain.ErrPermissionDenied))
}

func TestLogRequiresReference(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	v := env.submit(t)

	_, err := env.svc.Approve(ctx, actorFor(env.admin), v.ID, nil)
	require.NoError(t, err)

	_, err = env.svc.Log(ctx, actorFor(env.acct), v.ID, "")
	assert.Error(t, err)

	got, err := env.svc.Get(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.VoucherApproved, got.Status)
}

func TestBulkLogReportsPerItem(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	a := env.submit(t)
	b := env.submit(t)
	_, err := env.svc.Approve(ctx, actorFor(env.admin), a.ID, nil)
	require.NoError(t, err)

	results := env.svc.BulkLog(ctx, actorFor(env.acct), []BulkLogItem{
		{ID: a.ID, TallyReference: "TLY-2026-0001"},
		{ID: b.ID, TallyReference: "TLY-2026-0002"},
	})
	require.Len(t, results, 2)
	assert.NoError(t, results[0].Err)
	assert.Equal(t, domain.VoucherLogged, results[0].Voucher.Status)
	assert.True(t, errors.Is(results[1].Err, domain.ErrInvalidTransition))
}
