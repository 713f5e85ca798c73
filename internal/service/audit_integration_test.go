package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seaboard-ops/port-finance/internal/domain"
	"github.com/seaboard-ops/port-finance/internal/repository"
	"github.com/seaboard-ops/port-finance/internal/testutil"
)

func TestAuditTrimKeepsNewestPerSubject(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewAuditService(repository.NewAuditRepository(db), 3, db)
	ctx := context.Background()

	actor := testutil.SeedUser(t, db, "admin1", domain.RoleAdmin)
	subjectID := "subject-a"

	for i := 0; i < 6; i++ {
		err := svc.RecordNow(ctx, domain.AuditSubjectWallet, subjectID, fmt.Sprintf("action-%d", i), &actor.ID, nil)
		require.NoError(t, err)
	}
	// A second subject must be untouched by the first subject's trim.
	err := svc.RecordNow(ctx, domain.AuditSubjectWallet, "subject-b", "action-0", &actor.ID, nil)
	require.NoError(t, err)

	svc.TrimSubject(ctx, domain.AuditSubjectWallet, subjectID)

	history, err := svc.History(ctx, domain.AuditSubjectWallet, subjectID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	// Newest first.
	assert.Equal(t, "action-5", history[0].Action)
	assert.Equal(t, "action-3", history[2].Action)

	other, err := svc.History(ctx, domain.AuditSubjectWallet, "subject-b")
	require.NoError(t, err)
	assert.Len(t, other, 1)
}

func TestAuditTrimAll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewAuditService(repository.NewAuditRepository(db), 2, db)
	ctx := context.Background()

	actor := testutil.SeedUser(t, db, "admin1", domain.RoleAdmin)
	for _, subject := range []string{"s1", "s2"} {
		for i := 0; i < 4; i++ {
			err := svc.RecordNow(ctx, domain.AuditSubjectExpense, subject, fmt.Sprintf("action-%d", i), &actor.ID, nil)
			require.NoError(t, err)
		}
	}

	deleted, err := svc.Trim(ctx, 0) // 0 falls back to the configured keep count
	require.NoError(t, err)
	assert.EqualValues(t, 4, deleted)

	for _, subject := range []string{"s1", "s2"} {
		history, err := svc.History(ctx, domain.AuditSubjectExpense, subject)
		require.NoError(t, err)
		assert.Len(t, history, 2, "subject %s", subject)
	}
}

func TestWorkflowActionsLeaveAuditTrail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newLedgerService(db)
	ctx := context.Background()

	owner := testutil.SeedUser(t, db, "supervisor1", domain.RoleSupervisor)
	accountant := testutil.SeedUser(t, db, "accountant1", domain.RoleAccountant)

	_, _, err := svc.TopUp(ctx, actorFor(accountant), TopUpRequest{
		OwnerID:       owner.ID,
		Amount:        decimal.RequireFromString("100.00"),
		PaymentMethod: domain.PaymentCash,
	})
	require.NoError(t, err)

	history, err := svc.audit.History(ctx, domain.AuditSubjectWallet, owner.ID.String())
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "topup", history[0].Action)
	require.NotNil(t, history[0].ActorID)
	assert.Equal(t, accountant.ID, *history[0].ActorID)
}
