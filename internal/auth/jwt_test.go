package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seaboard-ops/port-finance/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	user := &domain.User{
		ID:       uuid.New(),
		Username: "supervisor1",
		Role:     domain.RoleSupervisor,
	}

	token, err := GenerateToken(user, "secret", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	actor, err := ValidateToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, user.ID, actor.ID)
	assert.Equal(t, user.Username, actor.Username)
	assert.Equal(t, domain.RoleSupervisor, actor.Role)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	user := &domain.User{ID: uuid.New(), Username: "x", Role: domain.RoleAdmin}
	token, err := GenerateToken(user, "secret", time.Hour)
	require.NoError(t, err)

	_, err = ValidateToken(token, "other-secret")
	assert.Error(t, err)
}

func TestValidateTokenExpired(t *testing.T) {
	user := &domain.User{ID: uuid.New(), Username: "x", Role: domain.RoleAdmin}
	token, err := GenerateToken(user, "secret", -time.Minute)
	require.NoError(t, err)

	_, err = ValidateToken(token, "secret")
	assert.Error(t, err)
}
