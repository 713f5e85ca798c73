package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/seaboard-ops/port-finance/internal/auth"
	"github.com/seaboard-ops/port-finance/internal/domain"
)

const testJWTSecret = "test-secret-key"

type mockUserReader struct {
	user *domain.User
	err  error
}

func (m *mockUserReader) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.user == nil || m.user.Username != username {
		return nil, domain.ErrNotFound
	}
	return m.user, nil
}

func testUser(t *testing.T, username, password string, role domain.Role, active bool) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &domain.User{
		ID:           uuid.New(),
		Username:     username,
		Name:         "Test User",
		PasswordHash: string(hash),
		Role:         role,
		Active:       active,
	}
}

func doLogin(h *AuthHandler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Login(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestLoginSuccess(t *testing.T) {
	user := testUser(t, "manager1", "password123", domain.RoleManager, true)
	h := NewAuthHandler(&mockUserReader{user: user}, testJWTSecret, time.Hour)

	rec := doLogin(h, `{"username":"manager1","password":"password123"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var login loginResponse
	require.NoError(t, json.Unmarshal(data, &login))
	assert.Equal(t, "manager1", login.User.Username)
	assert.Equal(t, "manager", login.User.Role)

	actor, err := auth.ValidateToken(login.Token, testJWTSecret)
	require.NoError(t, err)
	assert.Equal(t, user.ID, actor.ID)
	assert.Equal(t, domain.RoleManager, actor.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	user := testUser(t, "manager1", "password123", domain.RoleManager, true)
	h := NewAuthHandler(&mockUserReader{user: user}, testJWTSecret, time.Hour)

	rec := doLogin(h, `{"username":"manager1","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	resp := decodeResponse(t, rec)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_CREDENTIALS", resp.Error.Code)
}

func TestLoginUnknownUser(t *testing.T) {
	h := NewAuthHandler(&mockUserReader{}, testJWTSecret, time.Hour)

	rec := doLogin(h, `{"username":"ghost","password":"password123"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_CREDENTIALS", resp.Error.Code)
}

func TestLoginInactiveUser(t *testing.T) {
	user := testUser(t, "manager1", "password123", domain.RoleManager, false)
	h := NewAuthHandler(&mockUserReader{user: user}, testJWTSecret, time.Hour)

	rec := doLogin(h, `{"username":"manager1","password":"password123"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "USER_INACTIVE", resp.Error.Code)
}

func TestLoginValidation(t *testing.T) {
	h := NewAuthHandler(&mockUserReader{}, testJWTSecret, time.Hour)

	tests := []struct {
		name string
		body string
	}{
		{"missing username", `{"password":"x"}`},
		{"missing password", `{"username":"x"}`},
		{"empty body", `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doLogin(h, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			resp := decodeResponse(t, rec)
			require.NotNil(t, resp.Error)
			assert.Equal(t, "VALIDATION_FAILED", resp.Error.Code)
		})
	}
}

func TestLoginMalformedBody(t *testing.T) {
	h := NewAuthHandler(&mockUserReader{}, testJWTSecret, time.Hour)

	rec := doLogin(h, `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRespondDomainErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{domain.ErrNotFound, http.StatusNotFound, "RESOURCE_NOT_FOUND"},
		{domain.ErrPermissionDenied, http.StatusForbidden, "PERMISSION_DENIED"},
		{domain.ErrIneligibleOwner, http.StatusUnprocessableEntity, "INELIGIBLE_OWNER"},
		{domain.ErrDuplicatePosting, http.StatusConflict, "DUPLICATE_POSTING"},
		{domain.ErrInvalidTransition, http.StatusConflict, "INVALID_TRANSITION"},
		{domain.ErrMissingQuantity, http.StatusUnprocessableEntity, "MISSING_QUANTITY"},
		{domain.ErrUnknownReference, http.StatusUnprocessableEntity, "UNKNOWN_REFERENCE"},
		{domain.ErrInvalidAmount, http.StatusBadRequest, "INVALID_AMOUNT"},
		{domain.ErrUserInactive, http.StatusUnprocessableEntity, "USER_INACTIVE"},
		{domain.ErrDuplicateRateRule, http.StatusConflict, "DUPLICATE_RATE_RULE"},
		{fmt.Errorf("some internal failure"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			rec := httptest.NewRecorder()
			RespondDomainError(rec, fmt.Errorf("Op: %w", tt.err))

			assert.Equal(t, tt.status, rec.Code)
			resp := decodeResponse(t, rec)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}
