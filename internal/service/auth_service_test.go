package service_test

import (
	"context"
	"testing"
	"time"

	"authd/internal/entity"
	"authd/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterCreatesUnverifiedAccount(t *testing.T) {
	h := newHarness(t)

	h.register(t, "bob", "bob@x.com", "Password123")

	events := h.events.wait(t, 1)
	require.Equal(t, service.EventUserRegistered, events[0].Type)
	require.Equal(t, "bob@x.com", events[0].Email)
	require.NotEmpty(t, events[0].Token)

	account := h.store.AccountByID(events[0].AccountID)
	require.NotNil(t, account)
	assert.Equal(t, "bob", account.Username)
	assert.Equal(t, entity.StatusUnverified, account.Status)
	assert.False(t, account.IsVerified)
	assert.Equal(t, entity.RoleUser, account.Role)
	assert.True(t, h.hasher.Verify(account.PasswordHash, "Password123"))

	tokens := h.store.TokensFor(account.ID, entity.PurposeVerification)
	require.Len(t, tokens, 1)
	assert.NotEqual(t, events[0].Token, tokens[0].SecretHash)
	assert.True(t, h.hasher.Verify(tokens[0].SecretHash, events[0].Token))
	assert.False(t, tokens[0].Consumed())
}

func TestRegisterNormalizesEmail(t *testing.T) {
	h := newHarness(t)

	h.register(t, "bob", "  Bob@X.Com ", "Password123")

	events := h.events.wait(t, 1)
	account := h.store.AccountByID(events[0].AccountID)
	require.NotNil(t, account)
	assert.Equal(t, "bob@x.com", account.Email)
}

func TestRegisterRejectsEmptyInput(t *testing.T) {
	h := newHarness(t)

	err := h.svc.Register(context.Background(), service.RegisterInput{Email: "bob@x.com"})
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestRegisterBlockedAccount(t *testing.T) {
	h := newHarness(t)
	h.seedAccount(t, "blocked@x.com", entity.StatusBlocked, false)

	err := h.svc.Register(context.Background(), service.RegisterInput{
		Username: "blocked",
		Email:    "blocked@x.com",
		Password: "Password123",
	})
	assert.ErrorIs(t, err, service.ErrBlockedEmailExists)
}

func TestRegisterUnverifiedWithLiveToken(t *testing.T) {
	h := newHarness(t)
	h.register(t, "bob", "bob@x.com", "Password123")

	err := h.svc.Register(context.Background(), service.RegisterInput{
		Username: "bob",
		Email:    "bob@x.com",
		Password: "Password123",
	})
	assert.ErrorIs(t, err, service.ErrVerificationPending)
}

func TestRegisterUnverifiedWithExpiredTokenResends(t *testing.T) {
	h := newHarness(t)
	h.register(t, "bob", "bob@x.com", "Password123")
	events := h.events.wait(t, 1)
	accountID := events[0].AccountID

	h.clock.Advance(16 * time.Minute)

	// same "registered" outcome, fresh token underneath
	h.register(t, "bob", "bob@x.com", "Password123")
	events = h.events.wait(t, 2)
	assert.Equal(t, service.EventUserRegistered, events[1].Type)
	assert.NotEqual(t, events[0].Token, events[1].Token)

	tokens := h.store.TokensFor(accountID, entity.PurposeVerification)
	assert.Len(t, tokens, 2)

	// the audit trail distinguishes the resend from a fresh registration
	actions := h.store.AuditActions()
	assert.Equal(t, 1, countAction(actions, entity.AuditRegistered))
	assert.Equal(t, 1, countAction(actions, entity.AuditVerificationResent))
}

func countAction(actions []entity.AuditAction, action entity.AuditAction) int {
	count := 0
	for _, candidate := range actions {
		if candidate == action {
			count++
		}
	}
	return count
}

func TestRegisterVerifiedAccount(t *testing.T) {
	h := newHarness(t)
	h.registerVerified(t, "bob", "bob@x.com", "Password123")

	err := h.svc.Register(context.Background(), service.RegisterInput{
		Username: "bob",
		Email:    "bob@x.com",
		Password: "Password123",
	})
	assert.ErrorIs(t, err, service.ErrEmailAlreadyRegistered)
}

func TestLoginSuccess(t *testing.T) {
	h := newHarness(t)
	h.registerVerified(t, "bob", "bob@x.com", "Password123")

	result := h.login(t, "bob@x.com", "Password123")
	require.NotEmpty(t, result.AccessToken)
	require.NotEmpty(t, result.RefreshToken)

	accountID, tokenID, err := h.signer.ParseRefreshToken(result.RefreshToken)
	require.NoError(t, err)

	records := h.store.TokensFor(accountID, entity.PurposeRefresh)
	require.Len(t, records, 1)
	assert.Equal(t, tokenID, records[0].ID)
	assert.False(t, records[0].Consumed())

	h.events.wait(t, 2)
	event := h.events.lastOfType(t, service.EventUserLogin)
	assert.Equal(t, accountID, event.AccountID)
	assert.Contains(t, h.store.AuditActions(), entity.AuditLoginSuccess)
}

func TestLoginUnknownEmail(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.Login(context.Background(), service.LoginInput{
		Email:    "nobody@x.com",
		Password: "Password123",
	}, nil)
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	assert.Contains(t, h.store.AuditActions(), entity.AuditLoginFailed)
}

func TestLoginWrongPassword(t *testing.T) {
	h := newHarness(t)
	h.registerVerified(t, "bob", "bob@x.com", "Password123")

	_, err := h.svc.Login(context.Background(), service.LoginInput{
		Email:    "bob@x.com",
		Password: "wrong-password",
	}, nil)
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestLoginBlockedAccount(t *testing.T) {
	h := newHarness(t)
	h.seedAccount(t, "blocked@x.com", entity.StatusBlocked, true)

	_, err := h.svc.Login(context.Background(), service.LoginInput{
		Email:    "blocked@x.com",
		Password: "Password123",
	}, nil)
	assert.ErrorIs(t, err, service.ErrAccountBlocked)
}

func TestLoginUnverifiedAccount(t *testing.T) {
	h := newHarness(t)
	h.register(t, "bob", "bob@x.com", "Password123")

	_, err := h.svc.Login(context.Background(), service.LoginInput{
		Email:    "bob@x.com",
		Password: "Password123",
	}, nil)
	assert.ErrorIs(t, err, service.ErrEmailNotVerified)
}

func TestLogoutRevokesRefreshTokens(t *testing.T) {
	h := newHarness(t)
	h.registerVerified(t, "bob", "bob@x.com", "Password123")
	result := h.login(t, "bob@x.com", "Password123")

	accountID, _, err := h.signer.ParseRefreshToken(result.RefreshToken)
	require.NoError(t, err)
	require.NoError(t, h.svc.Logout(context.Background(), accountID, nil))

	_, err = h.svc.Refresh(context.Background(), result.RefreshToken)
	assert.ErrorIs(t, err, service.ErrTokenInvalid)
}

func TestBlockAccountStopsEveryFlow(t *testing.T) {
	h := newHarness(t)
	h.registerVerified(t, "bob", "bob@x.com", "Password123")
	result := h.login(t, "bob@x.com", "Password123")

	accountID, _, err := h.signer.ParseRefreshToken(result.RefreshToken)
	require.NoError(t, err)
	require.NoError(t, h.svc.BlockAccount(context.Background(), accountID))

	_, err = h.svc.Login(context.Background(), service.LoginInput{
		Email:    "bob@x.com",
		Password: "Password123",
	}, nil)
	assert.ErrorIs(t, err, service.ErrAccountBlocked)

	_, err = h.svc.Refresh(context.Background(), result.RefreshToken)
	assert.ErrorIs(t, err, service.ErrTokenInvalid)

	err = h.svc.ForgotPassword(context.Background(), "bob@x.com")
	assert.ErrorIs(t, err, service.ErrAccountBlocked)
}

func TestBlockUnknownAccount(t *testing.T) {
	h := newHarness(t)

	err := h.svc.BlockAccount(context.Background(), uuid.New())
	assert.ErrorIs(t, err, service.ErrAccountNotFound)
}

// The concrete end-to-end scenario: register, verify, login, refresh.
func TestFullLifecycle(t *testing.T) {
	h := newHarness(t)

	h.register(t, "bob", "bob@x.com", "Password123")
	events := h.events.wait(t, 1)
	account := h.store.AccountByID(events[0].AccountID)
	require.Equal(t, entity.StatusUnverified, account.Status)
	require.Len(t, h.store.TokensFor(account.ID, entity.PurposeVerification), 1)

	message, err := h.svc.VerifyEmail(context.Background(), events[0].Token)
	require.NoError(t, err)
	require.Equal(t, service.MsgEmailVerified, message)

	account = h.store.AccountByID(account.ID)
	require.Equal(t, entity.StatusActive, account.Status)
	require.True(t, account.IsVerified)
	require.True(t, h.store.TokensFor(account.ID, entity.PurposeVerification)[0].Consumed())

	result := h.login(t, "bob@x.com", "Password123")
	require.NotEmpty(t, result.AccessToken)

	rotated, err := h.svc.Refresh(context.Background(), result.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, result.RefreshToken, rotated.RefreshToken)

	records := h.store.TokensFor(account.ID, entity.PurposeRefresh)
	require.Len(t, records, 2)
	require.True(t, records[0].Consumed())
	require.False(t, records[1].Consumed())
}

// status=ACTIVE must imply verified=true after any sequence of flows.
func TestActiveImpliesVerified(t *testing.T) {
	h := newHarness(t)
	h.registerVerified(t, "bob", "bob@x.com", "Password123")
	h.login(t, "bob@x.com", "Password123")

	require.NoError(t, h.svc.ForgotPassword(context.Background(), "bob@x.com"))
	h.events.wait(t, 3)
	event := h.events.lastOfType(t, service.EventPasswordResetRequested)
	require.NoError(t, h.svc.ResetPassword(context.Background(), event.Token, "NewPassword456"))

	account := h.store.AccountByID(event.AccountID)
	if account.Status == entity.StatusActive {
		assert.True(t, account.IsVerified)
	}
}
