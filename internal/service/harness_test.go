package service_test

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"authd/internal/entity"
	"authd/internal/repository/memory"
	"authd/internal/service"
	"authd/internal/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordedEvent struct {
	Type      string
	AccountID uuid.UUID
	Email     string
	Token     string
}

type recordingEvents struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *recordingEvents) UserRegistered(_ context.Context, accountID uuid.UUID, email string, rawVerificationToken string) error {
	r.append(recordedEvent{Type: service.EventUserRegistered, AccountID: accountID, Email: email, Token: rawVerificationToken})
	return nil
}

func (r *recordingEvents) PasswordResetRequested(_ context.Context, accountID uuid.UUID, email string, rawResetToken string) error {
	r.append(recordedEvent{Type: service.EventPasswordResetRequested, AccountID: accountID, Email: email, Token: rawResetToken})
	return nil
}

func (r *recordingEvents) EmailVerificationResend(_ context.Context, accountID uuid.UUID, email string, rawVerificationToken string) error {
	r.append(recordedEvent{Type: service.EventEmailVerificationResend, AccountID: accountID, Email: email, Token: rawVerificationToken})
	return nil
}

func (r *recordingEvents) UserLogin(_ context.Context, accountID uuid.UUID, email string, _ time.Time) error {
	r.append(recordedEvent{Type: service.EventUserLogin, AccountID: accountID, Email: email})
	return nil
}

func (r *recordingEvents) append(event recordedEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingEvents) snapshot() []recordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recordedEvent(nil), r.events...)
}

// wait blocks until n events have been emitted; emission runs detached from
// the flows, so assertions on events go through here.
func (r *recordingEvents) wait(t *testing.T, n int) []recordedEvent {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(r.snapshot()) >= n
	}, 2*time.Second, 5*time.Millisecond)
	return r.snapshot()
}

func (r *recordingEvents) lastOfType(t *testing.T, eventType string) recordedEvent {
	t.Helper()
	events := r.snapshot()
	for index := len(events) - 1; index >= 0; index-- {
		if events[index].Type == eventType {
			return events[index]
		}
	}
	t.Fatalf("no event of type %s recorded", eventType)
	return recordedEvent{}
}

type harness struct {
	svc    *service.AuthService
	store  *memory.Store
	clock  *fakeClock
	events *recordingEvents
	hasher service.SecretHasher
	signer service.TokenSigner
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	store := memory.NewStore()
	clock := &fakeClock{now: time.Now()}
	events := &recordingEvents{}
	hasher := service.BcryptSecretHasher{Cost: bcrypt.MinCost}
	signer := service.JWTTokenSigner{Manager: &utils.JWTManager{
		Secret:         []byte("test-secret"),
		Issuer:         "authd-test",
		AccessTokenTTL: 15 * time.Minute,
	}}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	svc := service.NewAuthService(
		store.Repos(),
		store.TxRunner(),
		hasher,
		signer,
		events,
		clock,
		logger,
		service.AuthConfig{},
	)
	return &harness{
		svc:    svc,
		store:  store,
		clock:  clock,
		events: events,
		hasher: hasher,
		signer: signer,
	}
}

func (h *harness) register(t *testing.T, username, email, password string) {
	t.Helper()
	err := h.svc.Register(context.Background(), service.RegisterInput{
		Username: username,
		Email:    email,
		Password: password,
	})
	require.NoError(t, err)
}

// registerVerified walks an account through register + verify-email.
func (h *harness) registerVerified(t *testing.T, username, email, password string) {
	t.Helper()
	before := len(h.events.snapshot())
	h.register(t, username, email, password)
	h.events.wait(t, before+1)
	event := h.events.lastOfType(t, service.EventUserRegistered)
	_, err := h.svc.VerifyEmail(context.Background(), event.Token)
	require.NoError(t, err)
}

func (h *harness) login(t *testing.T, email, password string) *service.LoginResult {
	t.Helper()
	result, err := h.svc.Login(context.Background(), service.LoginInput{Email: email, Password: password}, nil)
	require.NoError(t, err)
	return result
}

// seedAccount inserts an account directly with a hashed password.
func (h *harness) seedAccount(t *testing.T, email string, status entity.AccountStatus, verified bool) *entity.Account {
	t.Helper()
	hash, err := h.hasher.Hash("Password123")
	require.NoError(t, err)
	return h.store.SeedAccount(&entity.Account{
		Username:     email,
		Email:        email,
		PasswordHash: hash,
		IsVerified:   verified,
		Status:       status,
		Role:         entity.RoleUser,
	})
}

// mintToken writes a TokenRecord directly and returns the raw secret, for
// cases the public flows cannot produce.
func (h *harness) mintToken(t *testing.T, accountID uuid.UUID, purpose entity.TokenPurpose, expiresAt time.Time) string {
	t.Helper()
	raw := uuid.NewString()
	hash, err := h.hasher.Hash(raw)
	require.NoError(t, err)
	err = h.store.Repos().Tokens.Create(context.Background(), &entity.TokenRecord{
		AccountID:  accountID,
		SecretHash: hash,
		Purpose:    purpose,
		ExpiresAt:  expiresAt,
	})
	require.NoError(t, err)
	return raw
}
