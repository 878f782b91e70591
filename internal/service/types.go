package service

import (
	"time"

	"authd/internal/entity"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const dummyPasswordHash = "$2a$10$CwTycUXWue0Thq9StjUM0uJ8yQbWc1x9uxw2sQ2sXUNx5x9xJ9F2S"

type AuthConfig struct {
	AccessTokenTTL       time.Duration
	RefreshTokenTTL      time.Duration
	VerificationTokenTTL time.Duration
	ResetTokenTTL        time.Duration
}

// SecretHasher is used identically for passwords and for every token
// category: what lands in storage never yields the raw secret.
type SecretHasher interface {
	Hash(raw string) (string, error)
	Verify(hash string, raw string) bool
}

type TokenSigner interface {
	SignAccessToken(account entity.Account) (string, time.Duration, error)
	SignRefreshToken(accountID uuid.UUID, tokenID uuid.UUID, expiresAt time.Time) (string, error)
	ParseRefreshToken(token string) (accountID uuid.UUID, tokenID uuid.UUID, err error)
}

type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}

type BcryptSecretHasher struct {
	Cost int
}

func (h BcryptSecretHasher) Hash(raw string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(raw), cost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func (h BcryptSecretHasher) Verify(hash string, raw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(raw)) == nil
}
