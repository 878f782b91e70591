package service

import (
	"context"
	"time"

	"authd/internal/entity"
	"authd/internal/repository"

	"github.com/google/uuid"
)

// TokenIssuer mints a TokenRecord for an account and purpose. The raw secret
// is returned for out-of-band delivery and is never persisted.
type TokenIssuer struct {
	hasher SecretHasher
	clock  Clock
	config AuthConfig
}

func NewTokenIssuer(hasher SecretHasher, clock Clock, config AuthConfig) *TokenIssuer {
	return &TokenIssuer{hasher: hasher, clock: clock, config: config}
}

func (i *TokenIssuer) Issue(
	ctx context.Context,
	tokens repository.TokenRecordRepository,
	accountID uuid.UUID,
	purpose entity.TokenPurpose,
) (*entity.TokenRecord, string, error) {
	raw := uuid.NewString()
	hash, err := i.hasher.Hash(raw)
	if err != nil {
		return nil, "", err
	}

	record := &entity.TokenRecord{
		AccountID:  accountID,
		SecretHash: hash,
		Purpose:    purpose,
		ExpiresAt:  i.clock.Now().Add(i.TTL(purpose)),
	}
	if err := tokens.Create(ctx, record); err != nil {
		return nil, "", err
	}
	return record, raw, nil
}

func (i *TokenIssuer) TTL(purpose entity.TokenPurpose) time.Duration {
	switch purpose {
	case entity.PurposeReset:
		if i.config.ResetTokenTTL > 0 {
			return i.config.ResetTokenTTL
		}
		return 30 * time.Minute
	case entity.PurposeRefresh:
		if i.config.RefreshTokenTTL > 0 {
			return i.config.RefreshTokenTTL
		}
		return 30 * 24 * time.Hour
	default:
		if i.config.VerificationTokenTTL > 0 {
			return i.config.VerificationTokenTTL
		}
		return 15 * time.Minute
	}
}

// TokenValidator resolves a presented raw secret to its TokenRecord and
// owning account. It scans every unconsumed record of the purpose because
// nothing non-secret identifies the record; aggressive TTLs keep the pool
// small.
type TokenValidator struct {
	hasher SecretHasher
	clock  Clock
}

func NewTokenValidator(hasher SecretHasher, clock Clock) *TokenValidator {
	return &TokenValidator{hasher: hasher, clock: clock}
}

func (v *TokenValidator) Resolve(
	ctx context.Context,
	store repository.Store,
	raw string,
	purpose entity.TokenPurpose,
) (*entity.Account, *entity.TokenRecord, error) {
	if raw == "" {
		return nil, nil, ErrTokenInvalid
	}

	records, err := store.Tokens.FindUnconsumed(ctx, purpose)
	if err != nil {
		return nil, nil, err
	}

	var match *entity.TokenRecord
	for index := range records {
		if v.hasher.Verify(records[index].SecretHash, raw) {
			match = &records[index]
			break
		}
	}
	if match == nil {
		return nil, nil, ErrTokenInvalid
	}
	if match.Expired(v.clock.Now()) {
		return nil, nil, ErrTokenExpired
	}

	account, err := store.Accounts.FindByID(ctx, match.AccountID)
	if err != nil {
		return nil, nil, err
	}
	if account == nil {
		return nil, nil, ErrTokenInvalid
	}
	if account.Blocked() {
		return nil, nil, ErrAccountBlocked
	}
	return account, match, nil
}
