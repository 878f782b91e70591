package service

import (
	"context"
	"errors"
	"strings"

	"authd/internal/entity"
	"authd/internal/repository"

	"github.com/google/uuid"
)

// Refresh rotates a refresh token: the presented record is revoked and a new
// record plus a new access token are issued in the same transaction. Exactly
// one of any number of concurrent calls with the same token wins; the rest
// see an already-consumed record.
func (s *AuthService) Refresh(ctx context.Context, refreshJWT string) (*LoginResult, error) {
	if strings.TrimSpace(refreshJWT) == "" {
		return nil, ErrTokenInvalid
	}

	// cheap structural check before any storage reads
	claimedAccountID, tokenID, err := s.signer.ParseRefreshToken(refreshJWT)
	if err != nil {
		return nil, ErrTokenInvalid
	}

	var result *LoginResult
	var accountID uuid.UUID
	var expiredID uuid.UUID
	err = s.tx.InTx(ctx, func(st repository.Store) error {
		record, err := st.Tokens.FindActiveByID(ctx, tokenID)
		if err != nil {
			return err
		}
		if record == nil || record.Purpose != entity.PurposeRefresh {
			return ErrTokenInvalid
		}
		if record.AccountID != claimedAccountID {
			return ErrTokenInvalid
		}
		if record.Expired(s.clock.Now()) {
			expiredID = record.ID
			return ErrTokenExpired
		}

		account, err := st.Accounts.FindByID(ctx, record.AccountID)
		if err != nil {
			return err
		}
		if account == nil {
			return ErrTokenInvalid
		}
		if account.Blocked() {
			return ErrAccountBlocked
		}

		consumed, err := st.Tokens.Consume(ctx, record.ID)
		if err != nil {
			return err
		}
		if !consumed {
			return ErrTokenInvalid
		}

		newRecord, _, err := s.issuer.Issue(ctx, st.Tokens, account.ID, entity.PurposeRefresh)
		if err != nil {
			return err
		}
		accessToken, _, err := s.signer.SignAccessToken(*account)
		if err != nil {
			return err
		}
		refreshToken, err := s.signer.SignRefreshToken(account.ID, newRecord.ID, newRecord.ExpiresAt)
		if err != nil {
			return err
		}

		accountID = account.ID
		result = &LoginResult{AccessToken: accessToken, RefreshToken: refreshToken}
		return nil
	})
	if err != nil {
		// The failed transaction rolls back, so the expired record gets
		// revoked on the shared connection where the write sticks.
		if errors.Is(err, ErrTokenExpired) && expiredID != uuid.Nil {
			if _, consumeErr := s.store.Tokens.Consume(ctx, expiredID); consumeErr != nil {
				s.log.WithError(consumeErr).Warn("expired refresh token revoke failed")
			}
		}
		return nil, s.refreshFailure(err)
	}

	s.audit(ctx, &accountID, nil, entity.AuditTokenRefreshed, nil)
	return result, nil
}

// refreshFailure keeps the refresh flow's failure surface to its typed
// outcomes; anything else is logged and reported as an invalid token.
func (s *AuthService) refreshFailure(err error) error {
	switch {
	case errors.Is(err, ErrTokenInvalid),
		errors.Is(err, ErrTokenExpired),
		errors.Is(err, ErrAccountBlocked):
		return err
	default:
		s.log.WithError(err).Error("refresh failed")
		return ErrTokenInvalid
	}
}
