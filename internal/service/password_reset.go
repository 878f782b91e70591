package service

import (
	"context"
	"strings"

	"authd/internal/entity"
	"authd/internal/repository"
	"authd/internal/utils"

	"github.com/google/uuid"
)

// ForgotPassword never tells the caller whether the email exists: the
// not-found branch returns the same success as the found one, and only the
// internal log differs.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	if strings.TrimSpace(email) == "" {
		return ErrInvalidInput
	}

	email = utils.NormalizeEmail(email)
	var accountID uuid.UUID
	var rawToken string
	found := true
	err := s.tx.InTx(ctx, func(st repository.Store) error {
		account, err := st.Accounts.FindByEmail(ctx, email)
		if err != nil {
			return err
		}
		if account == nil {
			found = false
			return nil
		}
		if account.Blocked() {
			return ErrAccountBlocked
		}

		_, rawToken, err = s.issuer.Issue(ctx, st.Tokens, account.ID, entity.PurposeReset)
		if err != nil {
			return err
		}
		accountID = account.ID
		return nil
	})
	if err != nil {
		return err
	}

	if !found {
		s.log.WithField("email", email).Info("password reset requested for unknown email")
		return nil
	}

	s.audit(ctx, &accountID, nil, entity.AuditResetRequested, nil)
	s.emitAsync(func(ctx context.Context) error {
		return s.events.PasswordResetRequested(ctx, accountID, email, rawToken)
	})
	s.log.WithField("email", email).Info("password reset requested")
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, rawToken string, newPassword string) error {
	if strings.TrimSpace(rawToken) == "" || strings.TrimSpace(newPassword) == "" {
		return ErrInvalidInput
	}

	var accountID uuid.UUID
	err := s.tx.InTx(ctx, func(st repository.Store) error {
		account, record, err := s.validator.Resolve(ctx, st, rawToken, entity.PurposeReset)
		if err != nil {
			return err
		}

		consumed, err := st.Tokens.Consume(ctx, record.ID)
		if err != nil {
			return err
		}
		if !consumed {
			return ErrTokenInvalid
		}

		hash, err := s.hasher.Hash(newPassword)
		if err != nil {
			return err
		}
		if err := st.Accounts.UpdatePassword(ctx, account.ID, hash); err != nil {
			return err
		}

		// A changed password invalidates every outstanding refresh token.
		if err := st.Tokens.RevokeAllByAccount(ctx, account.ID, entity.PurposeRefresh); err != nil {
			return err
		}
		accountID = account.ID
		return nil
	})
	if err != nil {
		return err
	}

	s.audit(ctx, &accountID, nil, entity.AuditPasswordReset, nil)
	s.log.WithField("account_id", accountID).Info("password reset")
	return nil
}
