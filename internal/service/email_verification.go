package service

import (
	"context"
	"strings"

	"authd/internal/entity"
	"authd/internal/repository"
	"authd/internal/utils"

	"github.com/google/uuid"
)

func (s *AuthService) VerifyEmail(ctx context.Context, rawToken string) (string, error) {
	if strings.TrimSpace(rawToken) == "" {
		return "", ErrTokenInvalid
	}

	message := MsgEmailVerified
	var accountID uuid.UUID
	err := s.tx.InTx(ctx, func(st repository.Store) error {
		account, record, err := s.validator.Resolve(ctx, st, rawToken, entity.PurposeVerification)
		if err != nil {
			return err
		}
		accountID = account.ID

		if account.IsVerified {
			// Idempotent: the account is already where the token would take
			// it, so nothing mutates and the token stays unconsumed.
			message = MsgAlreadyVerified
			return nil
		}

		consumed, err := st.Tokens.Consume(ctx, record.ID)
		if err != nil {
			return err
		}
		if !consumed {
			return ErrTokenInvalid
		}
		return st.Accounts.MarkVerified(ctx, account.ID)
	})
	if err != nil {
		return "", err
	}

	if message == MsgEmailVerified {
		s.audit(ctx, &accountID, nil, entity.AuditEmailVerified, nil)
		s.log.WithField("account_id", accountID).Info("email verified")
	}
	return message, nil
}

func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	if strings.TrimSpace(email) == "" {
		return ErrInvalidInput
	}

	email = utils.NormalizeEmail(email)
	var accountID uuid.UUID
	var rawToken string
	err := s.tx.InTx(ctx, func(st repository.Store) error {
		account, err := st.Accounts.FindByEmail(ctx, email)
		if err != nil {
			return err
		}
		if account == nil {
			return ErrAccountNotFound
		}
		if account.Blocked() {
			return ErrAccountBlocked
		}
		if account.IsVerified {
			return ErrAlreadyVerified
		}

		// Always mint a fresh token, even when a live one exists.
		_, rawToken, err = s.issuer.Issue(ctx, st.Tokens, account.ID, entity.PurposeVerification)
		if err != nil {
			return err
		}
		accountID = account.ID
		return nil
	})
	if err != nil {
		return err
	}

	s.audit(ctx, &accountID, nil, entity.AuditVerificationResent, nil)
	s.emitAsync(func(ctx context.Context) error {
		return s.events.EmailVerificationResend(ctx, accountID, email, rawToken)
	})
	s.log.WithField("email", email).Info("verification email resent")
	return nil
}
