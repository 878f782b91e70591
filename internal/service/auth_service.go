package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"authd/internal/entity"
	"authd/internal/repository"
	"authd/internal/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// AuthService sequences the account and token stores through the lifecycle
// flows. Every durable read-check-mutate runs inside one transaction; events
// go out only after the transaction commits.
type AuthService struct {
	store     repository.Store
	tx        repository.TxRunner
	hasher    SecretHasher
	issuer    *TokenIssuer
	validator *TokenValidator
	signer    TokenSigner
	events    EventProducer
	clock     Clock
	log       *logrus.Logger
	config    AuthConfig
}

func NewAuthService(
	store repository.Store,
	tx repository.TxRunner,
	hasher SecretHasher,
	signer TokenSigner,
	events EventProducer,
	clock Clock,
	log *logrus.Logger,
	config AuthConfig,
) *AuthService {
	if clock == nil {
		clock = RealClock{}
	}
	if log == nil {
		log = logrus.New()
	}
	return &AuthService{
		store:     store,
		tx:        tx,
		hasher:    hasher,
		issuer:    NewTokenIssuer(hasher, clock, config),
		validator: NewTokenValidator(hasher, clock),
		signer:    signer,
		events:    events,
		clock:     clock,
		log:       log,
		config:    config,
	}
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) error {
	if strings.TrimSpace(input.Username) == "" ||
		strings.TrimSpace(input.Email) == "" ||
		strings.TrimSpace(input.Password) == "" {
		return ErrInvalidInput
	}

	email := utils.NormalizeEmail(input.Email)

	var accountID uuid.UUID
	var rawToken string
	resent := false
	err := s.tx.InTx(ctx, func(st repository.Store) error {
		existing, err := st.Accounts.FindByEmail(ctx, email)
		if err != nil {
			return err
		}
		if existing != nil {
			if existing.Blocked() {
				return ErrBlockedEmailExists
			}
			if !existing.IsVerified {
				latest, err := st.Tokens.LatestByAccount(ctx, existing.ID, entity.PurposeVerification)
				if err != nil {
					return err
				}
				if latest != nil && !latest.Expired(s.clock.Now()) {
					return ErrVerificationPending
				}
				// No live token left: quietly behave like a resend so the
				// caller sees the same "registered" outcome.
				_, rawToken, err = s.issuer.Issue(ctx, st.Tokens, existing.ID, entity.PurposeVerification)
				if err != nil {
					return err
				}
				accountID = existing.ID
				resent = true
				return nil
			}
			return ErrEmailAlreadyRegistered
		}

		hash, err := s.hasher.Hash(input.Password)
		if err != nil {
			return err
		}
		account := &entity.Account{
			Username:     strings.TrimSpace(input.Username),
			Email:        email,
			PasswordHash: hash,
			IsVerified:   false,
			Status:       entity.StatusUnverified,
			Role:         entity.RoleUser,
		}
		if err := st.Accounts.Create(ctx, account); err != nil {
			if errors.Is(err, repository.ErrDuplicateKey) {
				return ErrEmailAlreadyRegistered
			}
			return err
		}

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

	if resent {
		s.audit(ctx, &accountID, nil, entity.AuditVerificationResent, nil)
	} else {
		s.audit(ctx, &accountID, nil, entity.AuditRegistered, nil)
	}
	s.emitAsync(func(ctx context.Context) error {
		return s.events.UserRegistered(ctx, accountID, email, rawToken)
	})
	s.log.WithField("email", email).Info("user registered")
	return nil
}

func (s *AuthService) Login(ctx context.Context, input LoginInput, ipAddress *string) (*LoginResult, error) {
	if strings.TrimSpace(input.Email) == "" || strings.TrimSpace(input.Password) == "" {
		return nil, ErrInvalidInput
	}

	email := utils.NormalizeEmail(input.Email)
	account, err := s.store.Accounts.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if account == nil {
		// burn a hash compare so timing does not reveal existence
		_ = s.hasher.Verify(dummyPasswordHash, input.Password)
		s.audit(ctx, nil, ipAddress, entity.AuditLoginFailed, map[string]any{"email": email})
		return nil, ErrInvalidCredentials
	}
	if account.Blocked() {
		return nil, ErrAccountBlocked
	}
	if !s.hasher.Verify(account.PasswordHash, input.Password) {
		s.audit(ctx, &account.ID, ipAddress, entity.AuditLoginFailed, map[string]any{"email": email})
		return nil, ErrInvalidCredentials
	}
	if !account.IsVerified {
		return nil, ErrEmailNotVerified
	}

	var result *LoginResult
	err = s.tx.InTx(ctx, func(st repository.Store) error {
		record, _, err := s.issuer.Issue(ctx, st.Tokens, account.ID, entity.PurposeRefresh)
		if err != nil {
			return err
		}
		accessToken, _, err := s.signer.SignAccessToken(*account)
		if err != nil {
			return err
		}
		refreshToken, err := s.signer.SignRefreshToken(account.ID, record.ID, record.ExpiresAt)
		if err != nil {
			return err
		}
		result = &LoginResult{AccessToken: accessToken, RefreshToken: refreshToken}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, &account.ID, ipAddress, entity.AuditLoginSuccess, nil)
	s.emitAsync(func(ctx context.Context) error {
		return s.events.UserLogin(ctx, account.ID, account.Email, s.clock.Now())
	})
	s.log.WithField("email", email).Info("user logged in")
	return result, nil
}

// Logout revokes every live refresh token of the account.
func (s *AuthService) Logout(ctx context.Context, accountID uuid.UUID, ipAddress *string) error {
	err := s.tx.InTx(ctx, func(st repository.Store) error {
		return st.Tokens.RevokeAllByAccount(ctx, accountID, entity.PurposeRefresh)
	})
	if err != nil {
		return err
	}
	s.audit(ctx, &accountID, ipAddress, entity.AuditLogout, nil)
	return nil
}

// BlockAccount is the moderation action: the account leaves the lifecycle for
// good, and its live refresh tokens die with it.
func (s *AuthService) BlockAccount(ctx context.Context, accountID uuid.UUID) error {
	err := s.tx.InTx(ctx, func(st repository.Store) error {
		account, err := st.Accounts.FindByID(ctx, accountID)
		if err != nil {
			return err
		}
		if account == nil {
			return ErrAccountNotFound
		}
		if err := st.Accounts.SetStatus(ctx, accountID, entity.StatusBlocked); err != nil {
			return err
		}
		return st.Tokens.RevokeAllByAccount(ctx, accountID, entity.PurposeRefresh)
	})
	if err != nil {
		return err
	}
	s.audit(ctx, &accountID, nil, entity.AuditAccountBlocked, nil)
	s.log.WithField("account_id", accountID).Info("account blocked")
	return nil
}

func (s *AuthService) GetAccount(ctx context.Context, accountID uuid.UUID) (*entity.Account, error) {
	account, err := s.store.Accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}
	return account, nil
}

// audit writes a best-effort security log entry after the flow's transaction
// has settled. Failures are logged, never surfaced.
func (s *AuthService) audit(
	ctx context.Context,
	accountID *uuid.UUID,
	ipAddress *string,
	action entity.AuditAction,
	metadata map[string]any,
) {
	if s.store.Audit == nil {
		return
	}
	var payload datatypes.JSON
	if metadata != nil {
		bytes, err := json.Marshal(metadata)
		if err != nil {
			s.log.WithError(err).Warn("audit metadata marshal failed")
			return
		}
		payload = datatypes.JSON(bytes)
	}

	entry := &entity.AuditLog{
		AccountID: accountID,
		IPAddress: ipAddress,
		Action:    action,
		Metadata:  payload,
	}
	if err := s.store.Audit.Log(ctx, entry); err != nil {
		s.log.WithError(err).Warn("audit log write failed")
	}
}

// emitAsync delivers a notification event without blocking the response and
// without tying its fate to the flow: the durable state is already committed.
func (s *AuthService) emitAsync(emit func(ctx context.Context) error) {
	if emit == nil || s.events == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := emit(ctx); err != nil {
			s.log.WithError(err).Warn("notification event delivery failed")
		}
	}()
}
