// Package memory implements the repository contract against in-process
// slices. It backs the test suites; it is not a durable store.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"authd/internal/entity"
	"authd/internal/repository"

	"github.com/google/uuid"
)

type Store struct {
	mu       sync.Mutex
	txMu     sync.Mutex
	accounts []*entity.Account
	tokens   []*entity.TokenRecord
	audits   []*entity.AuditLog
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) Repos() repository.Store {
	return repository.Store{
		Accounts: &accountRepo{store: s},
		Tokens:   &tokenRepo{store: s},
		Audit:    &auditRepo{store: s},
	}
}

func (s *Store) TxRunner() repository.TxRunner {
	return txRunner{store: s}
}

// SeedAccount inserts an account directly, bypassing the registration flow.
func (s *Store) SeedAccount(account *entity.Account) *entity.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	account.CreatedAt = time.Now()
	account.UpdatedAt = account.CreatedAt
	stored := *account
	s.accounts = append(s.accounts, &stored)
	return account
}

func (s *Store) AccountByID(id uuid.UUID) *entity.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, account := range s.accounts {
		if account.ID == id {
			copied := *account
			return &copied
		}
	}
	return nil
}

// TokensFor returns every token of an account and purpose, oldest first.
func (s *Store) TokensFor(accountID uuid.UUID, purpose entity.TokenPurpose) []entity.TokenRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	var records []entity.TokenRecord
	for _, record := range s.tokens {
		if record.AccountID == accountID && record.Purpose == purpose {
			records = append(records, *record)
		}
	}
	return records
}

func (s *Store) AuditActions() []entity.AuditAction {
	s.mu.Lock()
	defer s.mu.Unlock()
	actions := make([]entity.AuditAction, 0, len(s.audits))
	for _, entry := range s.audits {
		actions = append(actions, entry.Action)
	}
	return actions
}

type txRunner struct {
	store *Store
}

// InTx discards fn's writes when fn returns an error, matching the rollback
// the database runner performs. Transactions serialize on txMu so a rollback
// never undoes a concurrent committer's writes.
func (r txRunner) InTx(_ context.Context, fn func(store repository.Store) error) error {
	r.store.txMu.Lock()
	defer r.store.txMu.Unlock()
	snapshot := r.store.snapshot()
	if err := fn(r.store.Repos()); err != nil {
		r.store.restore(snapshot)
		return err
	}
	return nil
}

type storeSnapshot struct {
	accounts []*entity.Account
	tokens   []*entity.TokenRecord
	audits   []*entity.AuditLog
}

func (s *Store) snapshot() storeSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := storeSnapshot{
		accounts: make([]*entity.Account, len(s.accounts)),
		tokens:   make([]*entity.TokenRecord, len(s.tokens)),
		audits:   make([]*entity.AuditLog, len(s.audits)),
	}
	for index, account := range s.accounts {
		copied := *account
		snap.accounts[index] = &copied
	}
	for index, record := range s.tokens {
		copied := *record
		snap.tokens[index] = &copied
	}
	for index, entry := range s.audits {
		copied := *entry
		snap.audits[index] = &copied
	}
	return snap
}

func (s *Store) restore(snap storeSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = snap.accounts
	s.tokens = snap.tokens
	s.audits = snap.audits
}

type accountRepo struct {
	store *Store
}

func (r *accountRepo) Create(_ context.Context, account *entity.Account) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, existing := range r.store.accounts {
		if strings.EqualFold(existing.Email, account.Email) || existing.Username == account.Username {
			return repository.ErrDuplicateKey
		}
	}
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	account.CreatedAt = time.Now()
	account.UpdatedAt = account.CreatedAt
	stored := *account
	r.store.accounts = append(r.store.accounts, &stored)
	return nil
}

func (r *accountRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Account, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, account := range r.store.accounts {
		if account.ID == id {
			copied := *account
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *accountRepo) FindByEmail(_ context.Context, email string) (*entity.Account, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, account := range r.store.accounts {
		if strings.EqualFold(account.Email, email) {
			copied := *account
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *accountRepo) MarkVerified(_ context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, account := range r.store.accounts {
		if account.ID == id {
			account.IsVerified = true
			account.Status = entity.StatusActive
			account.UpdatedAt = time.Now()
		}
	}
	return nil
}

func (r *accountRepo) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, account := range r.store.accounts {
		if account.ID == id {
			account.PasswordHash = passwordHash
			account.UpdatedAt = time.Now()
		}
	}
	return nil
}

func (r *accountRepo) SetStatus(_ context.Context, id uuid.UUID, status entity.AccountStatus) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, account := range r.store.accounts {
		if account.ID == id {
			account.Status = status
			account.UpdatedAt = time.Now()
		}
	}
	return nil
}

type tokenRepo struct {
	store *Store
}

func (r *tokenRepo) Create(_ context.Context, record *entity.TokenRecord) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	record.CreatedAt = time.Now()
	stored := *record
	r.store.tokens = append(r.store.tokens, &stored)
	return nil
}

func (r *tokenRepo) FindUnconsumed(_ context.Context, purpose entity.TokenPurpose) ([]entity.TokenRecord, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var records []entity.TokenRecord
	for _, record := range r.store.tokens {
		if record.Purpose == purpose && record.ConsumedAt == nil {
			records = append(records, *record)
		}
	}
	return records, nil
}

func (r *tokenRepo) FindActiveByID(_ context.Context, id uuid.UUID) (*entity.TokenRecord, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, record := range r.store.tokens {
		if record.ID == id && record.ConsumedAt == nil {
			copied := *record
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *tokenRepo) LatestByAccount(
	_ context.Context,
	accountID uuid.UUID,
	purpose entity.TokenPurpose,
) (*entity.TokenRecord, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for index := len(r.store.tokens) - 1; index >= 0; index-- {
		record := r.store.tokens[index]
		if record.AccountID == accountID && record.Purpose == purpose && record.ConsumedAt == nil {
			copied := *record
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *tokenRepo) Consume(_ context.Context, id uuid.UUID) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, record := range r.store.tokens {
		if record.ID == id {
			if record.ConsumedAt != nil {
				return false, nil
			}
			now := time.Now()
			record.ConsumedAt = &now
			return true, nil
		}
	}
	return false, nil
}

func (r *tokenRepo) RevokeAllByAccount(
	_ context.Context,
	accountID uuid.UUID,
	purpose entity.TokenPurpose,
) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	now := time.Now()
	for _, record := range r.store.tokens {
		if record.AccountID == accountID && record.Purpose == purpose && record.ConsumedAt == nil {
			record.ConsumedAt = &now
		}
	}
	return nil
}

func (r *tokenRepo) DeleteExpiredBefore(_ context.Context, cutoff time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	kept := r.store.tokens[:0]
	for _, record := range r.store.tokens {
		if !record.ExpiresAt.Before(cutoff) {
			kept = append(kept, record)
		}
	}
	r.store.tokens = kept
	return nil
}

type auditRepo struct {
	store *Store
}

func (r *auditRepo) Log(_ context.Context, log *entity.AuditLog) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}
	log.CreatedAt = time.Now()
	stored := *log
	r.store.audits = append(r.store.audits, &stored)
	return nil
}
