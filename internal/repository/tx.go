package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store groups the repositories so that flows can run against either the
// shared connection or a transaction.
type Store struct {
	Accounts AccountRepository
	Tokens   TokenRecordRepository
	Audit    AuditLogRepository
}

func NewStore(db *gorm.DB) Store {
	return Store{
		Accounts: NewAccountRepository(db),
		Tokens:   NewTokenRecordRepository(db),
		Audit:    NewAuditLogRepository(db),
	}
}

// TxRunner executes fn inside one database transaction. Every
// read-check-mutate sequence of a lifecycle flow goes through here.
type TxRunner interface {
	InTx(ctx context.Context, fn func(store Store) error) error
}

type gormTxRunner struct {
	db *gorm.DB
}

func NewTxRunner(db *gorm.DB) TxRunner {
	return &gormTxRunner{db: db}
}

func (r *gormTxRunner) InTx(ctx context.Context, fn func(store Store) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}
