package entity

import (
	"time"

	"github.com/google/uuid"
)

type TokenPurpose string

const (
	PurposeVerification TokenPurpose = "verification"
	PurposeReset        TokenPurpose = "reset"
	PurposeRefresh      TokenPurpose = "refresh"
)

// TokenRecord stores the hash of a raw secret handed out exactly once at
// issuance. ConsumedAt is the used/revoked flag: it goes nil -> non-nil once
// and never back.
type TokenRecord struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	AccountID uuid.UUID `gorm:"type:uuid;not null;index"`
	Account   Account   `gorm:"constraint:OnDelete:CASCADE"`

	SecretHash string       `gorm:"type:text;not null"`
	Purpose    TokenPurpose `gorm:"type:varchar(20);not null;index"`

	ExpiresAt  time.Time
	ConsumedAt *time.Time

	CreatedAt time.Time
}

func (t *TokenRecord) Consumed() bool {
	return t.ConsumedAt != nil
}

func (t *TokenRecord) Expired(now time.Time) bool {
	return t.ExpiresAt.Before(now)
}
