package entity

import (
	"time"

	"github.com/google/uuid"
)

type AccountStatus string

const (
	StatusUnverified AccountStatus = "UNVERIFIED"
	StatusActive     AccountStatus = "ACTIVE"
	StatusBlocked    AccountStatus = "BLOCKED"
)

type AccountRole string

const (
	RoleUser  AccountRole = "USER"
	RoleAdmin AccountRole = "ADMIN"
)

type Account struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Username     string    `gorm:"type:varchar(100);uniqueIndex;not null"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string    `gorm:"type:text;not null"`

	IsVerified bool          `gorm:"not null;default:false"`
	Status     AccountStatus `gorm:"type:varchar(20);not null;default:'UNVERIFIED'"`
	Role       AccountRole   `gorm:"type:varchar(20);not null;default:'USER'"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Tokens []TokenRecord `gorm:"foreignKey:AccountID"`
}

func (a *Account) Blocked() bool {
	return a.Status == StatusBlocked
}
