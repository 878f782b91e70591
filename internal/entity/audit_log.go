package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type AuditAction string

const (
	AuditRegistered         AuditAction = "registered"
	AuditVerificationResent AuditAction = "email_verification_resend"
	AuditLoginSuccess       AuditAction = "login_success"
	AuditLoginFailed        AuditAction = "login_failed"
	AuditEmailVerified      AuditAction = "email_verified"
	AuditResetRequested     AuditAction = "password_reset_requested"
	AuditPasswordReset      AuditAction = "password_reset"
	AuditTokenRefreshed     AuditAction = "token_refreshed"
	AuditLogout             AuditAction = "logout"
	AuditAccountBlocked     AuditAction = "account_blocked"
)

type AuditLog struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	AccountID *uuid.UUID `gorm:"type:uuid;index"`
	Account   *Account   `gorm:"constraint:OnDelete:SET NULL"`

	IPAddress *string     `gorm:"type:varchar(45)"`
	Action    AuditAction `gorm:"type:varchar(40);not null"`

	Metadata datatypes.JSON

	CreatedAt time.Time
}
