package service

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	EventUserRegistered          = "USER_REGISTERED"
	EventPasswordResetRequested  = "PASSWORD_RESET_REQUESTED"
	EventEmailVerificationResend = "EMAIL_VERIFICATION_RESEND"
	EventUserLogin               = "USER_LOGIN"
)

// EventProducer hands lifecycle events to the downstream notification
// collaborator. The token-bearing events carry the raw secret exactly once,
// at issuance; it exists nowhere else.
type EventProducer interface {
	UserRegistered(ctx context.Context, accountID uuid.UUID, email string, rawVerificationToken string) error
	PasswordResetRequested(ctx context.Context, accountID uuid.UUID, email string, rawResetToken string) error
	EmailVerificationResend(ctx context.Context, accountID uuid.UUID, email string, rawVerificationToken string) error
	UserLogin(ctx context.Context, accountID uuid.UUID, email string, at time.Time) error
}
