package service

import "errors"

var (
	ErrInvalidInput = errors.New("invalid input")

	// register conflicts, all 409 but with distinct guidance
	ErrBlockedEmailExists     = errors.New("email already exists, please contact support")
	ErrVerificationPending    = errors.New("email already exists, please check your email for the verification link")
	ErrEmailAlreadyRegistered = errors.New("email already exists, try logging in")

	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailNotVerified   = errors.New("please verify your email before logging in")
	ErrAccountBlocked     = errors.New("your account has been blocked, please contact support")
	ErrAlreadyVerified    = errors.New("email is already verified, please log in")
	ErrTokenInvalid       = errors.New("invalid or already used token")
	ErrTokenExpired       = errors.New("token has expired, please request a new one")
	ErrAccountNotFound    = errors.New("no account found with this email")
)
