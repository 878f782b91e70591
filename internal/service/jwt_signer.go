package service

import (
	"time"

	"authd/internal/entity"
	"authd/internal/utils"

	"github.com/google/uuid"
)

type JWTTokenSigner struct {
	Manager *utils.JWTManager
}

func (j JWTTokenSigner) SignAccessToken(account entity.Account) (string, time.Duration, error) {
	if j.Manager == nil {
		return "", 0, ErrTokenInvalid
	}
	return j.Manager.IssueAccessToken(
		account.ID.String(),
		account.Email,
		account.Username,
		string(account.Role),
	)
}

func (j JWTTokenSigner) SignRefreshToken(accountID uuid.UUID, tokenID uuid.UUID, expiresAt time.Time) (string, error) {
	if j.Manager == nil {
		return "", ErrTokenInvalid
	}
	return j.Manager.IssueRefreshToken(accountID.String(), tokenID.String(), expiresAt)
}

func (j JWTTokenSigner) ParseRefreshToken(token string) (uuid.UUID, uuid.UUID, error) {
	if j.Manager == nil {
		return uuid.Nil, uuid.Nil, ErrTokenInvalid
	}
	claims, err := j.Manager.ParseRefreshToken(token)
	if err != nil {
		return uuid.Nil, uuid.Nil, ErrTokenInvalid
	}
	accountID, err := uuid.Parse(claims.AccountID)
	if err != nil {
		return uuid.Nil, uuid.Nil, ErrTokenInvalid
	}
	tokenID, err := uuid.Parse(claims.TokenID)
	if err != nil {
		return uuid.Nil, uuid.Nil, ErrTokenInvalid
	}
	return accountID, tokenID, nil
}
