package repository

import (
	"context"
	"errors"
	"time"

	"authd/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TokenRecordRepository interface {
	Create(ctx context.Context, record *entity.TokenRecord) error
	// FindUnconsumed returns every record of the purpose whose consumed flag
	// is unset, expired ones included so callers can distinguish expiry from
	// absence.
	FindUnconsumed(ctx context.Context, purpose entity.TokenPurpose) ([]entity.TokenRecord, error)
	FindActiveByID(ctx context.Context, id uuid.UUID) (*entity.TokenRecord, error)
	LatestByAccount(ctx context.Context, accountID uuid.UUID, purpose entity.TokenPurpose) (*entity.TokenRecord, error)
	// Consume flips the consumed flag if it is still unset. Exactly one of
	// any number of concurrent callers gets true.
	Consume(ctx context.Context, id uuid.UUID) (bool, error)
	RevokeAllByAccount(ctx context.Context, accountID uuid.UUID, purpose entity.TokenPurpose) error
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) error
}

type tokenRecordRepository struct {
	db *gorm.DB
}

func NewTokenRecordRepository(db *gorm.DB) TokenRecordRepository {
	return &tokenRecordRepository{db: db}
}

func (r *tokenRecordRepository) Create(ctx context.Context, record *entity.TokenRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *tokenRecordRepository) FindUnconsumed(
	ctx context.Context,
	purpose entity.TokenPurpose,
) ([]entity.TokenRecord, error) {
	var records []entity.TokenRecord
	err := r.db.WithContext(ctx).
		Where("purpose = ? AND consumed_at IS NULL", purpose).
		Order("created_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *tokenRecordRepository) FindActiveByID(ctx context.Context, id uuid.UUID) (*entity.TokenRecord, error) {
	var record entity.TokenRecord
	err := r.db.WithContext(ctx).
		Where("id = ? AND consumed_at IS NULL", id).
		First(&record).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *tokenRecordRepository) LatestByAccount(
	ctx context.Context,
	accountID uuid.UUID,
	purpose entity.TokenPurpose,
) (*entity.TokenRecord, error) {
	var record entity.TokenRecord
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND purpose = ? AND consumed_at IS NULL", accountID, purpose).
		Order("created_at DESC").
		First(&record).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *tokenRecordRepository) Consume(ctx context.Context, id uuid.UUID) (bool, error) {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&entity.TokenRecord{}).
		Where("id = ? AND consumed_at IS NULL", id).
		Update("consumed_at", &now)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *tokenRecordRepository) RevokeAllByAccount(
	ctx context.Context,
	accountID uuid.UUID,
	purpose entity.TokenPurpose,
) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&entity.TokenRecord{}).
		Where("account_id = ? AND purpose = ? AND consumed_at IS NULL", accountID, purpose).
		Update("consumed_at", &now).
		Error
}

func (r *tokenRecordRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) error {
	return r.db.WithContext(ctx).
		Where("expires_at < ?", cutoff).
		Delete(&entity.TokenRecord{}).
		Error
}
