package settings

import (
	"context"
	"errors"
	"strings"

	"github.com/crumbworks/bakery-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists admin configuration rows and zip code delivery rules.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// LatestConfiguration returns the newest admin configuration, or nil when none exists.
func (r *Repository) LatestConfiguration(ctx context.Context) (*models.AdminConfiguration, error) {
	var row models.AdminConfiguration
	err := r.db.WithContext(ctx).Order("created_at DESC").First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) CreateConfiguration(ctx context.Context, row *models.AdminConfiguration) error {
	return r.db.WithContext(ctx).Create(row).Error
}

// FindZipCode returns the active delivery rule for zip.
func (r *Repository) FindZipCode(ctx context.Context, zip string) (*models.ZipCodeConfig, error) {
	var row models.ZipCodeConfig
	err := r.db.WithContext(ctx).
		Where("zip_code = ? AND is_deleted = ?", strings.TrimSpace(zip), false).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) ListZipCodes(ctx context.Context) ([]models.ZipCodeConfig, error) {
	var rows []models.ZipCodeConfig
	err := r.db.WithContext(ctx).
		Where("is_deleted = ?", false).
		Order("zip_code ASC").
		Find(&rows).Error
	return rows, err
}

func (r *Repository) FindZipCodeByID(ctx context.Context, id uuid.UUID) (*models.ZipCodeConfig, error) {
	var row models.ZipCodeConfig
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) SaveZipCode(ctx context.Context, row *models.ZipCodeConfig) error {
	return r.db.WithContext(ctx).Save(row).Error
}

func (r *Repository) SoftDeleteZipCode(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.ZipCodeConfig{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Update("is_deleted", true)
	return res.RowsAffected, res.Error
}
