package address

import (
	"context"
	"errors"

	"github.com/crumbworks/bakery-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists user addresses and the known shipping states.
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

func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	var rows []models.Address
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_primary DESC").
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *Repository) FindOwned(ctx context.Context, userID, id uuid.UUID) (*models.Address, error) {
	var row models.Address
	if err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// FindPrimary returns the user's primary address, or nil when none is flagged.
func (r *Repository) FindPrimary(ctx context.Context, userID uuid.UUID) (*models.Address, error) {
	var row models.Address
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_primary = ?", userID, true).
		Order("updated_at DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) Create(ctx context.Context, row *models.Address) error {
	return r.db.WithContext(ctx).Create(row).Error
}

// SetPrimary flags id as the only primary address of the user.
func (r *Repository) SetPrimary(ctx context.Context, userID, id uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Model(&models.Address{}).
		Where("user_id = ? AND id <> ?", userID, id).
		Update("is_primary", false).Error; err != nil {
		return err
	}
	return db.Model(&models.Address{}).
		Where("user_id = ? AND id = ?", userID, id).
		Update("is_primary", true).Error
}

func (r *Repository) StateExists(ctx context.Context, name string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.State{}).Where("name = ?", name).Count(&count).Error
	return count > 0, err
}

// StateNames lists every known state, alphabetically.
func (r *Repository) StateNames(ctx context.Context) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).Model(&models.State{}).Order("name ASC").Pluck("name", &names).Error
	return names, err
}
