package models

import (
	"time"

	"github.com/crumbworks/bakery-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents the canonical identity entity.
type User struct {
	ID            uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	Email         string         `gorm:"column:email;type:text;not null;uniqueIndex"`
	PasswordHash  string         `gorm:"column:password_hash;not null"`
	FirstName     string         `gorm:"column:first_name;not null"`
	LastName      string         `gorm:"column:last_name;not null"`
	ContactNumber *string        `gorm:"column:contact_number"`
	Role          enums.UserRole `gorm:"column:role;type:text;not null;default:'bakery'"`
	IsActive      bool           `gorm:"column:is_active;not null;default:true"`
	EmailVerified bool           `gorm:"column:email_verified;not null;default:false"`
	LastLoginAt   *time.Time     `gorm:"column:last_login_at"`
	CreatedAt     time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	ensureID(&u.ID)
	return nil
}

// Bakery is the business profile owned by a bakery user.
type Bakery struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID        uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	Name          string    `gorm:"column:name;not null"`
	ContactNumber *string   `gorm:"column:contact_number"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Bakery) TableName() string {
	return "bakeries"
}

func (b *Bakery) BeforeCreate(*gorm.DB) error {
	ensureID(&b.ID)
	return nil
}
