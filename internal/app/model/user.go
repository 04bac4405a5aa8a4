package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the owner of wishlists or an authenticated participant. Accounts
// are provisioned by the auth collaborator; this service only reads them.
type User struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Email     string         `gorm:"uniqueIndex;not null" json:"email"`
	Name      string         `gorm:"not null" json:"name"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// DisplayName is what other participants see for this user.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return ShortUserLabel(u.ID)
}

// ShortUserLabel renders "User 1a2b3c4d" for users without a known name.
func ShortUserLabel(id uuid.UUID) string {
	return "User " + id.String()[:8]
}
