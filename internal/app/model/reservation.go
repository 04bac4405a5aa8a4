package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Reservation is the single-holder claim on a regular item. The unique index
// on item_id is the storage-level guard against double reservation.
type Reservation struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ItemID    uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex" json:"item_id"`
	UserID    *uuid.UUID `gorm:"type:uuid;index" json:"user_id,omitempty"`
	GuestName *string    `json:"guest_name,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func (Reservation) TableName() string {
	return "reservations"
}

func (r *Reservation) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

func (r *Reservation) Holder() Requester {
	return requesterFromColumns(r.UserID, r.GuestName)
}

// HolderName is the public label of whoever holds the reservation. names maps
// known user ids to display names.
func (r *Reservation) HolderName(names map[uuid.UUID]string) string {
	return holderName(r.UserID, r.GuestName, names)
}
