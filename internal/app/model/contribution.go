package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Contribution is an immutable partial payment toward a group gift.
type Contribution struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ItemID    uuid.UUID  `gorm:"type:uuid;not null;index:idx_contributions_item_created,priority:1" json:"item_id"`
	UserID    *uuid.UUID `gorm:"type:uuid;index" json:"user_id,omitempty"`
	GuestName *string    `json:"guest_name,omitempty"`
	Amount    Money      `gorm:"type:decimal(10,2);not null" json:"amount"`
	CreatedAt time.Time  `gorm:"index:idx_contributions_item_created,priority:2" json:"created_at"`
}

func (Contribution) TableName() string {
	return "contributions"
}

func (c *Contribution) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (c *Contribution) Holder() Requester {
	return requesterFromColumns(c.UserID, c.GuestName)
}

func (c *Contribution) HolderName(names map[uuid.UUID]string) string {
	return holderName(c.UserID, c.GuestName, names)
}
