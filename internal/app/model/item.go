package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ItemStatus is the owner-facing progress label.
type ItemStatus string

const (
	ItemStatusReserved   ItemStatus = "Reserved"
	ItemStatusCollecting ItemStatus = "Collecting"
	ItemStatusCollected  ItemStatus = "Collected"
)

// Item is a wish inside a wishlist. IsGroupGift selects the protocol: a
// regular item takes at most one Reservation, a group gift takes any number
// of Contributions whose sum never exceeds Price.
type Item struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	WishlistID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"wishlist_id"`
	Title       string     `gorm:"not null" json:"title"`
	URL         string     `json:"url,omitempty"`
	Price       Money      `gorm:"type:decimal(10,2);not null" json:"price"`
	ImageURL    string     `json:"image_url,omitempty"`
	IsGroupGift bool       `gorm:"not null;default:false" json:"is_group_gift"`
	CreatedBy   *uuid.UUID `gorm:"type:uuid" json:"-"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Wishlist      *Wishlist      `gorm:"foreignKey:WishlistID" json:"-"`
	Reservation   *Reservation   `gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE" json:"-"`
	Contributions []Contribution `gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Item) TableName() string {
	return "items"
}

func (i *Item) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// TotalContributions sums the loaded Contributions.
func (i *Item) TotalContributions() Money {
	amounts := make([]Money, 0, len(i.Contributions))
	for _, c := range i.Contributions {
		amounts = append(amounts, c.Amount)
	}
	return SumMoney(amounts)
}

// Remaining is the unfunded balance of a group gift, never negative.
func (i *Item) Remaining() Money {
	remaining := i.Price.Sub(i.TotalContributions())
	if remaining.IsNegative() {
		return ZeroMoney()
	}
	return remaining
}

func (i *Item) IsFullyFunded() bool {
	return i.IsGroupGift && !i.TotalContributions().LessThan(i.Price.Decimal)
}

// Status derives the owner-facing label; nil for a free regular item.
func (i *Item) Status() *ItemStatus {
	var s ItemStatus
	switch {
	case i.IsGroupGift && i.IsFullyFunded():
		s = ItemStatusCollected
	case i.IsGroupGift:
		s = ItemStatusCollecting
	case i.Reservation != nil:
		s = ItemStatusReserved
	default:
		return nil
	}
	return &s
}

// ItemPatch carries owner edits; nil fields are left unchanged.
type ItemPatch struct {
	Title       *string
	URL         *string
	Price       *Money
	ImageURL    *string
	IsGroupGift *bool
}

func (p ItemPatch) IsEmpty() bool {
	return p.Title == nil && p.URL == nil && p.Price == nil && p.ImageURL == nil && p.IsGroupGift == nil
}
