package model

import (
	"time"

	"github.com/google/uuid"
)

// ContributionInfo is the public line of a group gift's contributor list.
type ContributionInfo struct {
	Name   string `json:"name"`
	Amount Money  `json:"amount"`
}

// ItemView is the item as returned to a caller. Owner views fill IsReserved
// and Status; public views fill the reservation holder and funding fields.
type ItemView struct {
	ID          uuid.UUID `json:"id"`
	WishlistID  uuid.UUID `json:"wishlist_id"`
	Title       string    `json:"title"`
	URL         string    `json:"url,omitempty"`
	Price       Money     `json:"price"`
	ImageURL    string    `json:"image_url,omitempty"`
	IsGroupGift bool      `json:"is_group_gift"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Owner view
	IsReserved *bool       `json:"is_reserved,omitempty"`
	Status     *ItemStatus `json:"status,omitempty"`

	// Public view
	ReservedBy         *string            `json:"reserved_by,omitempty"`
	TotalContributions *Money             `json:"total_contributions,omitempty"`
	Remaining          *Money             `json:"remaining,omitempty"`
	IsFullyFunded      *bool              `json:"is_fully_funded,omitempty"`
	Contributions      []ContributionInfo `json:"contributions,omitempty"`
}

type WishlistView struct {
	ID          uuid.UUID  `json:"id"`
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	OwnerID     *uuid.UUID `json:"owner_id,omitempty"`
	IsOwner     bool       `json:"is_owner"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Items       []ItemView `json:"items"`
}

// NewItemView shapes an item with its reservation and contributions loaded.
func NewItemView(item *Item, asOwner bool, names map[uuid.UUID]string) ItemView {
	view := ItemView{
		ID:          item.ID,
		WishlistID:  item.WishlistID,
		Title:       item.Title,
		URL:         item.URL,
		Price:       item.Price,
		ImageURL:    item.ImageURL,
		IsGroupGift: item.IsGroupGift,
		CreatedAt:   item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
	}

	if asOwner {
		reserved := !item.IsGroupGift && item.Reservation != nil
		view.IsReserved = &reserved
		view.Status = item.Status()
		return view
	}

	if item.IsGroupGift {
		total := item.TotalContributions()
		remaining := item.Remaining()
		funded := item.IsFullyFunded()
		view.TotalContributions = &total
		view.Remaining = &remaining
		view.IsFullyFunded = &funded
		view.Contributions = make([]ContributionInfo, 0, len(item.Contributions))
		for i := range item.Contributions {
			c := &item.Contributions[i]
			view.Contributions = append(view.Contributions, ContributionInfo{
				Name:   c.HolderName(names),
				Amount: c.Amount,
			})
		}
		return view
	}

	if item.Reservation != nil {
		name := item.Reservation.HolderName(names)
		view.ReservedBy = &name
	}
	return view
}

func NewWishlistView(w *Wishlist, asOwner bool, names map[uuid.UUID]string) WishlistView {
	view := WishlistView{
		ID:          w.ID,
		Slug:        w.Slug,
		Title:       w.Title,
		Description: w.Description,
		IsOwner:     asOwner,
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
		Items:       make([]ItemView, 0, len(w.Items)),
	}
	if asOwner {
		ownerID := w.OwnerID
		view.OwnerID = &ownerID
	}
	for i := range w.Items {
		view.Items = append(view.Items, NewItemView(&w.Items[i], asOwner, names))
	}
	return view
}

// ParticipantIDs collects the user ids that need display names.
func ParticipantIDs(items []Item) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})
	var ids []uuid.UUID
	add := func(id *uuid.UUID) {
		if id == nil {
			return
		}
		if _, ok := seen[*id]; ok {
			return
		}
		seen[*id] = struct{}{}
		ids = append(ids, *id)
	}
	for i := range items {
		if items[i].Reservation != nil {
			add(items[i].Reservation.UserID)
		}
		for j := range items[i].Contributions {
			add(items[i].Contributions[j].UserID)
		}
	}
	return ids
}
