package model

// EventWishlistUpdated is the only live event type. It carries no state;
// receivers refetch the wishlist.
const EventWishlistUpdated = "wishlist_updated"

// ChangeEvent is the frame pushed to live viewers.
type ChangeEvent struct {
	Type string `json:"type"`
	Slug string `json:"slug"`
}

func NewChangeEvent(slug string) ChangeEvent {
	return ChangeEvent{Type: EventWishlistUpdated, Slug: slug}
}
