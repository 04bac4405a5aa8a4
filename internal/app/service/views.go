package service

import (
	"github.com/google/uuid"
	"github.com/ikkim/wishlist-backend/internal/app/model"
	"github.com/ikkim/wishlist-backend/internal/app/repository"
	"github.com/ikkim/wishlist-backend/pkg/logger"
)

// viewBuilder shapes models into owner or public views, resolving user
// display names on the way.
type viewBuilder struct {
	userRepo repository.UserRepository
}

// names falls back to an empty map on lookup failure; holders are then
// shown with their short user label.
func (b viewBuilder) names(items []model.Item) map[uuid.UUID]string {
	ids := model.ParticipantIDs(items)
	if len(ids) == 0 || b.userRepo == nil {
		return map[uuid.UUID]string{}
	}
	names, err := b.userRepo.FindDisplayNames(ids)
	if err != nil {
		logger.Warn("Falling back to short user labels", map[string]interface{}{
			"count": len(ids),
			"error": err.Error(),
		})
		return map[uuid.UUID]string{}
	}
	return names
}

func (b viewBuilder) item(item *model.Item, viewerID *uuid.UUID) model.ItemView {
	asOwner := isOwner(item.Wishlist, viewerID)
	return model.NewItemView(item, asOwner, b.names([]model.Item{*item}))
}

func (b viewBuilder) wishlist(w *model.Wishlist, viewerID *uuid.UUID) model.WishlistView {
	return model.NewWishlistView(w, isOwner(w, viewerID), b.names(w.Items))
}

func isOwner(w *model.Wishlist, viewerID *uuid.UUID) bool {
	return w != nil && viewerID != nil && w.IsOwnedBy(*viewerID)
}

// viewerOf returns the user id behind a requester, nil for guests.
func viewerOf(requester model.Requester) *uuid.UUID {
	if r, ok := requester.(model.AuthenticatedRequester); ok {
		id := r.UserID
		return &id
	}
	return nil
}
