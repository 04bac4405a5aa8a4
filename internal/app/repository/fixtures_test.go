package repository

import (
	"testing"

	"github.com/google/uuid"
	"github.com/ikkim/wishlist-backend/internal/app/model"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func createWishlist(t *testing.T, testDB *gorm.DB, ownerID uuid.UUID, slug string) *model.Wishlist {
	t.Helper()
	wishlist := &model.Wishlist{Slug: slug, Title: "Birthday", OwnerID: ownerID}
	require.NoError(t, testDB.Create(wishlist).Error)
	return wishlist
}

func createItem(t *testing.T, testDB *gorm.DB, wishlistID uuid.UUID, price string, group bool) *model.Item {
	t.Helper()
	item := &model.Item{
		WishlistID:  wishlistID,
		Title:       "Gift",
		Price:       model.MustParseMoney(price),
		IsGroupGift: group,
	}
	require.NoError(t, testDB.Create(item).Error)
	return item
}

func guest(name string) model.Requester {
	return model.GuestRequester{Name: name}
}
