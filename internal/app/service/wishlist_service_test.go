package service

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/ikkim/wishlist-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWishlistService_CreateAndList(t *testing.T) {
	f := setupServiceTest(t)

	view, err := f.wishlists.CreateWishlist(f.owner.ID, WishlistInput{Title: "  Wedding  "})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(view.Slug, "wishlist-"))
	assert.Equal(t, "Wedding", view.Title)
	assert.True(t, view.IsOwner)

	_, err = f.wishlists.CreateWishlist(f.owner.ID, WishlistInput{Title: " "})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	own, err := f.wishlists.ListOwnWishlists(f.owner.ID)
	require.NoError(t, err)
	assert.Len(t, own, 2)
}

func TestWishlistService_OwnerAndPublicViews(t *testing.T) {
	f := setupServiceTest(t)
	ctx := context.Background()
	regular := f.item(t, "100", false)

	_, err := f.reservations.Reserve(ctx, regular, guestNamed("Alice"))
	require.NoError(t, err)

	owner, err := f.wishlists.GetWishlist("wishlist-test", &f.owner.ID)
	require.NoError(t, err)
	assert.True(t, owner.IsOwner)
	require.Len(t, owner.Items, 1)
	assert.True(t, *owner.Items[0].IsReserved)
	assert.Equal(t, model.ItemStatusReserved, *owner.Items[0].Status)
	assert.Nil(t, owner.Items[0].ReservedBy, "owner view hides the holder")

	stranger := uuid.New()
	public, err := f.wishlists.GetWishlist("wishlist-test", &stranger)
	require.NoError(t, err)
	assert.False(t, public.IsOwner)
	assert.Nil(t, public.OwnerID)
	assert.Nil(t, public.Items[0].IsReserved)
	assert.Equal(t, "Alice", *public.Items[0].ReservedBy)

	_, err = f.wishlists.GetWishlist("wishlist-nope", nil)
	assert.ErrorIs(t, err, ErrWishlistNotFound)
}

func TestWishlistService_UpdateAndDeleteWishlist(t *testing.T) {
	f := setupServiceTest(t)

	_, err := f.wishlists.UpdateWishlist("wishlist-test", uuid.New(), WishlistInput{Title: "Hijack"})
	assert.ErrorIs(t, err, ErrForbidden)

	view, err := f.wishlists.UpdateWishlist("wishlist-test", f.owner.ID, WishlistInput{Title: "Housewarming", Description: "New flat"})
	require.NoError(t, err)
	assert.Equal(t, "Housewarming", view.Title)

	require.NoError(t, f.wishlists.DeleteWishlist("wishlist-test", f.owner.ID))
	_, err = f.wishlists.GetWishlist("wishlist-test", nil)
	assert.ErrorIs(t, err, ErrWishlistNotFound)

	assert.Equal(t, []string{"wishlist-test", "wishlist-test"}, f.notifier.published())
}

func TestWishlistService_AddItem(t *testing.T) {
	f := setupServiceTest(t)

	tests := []struct {
		name    string
		caller  uuid.UUID
		input   ItemInput
		wantErr error
	}{
		{"Valid", f.owner.ID, ItemInput{Title: "Kettle", Price: model.MustParseMoney("45.90")}, nil},
		{"Non-owner", uuid.New(), ItemInput{Title: "Kettle", Price: model.MustParseMoney("1")}, ErrForbidden},
		{"Zero price", f.owner.ID, ItemInput{Title: "Kettle", Price: model.ZeroMoney()}, ErrInvalidRequest},
		{"Blank title", f.owner.ID, ItemInput{Title: "  ", Price: model.MustParseMoney("1")}, ErrInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view, err := f.wishlists.AddItem("wishlist-test", tt.caller, tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "45.90", view.Price.String())
			assert.False(t, *view.IsReserved)
		})
	}
	assert.Equal(t, []string{"wishlist-test"}, f.notifier.published())
}

func TestWishlistService_UpdateItem(t *testing.T) {
	f := setupServiceTest(t)
	ctx := context.Background()
	group := f.item(t, "1000", true)

	_, err := f.reservations.Contribute(ctx, group, guestNamed("Alice"), model.MustParseMoney("300"))
	require.NoError(t, err)

	low := model.MustParseMoney("100")
	_, err = f.wishlists.UpdateItem(ctx, group, f.owner.ID, model.ItemPatch{Price: &low})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	flip := false
	_, err = f.wishlists.UpdateItem(ctx, group, f.owner.ID, model.ItemPatch{IsGroupGift: &flip})
	assert.ErrorIs(t, err, ErrWrongItemKind)

	price := model.MustParseMoney("300")
	view, err := f.wishlists.UpdateItem(ctx, group, f.owner.ID, model.ItemPatch{Price: &price})
	require.NoError(t, err)
	assert.Equal(t, model.ItemStatusCollected, *view.Status)
}

func TestWishlistService_DeleteItemReportsHolders(t *testing.T) {
	f := setupServiceTest(t)
	ctx := context.Background()
	regular := f.item(t, "100", false)

	_, err := f.reservations.Reserve(ctx, regular, guestNamed("Alice"))
	require.NoError(t, err)

	_, err = f.wishlists.DeleteItem(ctx, regular, uuid.New())
	assert.ErrorIs(t, err, ErrForbidden)

	deletion, err := f.wishlists.DeleteItem(ctx, regular, f.owner.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deletion.RemovedReservations)

	_, err = f.reservations.Reserve(ctx, regular, guestNamed("Bob"))
	assert.ErrorIs(t, err, ErrItemNotFound)
}
