package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewItemView_OwnerHidesParticipants(t *testing.T) {
	guest := "Alice"
	item := &Item{ID: uuid.New(), Price: MustParseMoney("1000"), Reservation: &Reservation{GuestName: &guest}}

	view := NewItemView(item, true, nil)
	require.NotNil(t, view.IsReserved)
	assert.True(t, *view.IsReserved)
	require.NotNil(t, view.Status)
	assert.Equal(t, ItemStatusReserved, *view.Status)
	assert.Nil(t, view.ReservedBy)
	assert.Nil(t, view.Contributions)
}

func TestNewItemView_PublicRegular(t *testing.T) {
	guest := "Alice"
	item := &Item{ID: uuid.New(), Price: MustParseMoney("1000"), Reservation: &Reservation{GuestName: &guest}}

	view := NewItemView(item, false, nil)
	require.NotNil(t, view.ReservedBy)
	assert.Equal(t, "Alice", *view.ReservedBy)
	assert.Nil(t, view.IsReserved)
	assert.Nil(t, view.Status)
}

func TestNewItemView_PublicGroupGift(t *testing.T) {
	userID := uuid.New()
	guest := "Bob"
	item := &Item{
		ID:          uuid.New(),
		Price:       MustParseMoney("1000"),
		IsGroupGift: true,
		Contributions: []Contribution{
			{GuestName: &guest, Amount: MustParseMoney("600")},
			{UserID: &userID, Amount: MustParseMoney("150")},
		},
	}

	view := NewItemView(item, false, map[uuid.UUID]string{userID: "Dana"})
	require.NotNil(t, view.TotalContributions)
	assert.Equal(t, "750.00", view.TotalContributions.String())
	assert.Equal(t, "250.00", view.Remaining.String())
	assert.False(t, *view.IsFullyFunded)
	assert.Equal(t, []ContributionInfo{
		{Name: "Bob", Amount: MustParseMoney("600")},
		{Name: "Dana", Amount: MustParseMoney("150")},
	}, view.Contributions)
}

func TestNewWishlistView_OwnerIDOnlyForOwner(t *testing.T) {
	w := &Wishlist{ID: uuid.New(), Slug: "wishlist-x", OwnerID: uuid.New(), Items: []Item{{ID: uuid.New()}}}

	owner := NewWishlistView(w, true, nil)
	require.NotNil(t, owner.OwnerID)
	assert.True(t, owner.IsOwner)
	assert.Len(t, owner.Items, 1)

	public := NewWishlistView(w, false, nil)
	assert.Nil(t, public.OwnerID)
	assert.False(t, public.IsOwner)
}

func TestParticipantIDs_Deduplicates(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	items := []Item{
		{Reservation: &Reservation{UserID: &a}},
		{Contributions: []Contribution{{UserID: &a}, {UserID: &b}, {}}},
	}
	assert.ElementsMatch(t, []uuid.UUID{a, b}, ParticipantIDs(items))
}
