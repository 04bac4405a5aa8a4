package repository

import (
	"testing"

	"github.com/google/uuid"
	"github.com/ikkim/wishlist-backend/internal/app/model"
	"github.com/ikkim/wishlist-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestItemRepository_CreateAndFind(t *testing.T) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	defer db.CleanupTestDB(testDB)
	repo := NewItemRepository(testDB)

	wishlist := createWishlist(t, testDB, uuid.New(), "wishlist-items")
	item := &model.Item{
		WishlistID:  wishlist.ID,
		Title:       "Camera",
		Price:       model.MustParseMoney("1000"),
		IsGroupGift: true,
	}
	require.NoError(t, repo.Create(item))

	amounts := []string{"100", "200.50"}
	for _, a := range amounts {
		name := "guest " + a
		require.NoError(t, testDB.Create(&model.Contribution{ItemID: item.ID, GuestName: &name, Amount: model.MustParseMoney(a)}).Error)
	}

	found, err := repo.FindByID(item.ID)
	require.NoError(t, err)
	require.NotNil(t, found.Wishlist)
	assert.Equal(t, "wishlist-items", found.Wishlist.Slug)
	assert.Nil(t, found.Reservation)
	assert.Equal(t, "300.50", found.TotalContributions().String())
	assert.Equal(t, "699.50", found.Remaining().String())

	contributions, err := repo.FindContributions(item.ID)
	require.NoError(t, err)
	assert.Len(t, contributions, 2)

	_, err = repo.FindByID(uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
