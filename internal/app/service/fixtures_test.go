package service

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/ikkim/wishlist-backend/internal/app/model"
	"github.com/ikkim/wishlist-backend/internal/app/repository"
	"github.com/ikkim/wishlist-backend/internal/db"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingNotifier struct {
	mu    sync.Mutex
	slugs []string
}

func (n *recordingNotifier) NotifyWishlistChanged(slug string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.slugs = append(n.slugs, slug)
}

func (n *recordingNotifier) published() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.slugs...)
}

type serviceFixture struct {
	db           *gorm.DB
	notifier     *recordingNotifier
	reservations ReservationService
	wishlists    WishlistService
	owner        *model.User
	wishlist     *model.Wishlist
}

func setupServiceTest(t *testing.T) *serviceFixture {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	userRepo := repository.NewUserRepository(testDB)
	itemRepo := repository.NewItemRepository(testDB)
	wishlistRepo := repository.NewWishlistRepository(testDB)
	ledger := repository.NewLedgerRepository(testDB)
	notifier := &recordingNotifier{}

	owner := &model.User{Email: "owner@example.com", Name: "Olivia"}
	require.NoError(t, userRepo.Create(owner))

	wishlist := &model.Wishlist{Slug: "wishlist-test", Title: "Birthday", OwnerID: owner.ID}
	require.NoError(t, wishlistRepo.Create(wishlist))

	return &serviceFixture{
		db:           testDB,
		notifier:     notifier,
		reservations: NewReservationService(ledger, itemRepo, userRepo, notifier),
		wishlists:    NewWishlistService(wishlistRepo, itemRepo, ledger, userRepo, notifier),
		owner:        owner,
		wishlist:     wishlist,
	}
}

func (f *serviceFixture) item(t *testing.T, price string, group bool) uuid.UUID {
	t.Helper()
	item := &model.Item{
		WishlistID:  f.wishlist.ID,
		Title:       "Gift",
		Price:       model.MustParseMoney(price),
		IsGroupGift: group,
	}
	require.NoError(t, f.db.Create(item).Error)
	return item.ID
}

func guestNamed(name string) model.Requester {
	g, _ := model.NewGuestRequester(name)
	return g
}

func contributionLines(infos []model.ContributionInfo) []string {
	lines := make([]string, 0, len(infos))
	for _, c := range infos {
		lines = append(lines, c.Name+":"+c.Amount.String())
	}
	return lines
}
