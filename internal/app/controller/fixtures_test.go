package controller

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/wishlist-backend/internal/app/model"
	"github.com/ikkim/wishlist-backend/internal/app/repository"
	"github.com/ikkim/wishlist-backend/internal/app/service"
	"github.com/ikkim/wishlist-backend/internal/db"
	"github.com/ikkim/wishlist-backend/internal/middleware"
	"github.com/ikkim/wishlist-backend/pkg/util"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "test-secret"

type recordingNotifier struct {
	mu    sync.Mutex
	slugs []string
}

func (n *recordingNotifier) NotifyWishlistChanged(slug string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.slugs = append(n.slugs, slug)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.slugs)
}

type controllerFixture struct {
	router     *gin.Engine
	db         *gorm.DB
	notifier   *recordingNotifier
	owner      *model.User
	ownerToken string
	wishlist   *model.Wishlist
}

func setupControllerTest(t *testing.T) *controllerFixture {
	gin.SetMode(gin.TestMode)

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

	reservationService := service.NewReservationService(ledger, itemRepo, userRepo, notifier)
	wishlistService := service.NewWishlistService(wishlistRepo, itemRepo, ledger, userRepo, notifier)

	reservationCtrl := NewReservationController(reservationService)
	wishlistCtrl := NewWishlistController(wishlistService)
	itemCtrl := NewItemController(wishlistService)
	auth := middleware.NewAuthMiddleware(testSecret)

	router := gin.New()
	api := router.Group("/api")
	api.GET("/wishlists", auth.Authenticate(), wishlistCtrl.ListWishlists)
	api.POST("/wishlists", auth.Authenticate(), wishlistCtrl.CreateWishlist)
	api.GET("/wishlists/:slug", auth.OptionalAuthenticate(), wishlistCtrl.GetWishlist)
	api.PUT("/wishlists/:slug", auth.Authenticate(), wishlistCtrl.UpdateWishlist)
	api.DELETE("/wishlists/:slug", auth.Authenticate(), wishlistCtrl.DeleteWishlist)
	api.GET("/wishlists/:slug/items", auth.OptionalAuthenticate(), wishlistCtrl.ListItems)
	api.POST("/wishlists/:slug/items", auth.Authenticate(), wishlistCtrl.AddItem)
	api.POST("/items/:id/reserve", auth.OptionalAuthenticate(), reservationCtrl.Reserve)
	api.DELETE("/items/:id/reservation", auth.Authenticate(), reservationCtrl.ReleaseReservation)
	api.POST("/items/:id/contribute", auth.OptionalAuthenticate(), reservationCtrl.Contribute)
	api.GET("/items/:id/contributions", reservationCtrl.ListContributions)
	api.PUT("/items/:id", auth.Authenticate(), itemCtrl.UpdateItem)
	api.DELETE("/items/:id", auth.Authenticate(), itemCtrl.DeleteItem)

	owner := &model.User{Email: "owner@example.com", Name: "Olivia"}
	require.NoError(t, userRepo.Create(owner))
	wishlist := &model.Wishlist{Slug: "wishlist-ctrl", Title: "Birthday", OwnerID: owner.ID}
	require.NoError(t, wishlistRepo.Create(wishlist))

	return &controllerFixture{
		router:     router,
		db:         testDB,
		notifier:   notifier,
		owner:      owner,
		ownerToken: tokenFor(t, owner),
		wishlist:   wishlist,
	}
}

func tokenFor(t *testing.T, user *model.User) string {
	t.Helper()
	token, err := util.IssueAccessToken(user.ID, user.Email, testSecret, 15*time.Minute)
	require.NoError(t, err)
	return token
}

func (f *controllerFixture) user(t *testing.T, name string) (*model.User, string) {
	t.Helper()
	user := &model.User{Email: name + "@example.com", Name: name}
	require.NoError(t, f.db.Create(user).Error)
	return user, tokenFor(t, user)
}

func (f *controllerFixture) item(t *testing.T, price string, group bool) *model.Item {
	t.Helper()
	item := &model.Item{
		WishlistID:  f.wishlist.ID,
		Title:       "Gift",
		Price:       model.MustParseMoney(price),
		IsGroupGift: group,
	}
	require.NoError(t, f.db.Create(item).Error)
	return item
}

// do sends body as JSON (nil sends no body) and decodes the response.
func (f *controllerFixture) do(t *testing.T, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var response map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	}
	return w.Code, response
}

func object(t *testing.T, response map[string]interface{}, key string) map[string]interface{} {
	t.Helper()
	value, ok := response[key].(map[string]interface{})
	require.True(t, ok, "response has no object %q: %v", key, response)
	return value
}

func guestBody(name string) map[string]interface{} {
	return map[string]interface{}{"guest_name": name}
}
