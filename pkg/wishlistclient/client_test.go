package wishlistclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/ikkim/wishlist-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_GetWishlist(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/wishlists/wishlist-abc", r.URL.Path)
		assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))
		io.WriteString(w, `{"wishlist":{"slug":"wishlist-abc","title":"Birthday","is_owner":false,
			"items":[{"title":"Bike","price":"250.00","is_group_gift":true,"remaining":"100.00",
			"contributions":[{"name":"Alice","amount":"150.00"}]}]}}`)
	}))
	defer server.Close()

	client := New(server.URL+"/", WithToken("token-1"))
	view, err := client.GetWishlist(context.Background(), "wishlist-abc")
	require.NoError(t, err)

	assert.Equal(t, "Birthday", view.Title)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "250.00", view.Items[0].Price.String())
	require.NotNil(t, view.Items[0].Remaining)
	assert.Equal(t, "100.00", view.Items[0].Remaining.String())
	assert.Equal(t, "Alice", view.Items[0].Contributions[0].Name)
}

func TestClient_ContributeSendsAmountAndGuestName(t *testing.T) {
	itemID := uuid.New()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/items/"+itemID.String()+"/contribute", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Alice", body["guest_name"])
		assert.Equal(t, "12.50", body["amount"])

		io.WriteString(w, `{"message":"Contribution recorded","item":{"remaining":"87.50"}}`)
	}))
	defer server.Close()

	view, err := New(server.URL).Contribute(context.Background(), itemID, "Alice", model.MustParseMoney("12.5"))
	require.NoError(t, err)
	assert.Equal(t, "87.50", view.Remaining.String())
}

func TestClient_RejectionCarriesCurrentItem(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		io.WriteString(w, `{"error":"ITEM_ALREADY_RESERVED","message":"Someone else has already reserved this item","item":{"reserved_by":"Bob"}}`)
	}))
	defer server.Close()

	_, err := New(server.URL).Reserve(context.Background(), uuid.New(), "Alice")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "ITEM_ALREADY_RESERVED", apiErr.Code)
	require.NotNil(t, apiErr.Item)
	assert.Equal(t, "Bob", *apiErr.Item.ReservedBy)
}

func TestClient_NonJSONError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := New(server.URL).GetWishlist(context.Background(), "wishlist-abc")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Empty(t, apiErr.Code)
}

func TestClient_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()

	_, err := New(server.URL).GetWishlist(context.Background(), "wishlist-abc")
	require.Error(t, err)

	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}
