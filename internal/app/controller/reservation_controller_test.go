package controller

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReservationController_Reserve_GuestThenLoser(t *testing.T) {
	f := setupControllerTest(t)
	item := f.item(t, "1000", false)
	path := "/api/items/" + item.ID.String() + "/reserve"

	status, response := f.do(t, http.MethodPost, path, "", guestBody("Alice"))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Alice", object(t, response, "item")["reserved_by"])

	status, response = f.do(t, http.MethodPost, path, "", guestBody("Bob"))
	require.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "ITEM_ALREADY_RESERVED", response["error"])
	assert.Equal(t, "Alice", object(t, response, "item")["reserved_by"], "loser sees the current holder")

	assert.Equal(t, 1, f.notifier.count(), "only the committed reservation is announced")
}

func TestReservationController_Reserve_AuthenticatedIgnoresGuestName(t *testing.T) {
	f := setupControllerTest(t)
	item := f.item(t, "1000", false)
	_, token := f.user(t, "Carol")

	status, response := f.do(t, http.MethodPost, "/api/items/"+item.ID.String()+"/reserve", token, guestBody("Someone else"))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Carol", object(t, response, "item")["reserved_by"])
}

func TestReservationController_Reserve_EmptyBodyAuthenticated(t *testing.T) {
	f := setupControllerTest(t)
	item := f.item(t, "1000", false)
	_, token := f.user(t, "Dana")

	status, _ := f.do(t, http.MethodPost, "/api/items/"+item.ID.String()+"/reserve", token, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestReservationController_Reserve_Errors(t *testing.T) {
	f := setupControllerTest(t)
	regular := f.item(t, "1000", false)
	group := f.item(t, "1000", true)

	tests := []struct {
		name       string
		path       string
		body       interface{}
		wantStatus int
		wantCode   string
	}{
		{"invalid id", "/api/items/not-a-uuid/reserve", guestBody("Alice"), http.StatusBadRequest, "VALIDATION_INVALID_ID"},
		{"unknown item", "/api/items/00000000-0000-0000-0000-000000000001/reserve", guestBody("Alice"), http.StatusNotFound, "ITEM_NOT_FOUND"},
		{"anonymous without name", "/api/items/" + regular.ID.String() + "/reserve", nil, http.StatusBadRequest, "VALIDATION_REQUIRED"},
		{"blank guest name", "/api/items/" + regular.ID.String() + "/reserve", guestBody("   "), http.StatusBadRequest, "VALIDATION_REQUIRED"},
		{"group gift", "/api/items/" + group.ID.String() + "/reserve", guestBody("Alice"), http.StatusBadRequest, "ITEM_WRONG_KIND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, response := f.do(t, http.MethodPost, tt.path, "", tt.body)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, response["error"])
		})
	}
	assert.Zero(t, f.notifier.count())
}

func TestReservationController_Contribute(t *testing.T) {
	f := setupControllerTest(t)
	item := f.item(t, "1000", true)
	path := "/api/items/" + item.ID.String() + "/contribute"

	status, response := f.do(t, http.MethodPost, path, "", map[string]interface{}{"guest_name": "Alice", "amount": "600"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "400.00", object(t, response, "item")["remaining"])

	status, response = f.do(t, http.MethodPost, path, "", map[string]interface{}{"guest_name": "Bob", "amount": 500})
	require.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "CONTRIBUTION_EXCEEDS_REMAINING", response["error"])
	assert.Contains(t, response["message"], "400.00")
	assert.Equal(t, "400.00", object(t, response, "item")["remaining"])

	status, response = f.do(t, http.MethodPost, path, "", map[string]interface{}{"guest_name": "Bob", "amount": 400})
	require.Equal(t, http.StatusOK, status)
	itemView := object(t, response, "item")
	assert.Equal(t, "0.00", itemView["remaining"])
	assert.Equal(t, true, itemView["is_fully_funded"])

	assert.Equal(t, 2, f.notifier.count())
}

func TestReservationController_Contribute_Errors(t *testing.T) {
	f := setupControllerTest(t)
	regular := f.item(t, "1000", false)
	group := f.item(t, "1000", true)
	groupPath := "/api/items/" + group.ID.String() + "/contribute"

	tests := []struct {
		name       string
		path       string
		body       interface{}
		wantStatus int
		wantCode   string
	}{
		{"missing amount", groupPath, guestBody("Alice"), http.StatusBadRequest, "VALIDATION_REQUIRED"},
		{"amount below minimum", groupPath, map[string]interface{}{"guest_name": "Alice", "amount": 0.5}, http.StatusBadRequest, "CONTRIBUTION_AMOUNT_TOO_LOW"},
		{"unparseable amount", groupPath, map[string]interface{}{"guest_name": "Alice", "amount": "ten"}, http.StatusBadRequest, "VALIDATION_INVALID_INPUT"},
		{"anonymous without name", groupPath, map[string]interface{}{"amount": 10}, http.StatusBadRequest, "VALIDATION_REQUIRED"},
		{"regular item", "/api/items/" + regular.ID.String() + "/contribute", map[string]interface{}{"guest_name": "Alice", "amount": 10}, http.StatusBadRequest, "ITEM_WRONG_KIND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, response := f.do(t, http.MethodPost, tt.path, "", tt.body)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, response["error"])
		})
	}
}

func TestReservationController_Contribute_SubCentAmountsNeverRounded(t *testing.T) {
	f := setupControllerTest(t)
	item := f.item(t, "1000", true)
	path := "/api/items/" + item.ID.String() + "/contribute"

	status, response := f.do(t, http.MethodPost, path, "", map[string]interface{}{"guest_name": "Ann", "amount": 0.995})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "CONTRIBUTION_AMOUNT_TOO_LOW", response["error"])

	status, _ = f.do(t, http.MethodPost, path, "", map[string]interface{}{"guest_name": "Ann", "amount": "600"})
	require.Equal(t, http.StatusOK, status)

	status, response = f.do(t, http.MethodPost, path, "", map[string]interface{}{"guest_name": "Ben", "amount": "400.004"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_INVALID_INPUT", response["error"])

	status, response = f.do(t, http.MethodPost, path, "", map[string]interface{}{"guest_name": "Ben", "amount": "400.000"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "1000.00", object(t, response, "item")["total_contributions"])

	status, response = f.do(t, http.MethodGet, "/api/items/"+item.ID.String()+"/contributions", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 2, response["count"])
	assert.Equal(t, 2, f.notifier.count(), "rejected amounts are never announced")
}

func TestReservationController_ReleaseReservation(t *testing.T) {
	f := setupControllerTest(t)
	item := f.item(t, "1000", false)
	_, strangerToken := f.user(t, "Eve")
	itemPath := "/api/items/" + item.ID.String()

	status, _ := f.do(t, http.MethodPost, itemPath+"/reserve", "", guestBody("Alice"))
	require.Equal(t, http.StatusOK, status)

	status, response := f.do(t, http.MethodDelete, itemPath+"/reservation", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, response = f.do(t, http.MethodDelete, itemPath+"/reservation", strangerToken, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "AUTHZ_OWNER_ONLY", response["error"])

	status, response = f.do(t, http.MethodDelete, itemPath+"/reservation", f.ownerToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, object(t, response, "item")["is_reserved"])

	status, response = f.do(t, http.MethodDelete, itemPath+"/reservation", f.ownerToken, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "ITEM_NOT_RESERVED", response["error"])

	status, _ = f.do(t, http.MethodPost, itemPath+"/reserve", "", guestBody("Bob"))
	assert.Equal(t, http.StatusOK, status, "released item can be reserved again")
}

func TestReservationController_ListContributions(t *testing.T) {
	f := setupControllerTest(t)
	group := f.item(t, "1000", true)
	regular := f.item(t, "1000", false)
	path := "/api/items/" + group.ID.String()

	for _, body := range []map[string]interface{}{
		{"guest_name": "Alice", "amount": "100"},
		{"guest_name": "Bob", "amount": "250.50"},
	} {
		status, _ := f.do(t, http.MethodPost, path+"/contribute", "", body)
		require.Equal(t, http.StatusOK, status)
	}

	status, response := f.do(t, http.MethodGet, path+"/contributions", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(2), response["count"])

	lines, ok := response["contributions"].([]interface{})
	require.True(t, ok)
	first := lines[0].(map[string]interface{})
	second := lines[1].(map[string]interface{})
	assert.Equal(t, "Alice", first["name"])
	assert.Equal(t, "100.00", first["amount"])
	assert.Equal(t, "Bob", second["name"])
	assert.Equal(t, "250.50", second["amount"])

	status, response = f.do(t, http.MethodGet, "/api/items/"+regular.ID.String()+"/contributions", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "ITEM_WRONG_KIND", response["error"])
}
