package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/ikkim/wishlist-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReservationService_ConcurrentReserveOneWinner(t *testing.T) {
	f := setupServiceTest(t)
	itemID := f.item(t, "1000", false)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners []string
		losers  []*RejectedError
	)
	for _, name := range []string{"Alice", "Bob"} {
		name := name
		wg.Add(1)
		go func() {
			defer wg.Done()
			view, err := f.reservations.Reserve(context.Background(), itemID, guestNamed(name))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				winners = append(winners, *view.ReservedBy)
				return
			}
			var rejected *RejectedError
			if assert.ErrorAs(t, err, &rejected) {
				losers = append(losers, rejected)
			}
		}()
	}
	wg.Wait()

	require.Len(t, winners, 1)
	require.Len(t, losers, 1)
	assert.ErrorIs(t, losers[0], ErrAlreadyReserved)
	require.NotNil(t, losers[0].Current)
	assert.Equal(t, winners[0], *losers[0].Current.ReservedBy, "loser sees who holds the item")
	assert.Equal(t, []string{"wishlist-test"}, f.notifier.published())
}

func TestReservationService_ReserveValidation(t *testing.T) {
	f := setupServiceTest(t)
	ctx := context.Background()
	regular := f.item(t, "100", false)
	group := f.item(t, "100", true)

	tests := []struct {
		name      string
		itemID    uuid.UUID
		requester model.Requester
		wantErr   error
	}{
		{"Missing guest name", regular, nil, ErrInvalidRequest},
		{"Group gift", group, guestNamed("Alice"), ErrWrongItemKind},
		{"Unknown item", uuid.New(), guestNamed("Alice"), ErrItemNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.reservations.Reserve(ctx, tt.itemID, tt.requester)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Empty(t, f.notifier.published(), "failed attempts never publish")
}

func TestReservationService_AuthenticatedHolderName(t *testing.T) {
	f := setupServiceTest(t)
	itemID := f.item(t, "100", false)

	friend := &model.User{Email: "friend@example.com", Name: "Frieda"}
	require.NoError(t, f.db.Create(friend).Error)

	view, err := f.reservations.Reserve(context.Background(), itemID, model.AuthenticatedRequester{UserID: friend.ID})
	require.NoError(t, err)
	require.NotNil(t, view.ReservedBy)
	assert.Equal(t, "Frieda", *view.ReservedBy)

	stranger := uuid.New()
	other := f.item(t, "100", false)
	view, err = f.reservations.Reserve(context.Background(), other, model.AuthenticatedRequester{UserID: stranger})
	require.NoError(t, err)
	assert.Equal(t, model.ShortUserLabel(stranger), *view.ReservedBy)
}

func TestReservationService_ContributionScenarios(t *testing.T) {
	f := setupServiceTest(t)
	ctx := context.Background()
	itemID := f.item(t, "1000", true)

	view, err := f.reservations.Contribute(ctx, itemID, guestNamed("Alice"), model.MustParseMoney("600"))
	require.NoError(t, err)
	assert.Equal(t, "600.00", view.TotalContributions.String())
	assert.Equal(t, "400.00", view.Remaining.String())

	_, err = f.reservations.Contribute(ctx, itemID, guestNamed("Bob"), model.MustParseMoney("500"))
	require.ErrorIs(t, err, ErrAmountExceedsRemaining)
	var rejected *RejectedError
	require.True(t, errors.As(err, &rejected))
	assert.Equal(t, "400.00", rejected.Current.Remaining.String())

	view, err = f.reservations.Contribute(ctx, itemID, guestNamed("Bob"), model.MustParseMoney("400"))
	require.NoError(t, err)
	assert.Equal(t, "1000.00", view.TotalContributions.String())
	assert.True(t, *view.IsFullyFunded)
	assert.Equal(t, []string{"Alice:600.00", "Bob:400.00"}, contributionLines(view.Contributions))

	_, err = f.reservations.Contribute(ctx, itemID, guestNamed("Carol"), model.MustParseMoney("1"))
	assert.ErrorIs(t, err, ErrAmountExceedsRemaining)

	assert.Len(t, f.notifier.published(), 2)
}

func TestReservationService_ContributeValidation(t *testing.T) {
	f := setupServiceTest(t)
	ctx := context.Background()
	group := f.item(t, "1000", true)
	regular := f.item(t, "1000", false)

	tests := []struct {
		name      string
		itemID    uuid.UUID
		requester model.Requester
		amount    string
		wantErr   error
	}{
		{"Below minimum", group, guestNamed("Alice"), "0.50", ErrAmountTooLow},
		{"Negative", group, guestNamed("Alice"), "-5", ErrAmountTooLow},
		{"Just under minimum", group, guestNamed("Alice"), "0.995", ErrAmountTooLow},
		{"Sub-cent digits", group, guestNamed("Alice"), "10.001", ErrInvalidRequest},
		{"Beyond column range", group, guestNamed("Alice"), "100000000", ErrInvalidRequest},
		{"Missing guest", group, nil, "10", ErrInvalidRequest},
		{"Regular item", regular, guestNamed("Alice"), "10", ErrWrongItemKind},
		{"Unknown item", uuid.New(), guestNamed("Alice"), "10", ErrItemNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.reservations.Contribute(ctx, tt.itemID, tt.requester, model.MustParseMoney(tt.amount))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Empty(t, f.notifier.published())
}

func TestReservationService_ReleaseReservation(t *testing.T) {
	f := setupServiceTest(t)
	ctx := context.Background()
	itemID := f.item(t, "100", false)

	_, err := f.reservations.Reserve(ctx, itemID, guestNamed("Alice"))
	require.NoError(t, err)

	_, err = f.reservations.ReleaseReservation(ctx, itemID, uuid.New())
	assert.ErrorIs(t, err, ErrForbidden)

	wishlist, err := f.wishlists.GetWishlist("wishlist-test", nil)
	require.NoError(t, err)
	require.NotNil(t, wishlist.Items[0].ReservedBy, "reservation untouched after forbidden release")

	view, err := f.reservations.ReleaseReservation(ctx, itemID, f.owner.ID)
	require.NoError(t, err)
	require.NotNil(t, view.IsReserved)
	assert.False(t, *view.IsReserved)

	_, err = f.reservations.ReleaseReservation(ctx, itemID, f.owner.ID)
	assert.ErrorIs(t, err, ErrReservationNotFound)

	assert.Len(t, f.notifier.published(), 2)
}

func TestReservationService_ListContributions(t *testing.T) {
	f := setupServiceTest(t)
	ctx := context.Background()
	group := f.item(t, "100", true)
	regular := f.item(t, "100", false)

	_, err := f.reservations.Contribute(ctx, group, guestNamed("  Alice  "), model.MustParseMoney("25"))
	require.NoError(t, err)

	contributions, err := f.reservations.ListContributions(group)
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice:25.00"}, contributionLines(contributions))

	_, err = f.reservations.ListContributions(regular)
	assert.ErrorIs(t, err, ErrWrongItemKind)
}

func TestTranslateLedgerError(t *testing.T) {
	assert.ErrorIs(t, translateLedgerError(errors.New("connection reset")), ErrUnavailable)
	assert.ErrorIs(t, translateLedgerError(context.DeadlineExceeded), ErrUnavailable)
	assert.ErrorIs(t, translateLedgerError(ErrForbidden), ErrForbidden)
	assert.NoError(t, translateLedgerError(nil))
}
