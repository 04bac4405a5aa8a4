package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/ikkim/wishlist-backend/internal/app/model"
	"github.com/ikkim/wishlist-backend/internal/app/repository"
	"github.com/ikkim/wishlist-backend/pkg/logger"
	"gorm.io/gorm"
)

// ReservationService applies reserve and contribute requests to the ledger
// and announces every committed change to the item's wishlist.
type ReservationService interface {
	Reserve(ctx context.Context, itemID uuid.UUID, requester model.Requester) (*model.ItemView, error)
	Contribute(ctx context.Context, itemID uuid.UUID, requester model.Requester, amount model.Money) (*model.ItemView, error)
	ReleaseReservation(ctx context.Context, itemID, ownerID uuid.UUID) (*model.ItemView, error)
	ListContributions(itemID uuid.UUID) ([]model.ContributionInfo, error)
}

type reservationService struct {
	ledger   repository.LedgerRepository
	itemRepo repository.ItemRepository
	views    viewBuilder
	notifier ChangeNotifier
}

func NewReservationService(
	ledger repository.LedgerRepository,
	itemRepo repository.ItemRepository,
	userRepo repository.UserRepository,
	notifier ChangeNotifier,
) ReservationService {
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	return &reservationService{
		ledger:   ledger,
		itemRepo: itemRepo,
		views:    viewBuilder{userRepo: userRepo},
		notifier: notifier,
	}
}

func (s *reservationService) Reserve(ctx context.Context, itemID uuid.UUID, requester model.Requester) (*model.ItemView, error) {
	if requester == nil {
		logger.Warn("Reserve rejected: missing requester", map[string]interface{}{
			"item_id": itemID,
		})
		return nil, fmt.Errorf("%w: guest name is required", ErrInvalidRequest)
	}

	logger.Info("Reserving item", map[string]interface{}{
		"item_id":   itemID,
		"requester": requester.String(),
	})

	receipt, err := s.ledger.Reserve(ctx, itemID, requester)
	if err != nil {
		return nil, s.rejected(itemID, viewerOf(requester), err)
	}

	return s.committed(receipt, viewerOf(requester))
}

func (s *reservationService) Contribute(ctx context.Context, itemID uuid.UUID, requester model.Requester, amount model.Money) (*model.ItemView, error) {
	if requester == nil {
		logger.Warn("Contribution rejected: missing requester", map[string]interface{}{
			"item_id": itemID,
		})
		return nil, fmt.Errorf("%w: guest name is required", ErrInvalidRequest)
	}
	if amount.LessThan(model.MinContribution.Decimal) {
		logger.Warn("Contribution rejected: amount too low", map[string]interface{}{
			"item_id": itemID,
			"amount":  amount.String(),
		})
		return nil, ErrAmountTooLow
	}
	if err := amount.Check(); err != nil {
		logger.Warn("Contribution rejected: amount not storable", map[string]interface{}{
			"item_id": itemID,
			"amount":  amount.Decimal.String(),
		})
		return nil, fmt.Errorf("%w: amount: %v", ErrInvalidRequest, err)
	}

	logger.Info("Contributing to item", map[string]interface{}{
		"item_id":   itemID,
		"requester": requester.String(),
		"amount":    amount.String(),
	})

	receipt, err := s.ledger.Contribute(ctx, itemID, requester, amount)
	if err != nil {
		return nil, s.rejected(itemID, viewerOf(requester), err)
	}

	return s.committed(receipt, viewerOf(requester))
}

func (s *reservationService) ReleaseReservation(ctx context.Context, itemID, ownerID uuid.UUID) (*model.ItemView, error) {
	logger.Info("Releasing reservation", map[string]interface{}{
		"item_id":  itemID,
		"owner_id": ownerID,
	})

	receipt, err := s.ledger.ReleaseReservation(ctx, itemID, ownerID)
	if err != nil {
		return nil, translateLedgerError(err)
	}

	return s.committed(receipt, &ownerID)
}

func (s *reservationService) ListContributions(itemID uuid.UUID) ([]model.ContributionInfo, error) {
	item, err := s.itemRepo.FindByID(itemID)
	if err != nil {
		return nil, translateLedgerError(err)
	}
	if !item.IsGroupGift {
		return nil, ErrWrongItemKind
	}

	view := s.views.item(item, nil)
	return view.Contributions, nil
}

// committed publishes the change and returns the item as it now stands.
func (s *reservationService) committed(receipt *repository.LedgerReceipt, viewerID *uuid.UUID) (*model.ItemView, error) {
	s.notifier.NotifyWishlistChanged(receipt.WishlistSlug)

	item, err := s.itemRepo.FindByID(receipt.ItemID)
	if err != nil {
		logger.Error("Failed to reload item after commit", err, map[string]interface{}{
			"item_id": receipt.ItemID,
		})
		return nil, translateLedgerError(err)
	}

	view := s.views.item(item, viewerID)
	return &view, nil
}

// rejected attaches the current item to a lost race so the caller can show
// what beat them.
func (s *reservationService) rejected(itemID uuid.UUID, viewerID *uuid.UUID, err error) error {
	err = translateLedgerError(err)
	if !errors.Is(err, ErrAlreadyReserved) &&
		!errors.Is(err, ErrAmountExceedsRemaining) &&
		!errors.Is(err, ErrWrongItemKind) {
		return err
	}

	rejection := &RejectedError{Err: err}
	item, loadErr := s.itemRepo.FindByID(itemID)
	switch {
	case loadErr == nil:
		view := s.views.item(item, viewerID)
		rejection.Current = &view
	case errors.Is(loadErr, gorm.ErrRecordNotFound):
		return ErrItemNotFound
	default:
		logger.Warn("Could not load current item for rejected request", map[string]interface{}{
			"item_id": itemID,
			"error":   loadErr.Error(),
		})
	}
	return rejection
}
