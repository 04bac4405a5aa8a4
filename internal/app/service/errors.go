package service

import (
	"errors"
	"fmt"

	"github.com/ikkim/wishlist-backend/internal/app/model"
	"github.com/ikkim/wishlist-backend/internal/app/repository"
	"gorm.io/gorm"
)

// Ledger outcomes. The ledger kinds are shared with the repository so
// errors.Is works across layers.
var (
	ErrItemNotFound           = repository.ErrItemNotFound
	ErrWrongItemKind          = repository.ErrWrongItemKind
	ErrAlreadyReserved        = repository.ErrAlreadyReserved
	ErrAmountExceedsRemaining = repository.ErrAmountExceedsRemaining
	ErrReservationNotFound    = repository.ErrReservationNotFound
	ErrForbidden              = repository.ErrForbidden

	ErrWishlistNotFound = errors.New("wishlist not found")
	ErrInvalidRequest   = errors.New("invalid request")
	ErrAmountTooLow     = errors.New("amount is below the minimum contribution")
	ErrUnavailable      = errors.New("ledger store unavailable")
)

// RejectedError is a lost Reserve or Contribute attempt. Current is the
// item as committed right after the rejection, when it could be loaded.
type RejectedError struct {
	Err     error
	Current *model.ItemView
}

func (e *RejectedError) Error() string {
	return e.Err.Error()
}

func (e *RejectedError) Unwrap() error {
	return e.Err
}

// translateLedgerError keeps taxonomy errors and folds everything else into
// ErrUnavailable.
func translateLedgerError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrPriceBelowContributions):
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	case errors.Is(err, ErrItemNotFound),
		errors.Is(err, ErrWrongItemKind),
		errors.Is(err, ErrAlreadyReserved),
		errors.Is(err, ErrAmountExceedsRemaining),
		errors.Is(err, ErrReservationNotFound),
		errors.Is(err, ErrForbidden):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrItemNotFound
	default:
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
}
