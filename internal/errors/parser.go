package errors

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/wishlist-backend/internal/app/service"
	"gorm.io/gorm"
)

// ErrorInfo is the HTTP rendering of an error.
type ErrorInfo struct {
	Status  int
	Code    string
	Message string
}

// ParseError maps service errors onto status, code and a message the user
// can act on. Unknown errors become a generic 500 without internal detail.
func ParseError(err error) ErrorInfo {
	switch {
	case err == nil:
		return ErrorInfo{http.StatusInternalServerError, InternalServerError, "Something went wrong"}
	case errors.Is(err, service.ErrItemNotFound):
		return ErrorInfo{http.StatusNotFound, ItemNotFound, "This item no longer exists"}
	case errors.Is(err, service.ErrWishlistNotFound):
		return ErrorInfo{http.StatusNotFound, WishlistNotFound, "This wishlist no longer exists"}
	case errors.Is(err, service.ErrReservationNotFound):
		return ErrorInfo{http.StatusNotFound, ItemNotReserved, "This item is not reserved"}
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrorInfo{http.StatusNotFound, ItemNotFound, "Not found"}
	case errors.Is(err, service.ErrWrongItemKind):
		return ErrorInfo{http.StatusBadRequest, ItemWrongKind, "This action does not apply to this kind of item"}
	case errors.Is(err, service.ErrAmountTooLow):
		return ErrorInfo{http.StatusBadRequest, ContributionAmountTooLow, "The minimum contribution is 1"}
	case errors.Is(err, service.ErrInvalidRequest):
		return ErrorInfo{http.StatusBadRequest, ValidationInvalidInput, err.Error()}
	case errors.Is(err, service.ErrAlreadyReserved):
		return ErrorInfo{http.StatusConflict, ItemAlreadyReserved, "Someone else has already reserved this item"}
	case errors.Is(err, service.ErrAmountExceedsRemaining):
		return ErrorInfo{http.StatusConflict, ContributionExceedsRemaining, err.Error()}
	case errors.Is(err, service.ErrForbidden):
		return ErrorInfo{http.StatusForbidden, AuthzOwnerOnly, "Only the wishlist owner can do this"}
	case errors.Is(err, service.ErrUnavailable):
		return ErrorInfo{http.StatusServiceUnavailable, InternalUnavailable, "The wishlist is temporarily unavailable. Please try again"}
	default:
		return ErrorInfo{http.StatusInternalServerError, InternalServerError, "Something went wrong. Please try again later"}
	}
}

// ParseAndRespond writes the response for err. A rejected reserve or
// contribute attempt also carries the current item.
func ParseAndRespond(c *gin.Context, err error) {
	info := ParseError(err)

	var rejected *service.RejectedError
	if errors.As(err, &rejected) && rejected.Current != nil {
		RespondWithItem(c, info.Status, info.Code, info.Message, rejected.Current)
		return
	}
	RespondWithError(c, info.Status, info.Code, info.Message)
}
