package controller

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ikkim/wishlist-backend/internal/app/model"
	"github.com/ikkim/wishlist-backend/internal/app/service"
	apperrors "github.com/ikkim/wishlist-backend/internal/errors"
	"github.com/ikkim/wishlist-backend/internal/middleware"
	"github.com/ikkim/wishlist-backend/pkg/logger"
)

type ReservationController struct {
	reservationService service.ReservationService
}

func NewReservationController(reservationService service.ReservationService) *ReservationController {
	return &ReservationController{
		reservationService: reservationService,
	}
}

type ReserveRequest struct {
	GuestName *string `json:"guest_name"`
}

type ContributeRequest struct {
	GuestName *string      `json:"guest_name"`
	Amount    *model.Money `json:"amount"`
}

// Reserve reserves a regular item for the caller
// POST /api/items/:id/reserve
func (ctrl *ReservationController) Reserve(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	itemID, ok := itemIDParam(c, log)
	if !ok {
		return
	}

	var req ReserveRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		log.Warn("Invalid reserve request", map[string]interface{}{
			"item_id": itemID,
			"error":   err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid request data")
		return
	}

	requester, ok := requesterFromRequest(c, req.GuestName)
	if !ok {
		log.Warn("Reserve without login or guest name", map[string]interface{}{
			"item_id": itemID,
		})
		apperrors.BadRequest(c, apperrors.ValidationRequired, "Enter your name to reserve as a guest")
		return
	}

	view, err := ctrl.reservationService.Reserve(c.Request.Context(), itemID, requester)
	if err != nil {
		log.Warn("Reserve failed", map[string]interface{}{
			"item_id": itemID,
			"error":   err.Error(),
		})
		apperrors.ParseAndRespond(c, err)
		return
	}

	log.Info("Item reserved", map[string]interface{}{
		"item_id":   itemID,
		"requester": requester.String(),
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "Item reserved",
		"item":    view,
	})
}

// Contribute adds an amount toward a group gift
// POST /api/items/:id/contribute
func (ctrl *ReservationController) Contribute(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	itemID, ok := itemIDParam(c, log)
	if !ok {
		return
	}

	var req ContributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid contribute request", map[string]interface{}{
			"item_id": itemID,
			"error":   err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid request data")
		return
	}
	if req.Amount == nil {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "Amount is required")
		return
	}

	requester, ok := requesterFromRequest(c, req.GuestName)
	if !ok {
		log.Warn("Contribution without login or guest name", map[string]interface{}{
			"item_id": itemID,
		})
		apperrors.BadRequest(c, apperrors.ValidationRequired, "Enter your name to contribute as a guest")
		return
	}

	view, err := ctrl.reservationService.Contribute(c.Request.Context(), itemID, requester, *req.Amount)
	if err != nil {
		log.Warn("Contribution failed", map[string]interface{}{
			"item_id": itemID,
			"amount":  req.Amount.Decimal.String(),
			"error":   err.Error(),
		})
		apperrors.ParseAndRespond(c, err)
		return
	}

	log.Info("Contribution recorded", map[string]interface{}{
		"item_id":   itemID,
		"requester": requester.String(),
		"amount":    req.Amount.String(),
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "Contribution recorded",
		"item":    view,
	})
}

// ReleaseReservation clears a reservation on the owner's item
// DELETE /api/items/:id/reservation
func (ctrl *ReservationController) ReleaseReservation(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	ownerID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	itemID, ok := itemIDParam(c, log)
	if !ok {
		return
	}

	view, err := ctrl.reservationService.ReleaseReservation(c.Request.Context(), itemID, ownerID)
	if err != nil {
		log.Warn("Release reservation failed", map[string]interface{}{
			"item_id": itemID,
			"user_id": ownerID,
			"error":   err.Error(),
		})
		apperrors.ParseAndRespond(c, err)
		return
	}

	log.Info("Reservation released", map[string]interface{}{
		"item_id": itemID,
		"user_id": ownerID,
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "Reservation released",
		"item":    view,
	})
}

// ListContributions returns a group gift's contributors in order
// GET /api/items/:id/contributions
func (ctrl *ReservationController) ListContributions(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	itemID, ok := itemIDParam(c, log)
	if !ok {
		return
	}

	contributions, err := ctrl.reservationService.ListContributions(itemID)
	if err != nil {
		apperrors.ParseAndRespond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"contributions": contributions,
		"count":         len(contributions),
	})
}

func itemIDParam(c *gin.Context, log *logger.Logger) (uuid.UUID, bool) {
	raw := c.Param("id")
	id, err := uuid.Parse(raw)
	if err != nil {
		log.Warn("Invalid item ID format", map[string]interface{}{
			"item_id": raw,
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid item ID")
		return uuid.Nil, false
	}
	return id, true
}

// requesterFromRequest prefers the authenticated user; the guest name only
// counts for anonymous callers.
func requesterFromRequest(c *gin.Context, guestName *string) (model.Requester, bool) {
	if userID, ok := middleware.GetUserID(c); ok {
		return model.AuthenticatedRequester{UserID: userID}, true
	}
	if guestName == nil {
		return nil, false
	}
	guest, ok := model.NewGuestRequester(*guestName)
	if !ok {
		return nil, false
	}
	return guest, true
}
