package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/wishlist-backend/internal/app/model"
	"github.com/ikkim/wishlist-backend/internal/app/service"
	apperrors "github.com/ikkim/wishlist-backend/internal/errors"
	"github.com/ikkim/wishlist-backend/internal/middleware"
)

type ItemController struct {
	wishlistService service.WishlistService
}

func NewItemController(wishlistService service.WishlistService) *ItemController {
	return &ItemController{
		wishlistService: wishlistService,
	}
}

// UpdateItemRequest carries only the fields being changed.
type UpdateItemRequest struct {
	Title       *string      `json:"title"`
	URL         *string      `json:"url"`
	Price       *model.Money `json:"price"`
	ImageURL    *string      `json:"image_url"`
	IsGroupGift *bool        `json:"is_group_gift"`
}

func (r UpdateItemRequest) patch() model.ItemPatch {
	return model.ItemPatch{
		Title:       r.Title,
		URL:         r.URL,
		Price:       r.Price,
		ImageURL:    r.ImageURL,
		IsGroupGift: r.IsGroupGift,
	}
}

// UpdateItem edits an item on the owner's wishlist
// PUT /api/items/:id
func (ctrl *ItemController) UpdateItem(c *gin.Context) {
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

	var req UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid update item request", map[string]interface{}{
			"item_id": itemID,
			"error":   err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid request data")
		return
	}
	patch := req.patch()
	if patch.IsEmpty() {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "Nothing to update")
		return
	}

	item, err := ctrl.wishlistService.UpdateItem(c.Request.Context(), itemID, ownerID, patch)
	if err != nil {
		log.Warn("Update item failed", map[string]interface{}{
			"item_id": itemID,
			"error":   err.Error(),
		})
		apperrors.ParseAndRespond(c, err)
		return
	}

	log.Info("Item updated", map[string]interface{}{
		"item_id": itemID,
	})

	c.JSON(http.StatusOK, gin.H{
		"item": item,
	})
}

// DeleteItem removes an item even when it is reserved or partly funded.
// The response says how many reservations and contributions went with it.
// DELETE /api/items/:id
func (ctrl *ItemController) DeleteItem(c *gin.Context) {
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

	deletion, err := ctrl.wishlistService.DeleteItem(c.Request.Context(), itemID, ownerID)
	if err != nil {
		log.Warn("Delete item failed", map[string]interface{}{
			"item_id": itemID,
			"error":   err.Error(),
		})
		apperrors.ParseAndRespond(c, err)
		return
	}

	log.Info("Item deleted", map[string]interface{}{
		"item_id":               itemID,
		"removed_reservations":  deletion.RemovedReservations,
		"removed_contributions": deletion.RemovedContributions,
	})

	c.JSON(http.StatusOK, gin.H{
		"message":               "Item deleted",
		"item_id":               deletion.ItemID,
		"removed_reservations":  deletion.RemovedReservations,
		"removed_contributions": deletion.RemovedContributions,
	})
}
