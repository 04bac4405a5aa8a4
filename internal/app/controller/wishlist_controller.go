package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/wishlist-backend/internal/app/model"
	"github.com/ikkim/wishlist-backend/internal/app/service"
	apperrors "github.com/ikkim/wishlist-backend/internal/errors"
	"github.com/ikkim/wishlist-backend/internal/middleware"
)

type WishlistController struct {
	wishlistService service.WishlistService
}

func NewWishlistController(wishlistService service.WishlistService) *WishlistController {
	return &WishlistController{
		wishlistService: wishlistService,
	}
}

type WishlistRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

type CreateItemRequest struct {
	Title       string      `json:"title" binding:"required"`
	URL         string      `json:"url"`
	Price       model.Money `json:"price"`
	ImageURL    string      `json:"image_url"`
	IsGroupGift bool        `json:"is_group_gift"`
}

// ListWishlists returns the caller's own wishlists
// GET /api/wishlists
func (ctrl *WishlistController) ListWishlists(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	wishlists, err := ctrl.wishlistService.ListOwnWishlists(userID)
	if err != nil {
		log.Error("Failed to list wishlists", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.ParseAndRespond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"wishlists": wishlists,
		"count":     len(wishlists),
	})
}

// CreateWishlist creates a wishlist owned by the caller
// POST /api/wishlists
func (ctrl *WishlistController) CreateWishlist(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	var req WishlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid create wishlist request", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid request data")
		return
	}

	wishlist, err := ctrl.wishlistService.CreateWishlist(userID, service.WishlistInput{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		apperrors.ParseAndRespond(c, err)
		return
	}

	log.Info("Wishlist created", map[string]interface{}{
		"user_id": userID,
		"slug":    wishlist.Slug,
	})

	c.JSON(http.StatusCreated, gin.H{
		"wishlist": wishlist,
	})
}

// GetWishlist returns the owner view to the owner and the public view to
// everyone else
// GET /api/wishlists/:slug
func (ctrl *WishlistController) GetWishlist(c *gin.Context) {
	slug := c.Param("slug")

	wishlist, err := ctrl.wishlistService.GetWishlist(slug, middleware.GetViewerID(c))
	if err != nil {
		apperrors.ParseAndRespond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"wishlist": wishlist,
	})
}

// ListItems returns only the wishlist's items, in the same owner or public
// shape as GetWishlist
// GET /api/wishlists/:slug/items
func (ctrl *WishlistController) ListItems(c *gin.Context) {
	wishlist, err := ctrl.wishlistService.GetWishlist(c.Param("slug"), middleware.GetViewerID(c))
	if err != nil {
		apperrors.ParseAndRespond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items": wishlist.Items,
		"count": len(wishlist.Items),
	})
}

// UpdateWishlist changes title and description
// PUT /api/wishlists/:slug
func (ctrl *WishlistController) UpdateWishlist(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}
	slug := c.Param("slug")

	var req WishlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid update wishlist request", map[string]interface{}{
			"slug":  slug,
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid request data")
		return
	}

	wishlist, err := ctrl.wishlistService.UpdateWishlist(slug, userID, service.WishlistInput{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		apperrors.ParseAndRespond(c, err)
		return
	}

	log.Info("Wishlist updated", map[string]interface{}{
		"slug": slug,
	})

	c.JSON(http.StatusOK, gin.H{
		"wishlist": wishlist,
	})
}

// DeleteWishlist deletes the wishlist with all of its items
// DELETE /api/wishlists/:slug
func (ctrl *WishlistController) DeleteWishlist(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}
	slug := c.Param("slug")

	if err := ctrl.wishlistService.DeleteWishlist(slug, userID); err != nil {
		apperrors.ParseAndRespond(c, err)
		return
	}

	log.Info("Wishlist deleted", map[string]interface{}{
		"slug":    slug,
		"user_id": userID,
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "Wishlist deleted",
	})
}

// AddItem adds an item to the owner's wishlist
// POST /api/wishlists/:slug/items
func (ctrl *WishlistController) AddItem(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}
	slug := c.Param("slug")

	var req CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid create item request", map[string]interface{}{
			"slug":  slug,
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid request data")
		return
	}

	item, err := ctrl.wishlistService.AddItem(slug, userID, service.ItemInput{
		Title:       req.Title,
		URL:         req.URL,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
		IsGroupGift: req.IsGroupGift,
	})
	if err != nil {
		apperrors.ParseAndRespond(c, err)
		return
	}

	log.Info("Item added", map[string]interface{}{
		"slug":          slug,
		"item_id":       item.ID,
		"is_group_gift": item.IsGroupGift,
	})

	c.JSON(http.StatusCreated, gin.H{
		"item": item,
	})
}
