package router

import (
	"github.com/gin-gonic/gin"
	"github.com/ikkim/wishlist-backend/config"
	"github.com/ikkim/wishlist-backend/internal/app/controller"
	"github.com/ikkim/wishlist-backend/internal/middleware"
)

type Router struct {
	wishlistController    *controller.WishlistController
	itemController        *controller.ItemController
	reservationController *controller.ReservationController
	liveController        *controller.LiveController
	authMiddleware        *middleware.AuthMiddleware
	config                *config.Config
}

func NewRouter(
	wishlistController *controller.WishlistController,
	itemController *controller.ItemController,
	reservationController *controller.ReservationController,
	liveController *controller.LiveController,
	authMiddleware *middleware.AuthMiddleware,
	cfg *config.Config,
) *Router {
	return &Router{
		wishlistController:    wishlistController,
		itemController:        itemController,
		reservationController: reservationController,
		liveController:        liveController,
		authMiddleware:        authMiddleware,
		config:                cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"message": "Wishlist API is running",
		})
	})

	router.GET("/ws/:slug", r.liveController.Subscribe)

	api := router.Group("/api")
	{
		wishlists := api.Group("/wishlists")
		{
			wishlists.GET("", r.authMiddleware.Authenticate(), r.wishlistController.ListWishlists)
			wishlists.POST("", r.authMiddleware.Authenticate(), r.wishlistController.CreateWishlist)
			wishlists.GET("/:slug", r.authMiddleware.OptionalAuthenticate(), r.wishlistController.GetWishlist)
			wishlists.PUT("/:slug", r.authMiddleware.Authenticate(), r.wishlistController.UpdateWishlist)
			wishlists.DELETE("/:slug", r.authMiddleware.Authenticate(), r.wishlistController.DeleteWishlist)
			wishlists.GET("/:slug/items", r.authMiddleware.OptionalAuthenticate(), r.wishlistController.ListItems)
			wishlists.POST("/:slug/items", r.authMiddleware.Authenticate(), r.wishlistController.AddItem)
		}

		items := api.Group("/items")
		{
			items.POST("/:id/reserve", r.authMiddleware.OptionalAuthenticate(), r.reservationController.Reserve)
			items.DELETE("/:id/reservation", r.authMiddleware.Authenticate(), r.reservationController.ReleaseReservation)
			items.POST("/:id/contribute", r.authMiddleware.OptionalAuthenticate(), r.reservationController.Contribute)
			items.GET("/:id/contributions", r.reservationController.ListContributions)

			items.PUT("/:id", r.authMiddleware.Authenticate(), r.itemController.UpdateItem)
			items.DELETE("/:id", r.authMiddleware.Authenticate(), r.itemController.DeleteItem)
		}
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
