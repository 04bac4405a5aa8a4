package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/ikkim/wishlist-backend/internal/middleware"
	ws "github.com/ikkim/wishlist-backend/internal/websocket"
)

// LiveController serves the live change channel of a wishlist.
type LiveController struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
}

// NewLiveController accepts browser connections only from allowedOrigins.
// Requests without an Origin header (non-browser clients) are accepted.
func NewLiveController(hub *ws.Hub, allowedOrigins []string) *LiveController {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = true
	}

	return &LiveController{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed["*"] || allowed[origin]
			},
		},
	}
}

// Subscribe upgrades to a WebSocket that receives wishlist_updated events
// GET /ws/:slug
func (ctrl *LiveController) Subscribe(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	slug := c.Param("slug")

	conn, err := ctrl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn("Failed to upgrade to WebSocket", map[string]interface{}{
			"slug":  slug,
			"error": err.Error(),
		})
		return
	}

	ctrl.hub.Attach(conn, slug)

	log.Info("Live viewer connected", map[string]interface{}{
		"slug": slug,
	})
}
