// Package api exposes the board store over HTTP and streams snapshots over a
// websocket.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"themtwo/backend/internal/graph"
	"themtwo/backend/internal/live"
)

// Handler serves the board API.
type Handler struct {
	store  graph.Store
	hub    *live.Hub
	logger *zap.Logger
}

// NewHandler creates a handler. Writes should go through a live.Publisher so
// subscribers see them; hub may be nil to disable /api/live.
func NewHandler(store graph.Store, hub *live.Hub, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, hub: hub, logger: logger}
}

// NewRouter wires every route with request logging, recovery and CORS.
func NewRouter(h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(ginLogger(h.logger))
	router.Use(gin.Recovery())
	router.Use(cors())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		api.GET("/snapshot", h.GetSnapshot)
		api.GET("/live", h.Live)

		people := api.Group("/people")
		people.GET("", h.ListPeople)
		people.POST("", h.CreatePerson)
		people.GET("/:id", h.GetPerson)
		people.GET("/:id/connections", h.ConnectionsForPerson)
		people.PUT("/:id/position", h.UpdatePersonPosition)
		people.PUT("/:id/name", h.RenamePerson)
		people.DELETE("/:id", h.DeletePerson)

		connections := api.Group("/connections")
		connections.GET("", h.ListConnections)
		connections.POST("", h.CreateConnection)
		connections.PUT("/:id/type", h.UpdateConnectionType)
		connections.DELETE("/:id", h.DeleteConnection)
	}

	return router
}
