package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"themtwo/backend/internal/relation"
	apperrors "themtwo/backend/pkg/errors"
)

// CreatePersonRequest is the body of POST /api/people.
type CreatePersonRequest struct {
	Name      string   `json:"name" validate:"required,max=200"`
	PositionX *float64 `json:"position_x" validate:"required"`
	PositionY *float64 `json:"position_y" validate:"required"`
}

// UpdatePositionRequest is the body of PUT /api/people/:id/position.
type UpdatePositionRequest struct {
	PositionX *float64 `json:"position_x" validate:"required"`
	PositionY *float64 `json:"position_y" validate:"required"`
}

// RenameRequest is the body of PUT /api/people/:id/name.
type RenameRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

// CreateConnectionRequest is the body of POST /api/connections. The type
// defaults to kissed.
type CreateConnectionRequest struct {
	PersonA string        `json:"person_a_id" validate:"required"`
	PersonB string        `json:"person_b_id" validate:"required,nefield=PersonA"`
	Type    relation.Type `json:"connection_type" validate:"omitempty,oneof=kissed fucked talked dated"`
}

// UpdateTypeRequest is the body of PUT /api/connections/:id/type.
type UpdateTypeRequest struct {
	Type relation.Type `json:"connection_type" validate:"required,oneof=kissed fucked talked dated"`
}

// IDResponse is returned by create endpoints.
type IDResponse struct {
	ID string `json:"id"`
}

// bind decodes the JSON body into req and validates it.
func bind(c *gin.Context, req interface{}) error {
	if err := c.ShouldBindJSON(req); err != nil {
		return apperrors.NewValidationFailed("body", err.Error())
	}
	return validateRequest(req)
}

func (h *Handler) GetSnapshot(c *gin.Context) {
	snap, err := h.store.Snapshot(c.Request.Context())
	if err != nil {
		h.respondError(c, "read snapshot", err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// Live upgrades to a websocket that receives every snapshot.
func (h *Handler) Live(c *gin.Context) {
	if h.hub == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "live updates are disabled"})
		return
	}
	h.hub.ServeWS(c.Writer, c.Request)
}

// People

func (h *Handler) ListPeople(c *gin.Context) {
	people, err := h.store.ListPeople(c.Request.Context())
	if err != nil {
		h.respondError(c, "list people", err)
		return
	}
	c.JSON(http.StatusOK, people)
}

func (h *Handler) GetPerson(c *gin.Context) {
	person, err := h.store.GetPerson(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, "get person", err)
		return
	}
	c.JSON(http.StatusOK, person)
}

func (h *Handler) ConnectionsForPerson(c *gin.Context) {
	connections, err := h.store.ConnectionsForPerson(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, "list connections", err)
		return
	}
	c.JSON(http.StatusOK, connections)
}

func (h *Handler) CreatePerson(c *gin.Context) {
	var req CreatePersonRequest
	if err := bind(c, &req); err != nil {
		h.respondError(c, "create person", err)
		return
	}

	id, err := h.store.CreatePerson(c.Request.Context(), req.Name, *req.PositionX, *req.PositionY)
	if err != nil {
		h.respondError(c, "create person", err)
		return
	}

	h.logger.Info("Person created", zap.String("person_id", id))
	c.JSON(http.StatusCreated, IDResponse{ID: id})
}

func (h *Handler) UpdatePersonPosition(c *gin.Context) {
	var req UpdatePositionRequest
	if err := bind(c, &req); err != nil {
		h.respondError(c, "update position", err)
		return
	}

	if err := h.store.UpdatePersonPosition(c.Request.Context(), c.Param("id"), *req.PositionX, *req.PositionY); err != nil {
		h.respondError(c, "update position", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

func (h *Handler) RenamePerson(c *gin.Context) {
	var req RenameRequest
	if err := bind(c, &req); err != nil {
		h.respondError(c, "rename person", err)
		return
	}

	if err := h.store.RenamePerson(c.Request.Context(), c.Param("id"), req.Name); err != nil {
		h.respondError(c, "rename person", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

func (h *Handler) DeletePerson(c *gin.Context) {
	id := c.Param("id")
	if err := h.store.DeletePerson(c.Request.Context(), id); err != nil {
		h.respondError(c, "delete person", err)
		return
	}

	h.logger.Info("Person deleted", zap.String("person_id", id))
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// Connections

func (h *Handler) ListConnections(c *gin.Context) {
	connections, err := h.store.ListConnections(c.Request.Context())
	if err != nil {
		h.respondError(c, "list connections", err)
		return
	}
	c.JSON(http.StatusOK, connections)
}

func (h *Handler) CreateConnection(c *gin.Context) {
	var req CreateConnectionRequest
	if err := bind(c, &req); err != nil {
		h.respondError(c, "create connection", err)
		return
	}
	if req.Type == "" {
		req.Type = relation.Default
	}

	id, err := h.store.CreateConnection(c.Request.Context(), req.PersonA, req.PersonB, req.Type)
	if err != nil {
		h.respondError(c, "create connection", err)
		return
	}

	h.logger.Info("Connection created",
		zap.String("connection_id", id),
		zap.String("person_a", req.PersonA),
		zap.String("person_b", req.PersonB),
	)
	c.JSON(http.StatusCreated, IDResponse{ID: id})
}

func (h *Handler) UpdateConnectionType(c *gin.Context) {
	var req UpdateTypeRequest
	if err := bind(c, &req); err != nil {
		h.respondError(c, "update connection type", err)
		return
	}

	if err := h.store.UpdateConnectionType(c.Request.Context(), c.Param("id"), req.Type); err != nil {
		h.respondError(c, "update connection type", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

func (h *Handler) DeleteConnection(c *gin.Context) {
	if err := h.store.DeleteConnection(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, "delete connection", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
