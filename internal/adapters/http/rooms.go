package http

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/sketchparty/server/internal/domain"
	"github.com/sketchparty/server/internal/rooms"
)

type roomHandlers struct {
	svc *rooms.Service
}

type createRoomRequest struct {
	Name      string `json:"name" binding:"required"`
	IsPrivate bool   `json:"isPrivate"`
	Password  string `json:"password"`
}

func (h *roomHandlers) create(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name required"})
		return
	}
	host := domain.UserID(c.GetString("user_id"))
	room, err := h.svc.Create(c.Request.Context(), domain.RoomName(req.Name), host, req.IsPrivate, req.Password)
	switch {
	case errors.Is(err, domain.ErrRoomNameEmpty), errors.Is(err, domain.ErrRoomNameTooLong):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case err != nil:
		log.Error().Err(err).Str("module", "adapters.http").Msg("create room")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
	default:
		c.JSON(http.StatusCreated, gin.H{
			"roomId":    room.ID,
			"name":      room.Name,
			"isPrivate": room.Private,
		})
	}
}

type joinRoomRequest struct {
	RoomID   string `json:"roomId" binding:"required"`
	Password string `json:"password"`
}

func (h *roomHandlers) join(c *gin.Context) {
	var req joinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "roomId required"})
		return
	}
	room, err := h.svc.Authorize(c.Request.Context(), domain.RoomID(req.RoomID), req.Password)
	switch {
	case errors.Is(err, rooms.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
	case errors.Is(err, rooms.ErrPasswordRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": "password required"})
	case errors.Is(err, rooms.ErrInvalidPassword):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid password"})
	case err != nil:
		log.Error().Err(err).Str("module", "adapters.http").Msg("join room")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "join failed"})
	default:
		c.JSON(http.StatusOK, gin.H{"message": "access granted", "roomId": room.ID})
	}
}

func (h *roomHandlers) get(c *gin.Context) {
	room, err := h.svc.Get(c.Request.Context(), domain.RoomID(c.Param("roomId")))
	switch {
	case errors.Is(err, rooms.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
	case err != nil:
		log.Error().Err(err).Str("module", "adapters.http").Msg("get room")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
	default:
		c.JSON(http.StatusOK, room)
	}
}

func (h *roomHandlers) history(c *gin.Context) {
	user := domain.UserID(c.GetString("user_id"))
	list, err := h.svc.History(c.Request.Context(), user)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("room history")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "history failed"})
		return
	}
	if list == nil {
		list = []domain.Room{}
	}
	c.JSON(http.StatusOK, list)
}

type identityRequest struct {
	Username string `json:"username" binding:"required"`
}

// updateIdentity lets a guest pick a display name before joining.
func updateIdentity(c *gin.Context) {
	var req identityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username required"})
		return
	}
	if len(req.Username) > domain.MaxUsernameLen {
		c.JSON(http.StatusBadRequest, gin.H{"error": domain.ErrUsernameTooLong.Error()})
		return
	}
	sess := sessions.Default(c)
	sess.Set("username", req.Username)
	if err := sess.Save(); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("save identity session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.GetString("user_id"), "username": req.Username})
}
