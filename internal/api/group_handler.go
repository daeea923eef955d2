package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hsinyuc/linecast/internal/domain/group"
	pg "github.com/hsinyuc/linecast/internal/repository/postgres"
)

type groupRequest struct {
	Name      string `json:"name" binding:"required"`
	ChannelID string `json:"channel_id" binding:"required"`
}

type GroupHandler struct {
	repo group.Repo
	log  *zap.Logger
}

func NewGroupHandler(repo group.Repo, log *zap.Logger) *GroupHandler {
	return &GroupHandler{repo: repo, log: log}
}

func (h *GroupHandler) List(c *gin.Context) {
	out, err := h.repo.List(c.Request.Context())
	if err != nil {
		h.log.Error("list groups", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if out == nil {
		out = []*group.Group{}
	}
	c.JSON(http.StatusOK, out)
}

func (h *GroupHandler) Create(c *gin.Context) {
	var req groupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	g := &group.Group{ID: uuid.New(), Name: req.Name, ChannelID: req.ChannelID}
	if err := h.repo.Create(c.Request.Context(), g); err != nil {
		if errors.Is(err, pg.ErrConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": "channel_id already registered"})
			return
		}
		h.log.Error("create group", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusCreated, g)
}

func (h *GroupHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	g, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pg.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "group not found"})
			return
		}
		h.log.Error("get group", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, g)
}

func (h *GroupHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req groupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	g := &group.Group{ID: id, Name: req.Name, ChannelID: req.ChannelID}
	if err := h.repo.Update(c.Request.Context(), g); err != nil {
		if errors.Is(err, pg.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "group not found"})
			return
		}
		if errors.Is(err, pg.ErrConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": "channel_id already registered"})
			return
		}
		h.log.Error("update group", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, g)
}

func (h *GroupHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, pg.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "group not found"})
			return
		}
		h.log.Error("delete group", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.Status(http.StatusNoContent)
}
