package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hsinyuc/linecast/internal/domain/settings"
)

type settingsRequest struct {
	ChannelToken  string `json:"channel_token" binding:"required"`
	ChannelSecret string `json:"channel_secret"`
}

type SettingsHandler struct {
	repo settings.Repo
	log  *zap.Logger
}

func NewSettingsHandler(repo settings.Repo, log *zap.Logger) *SettingsHandler {
	return &SettingsHandler{repo: repo, log: log}
}

// Get reports connection state with the token masked; the raw credential
// never leaves the store once saved.
func (h *SettingsHandler) Get(c *gin.Context) {
	s, err := h.repo.Get(c.Request.Context())
	if err != nil {
		h.log.Error("get settings", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"configured":    s.Configured(),
		"channel_token": maskToken(s.ChannelToken),
		"updated_at":    s.UpdatedAt,
	})
}

func (h *SettingsHandler) Put(c *gin.Context) {
	var req settingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s := &settings.Settings{ChannelToken: req.ChannelToken, ChannelSecret: req.ChannelSecret}
	if err := h.repo.Put(c.Request.Context(), s); err != nil {
		h.log.Error("save settings", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"configured": true})
}

func maskToken(t string) string {
	if len(t) <= 4 {
		return strings.Repeat("*", len(t))
	}
	return strings.Repeat("*", len(t)-4) + t[len(t)-4:]
}
