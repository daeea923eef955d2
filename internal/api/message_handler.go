package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hsinyuc/linecast/internal/domain/message"
	pg "github.com/hsinyuc/linecast/internal/repository/postgres"
)

type messageRequest struct {
	Title       string      `json:"title" binding:"required"`
	Body        string      `json:"body" binding:"required"`
	GroupIDs    []uuid.UUID `json:"group_ids" binding:"required,min=1"`
	Currency    string      `json:"currency" binding:"omitempty,oneof=TWD USD AUD"`
	Amount      string      `json:"amount" binding:"omitempty,numeric"`
	Kind        string      `json:"kind" binding:"required,oneof=single periodic"`
	Period      string      `json:"period" binding:"omitempty,oneof=daily weekly monthly yearly"`
	Active      *bool       `json:"active"`
	ScheduledAt string      `json:"scheduled_at" binding:"required"`
}

type MessageHandler struct {
	repo message.Repo
	loc  *time.Location
	log  *zap.Logger
}

func NewMessageHandler(repo message.Repo, loc *time.Location, log *zap.Logger) *MessageHandler {
	return &MessageHandler{repo: repo, loc: loc, log: log}
}

func (h *MessageHandler) List(c *gin.Context) {
	out, err := h.repo.List(c.Request.Context())
	if err != nil {
		h.log.Error("list messages", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if out == nil {
		out = []*message.Message{}
	}
	c.JSON(http.StatusOK, out)
}

func (h *MessageHandler) Create(c *gin.Context) {
	m, ok := h.bind(c)
	if !ok {
		return
	}
	m.ID = uuid.New()
	m.Status = message.StatusScheduled

	if err := h.repo.Create(c.Request.Context(), m); err != nil {
		h.log.Error("create message", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusCreated, m)
}

func (h *MessageHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	m, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pg.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
			return
		}
		h.log.Error("get message", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, m)
}

// Update replaces the editable fields and puts the message back to scheduled:
// editing a failed or partial message is how the operator re-arms it.
// last_sent is preserved so an already satisfied period does not refire.
func (h *MessageHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	m, ok := h.bind(c)
	if !ok {
		return
	}
	m.ID = id
	m.Status = message.StatusScheduled

	if err := h.repo.Update(c.Request.Context(), m); err != nil {
		if errors.Is(err, pg.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
			return
		}
		h.log.Error("update message", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *MessageHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, pg.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
			return
		}
		h.log.Error("delete message", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *MessageHandler) bind(c *gin.Context) (*message.Message, bool) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}

	kind := message.Kind(req.Kind)
	if kind == message.KindPeriodic && req.Period == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "periodic message requires a period"})
		return nil, false
	}
	if (req.Currency == "") != (req.Amount == "") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "currency and amount must be set together"})
		return nil, false
	}

	at, err := h.parseTime(req.ScheduledAt)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "scheduled_at must be RFC3339 or '2006-01-02 15:04'"})
		return nil, false
	}

	active := kind == message.KindPeriodic
	if req.Active != nil {
		active = *req.Active && kind == message.KindPeriodic
	}

	return &message.Message{
		Title:       req.Title,
		Body:        req.Body,
		GroupIDs:    req.GroupIDs,
		Currency:    message.Currency(req.Currency),
		Amount:      req.Amount,
		Kind:        kind,
		Period:      message.Period(req.Period),
		Active:      active,
		ScheduledAt: &at,
	}, true
}

func (h *MessageHandler) parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02 15:04", s, h.loc)
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return uuid.Nil, false
	}
	return id, true
}
