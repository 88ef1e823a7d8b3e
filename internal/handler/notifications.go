package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"coursehub/internal/middleware"
	"coursehub/internal/model"
	"coursehub/internal/notify"
	"coursehub/internal/store"
)

type NotificationHandler struct {
	Dispatcher *notify.Dispatcher
	Logger     *zap.Logger
}

type emitNotificationBody struct {
	Title     string `json:"title" binding:"required"`
	Message   string `json:"message" binding:"required"`
	Target    string `json:"target" binding:"required,oneof=platform user"`
	UserID    string `json:"userId"`
	RelatedID string `json:"relatedId"`
}

func (h *NotificationHandler) List(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authentication token"})
		return
	}

	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid offset"})
		return
	}
	limit, err := queryInt(c, "limit", store.DefaultLimit)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
		return
	}

	page, err := h.Dispatcher.List(c.Request.Context(), userID, offset, limit)
	if err != nil {
		h.logger().Error("list notifications", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load notifications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"notifications": page.Items,
		"total":         page.Total,
		"offset":        page.Offset,
		"limit":         page.Limit,
	})
}

func (h *NotificationHandler) Emit(c *gin.Context) {
	var body emitNotificationBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	target := model.PlatformTarget()
	if body.Target == string(model.TargetUser) {
		target = model.UserTarget(body.UserID)
	}

	n, err := h.Dispatcher.Emit(c.Request.Context(), body.Title, body.Message, target, body.RelatedID)
	var dbErr *store.DatabaseError
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, gin.H{"notification": n})
	case errors.Is(err, notify.ErrInvalidNotification):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &dbErr):
		h.logger().Error("emit notification", zap.String("op", dbErr.Op), zap.Error(dbErr.Err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store notification"})
	default:
		h.logger().Error("emit notification", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store notification"})
	}
}

func (h *NotificationHandler) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}

func queryInt(c *gin.Context, key string, fallback int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, errors.New("invalid " + key)
	}
	return v, nil
}
