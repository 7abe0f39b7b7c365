package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mediashelf/mediashelf/internal/chat"
	"github.com/mediashelf/mediashelf/pkg/logger"
	"github.com/mediashelf/mediashelf/pkg/middleware"
	"github.com/mediashelf/mediashelf/pkg/reply"
)

type ChatHandler struct {
	room *chat.Room
}

func NewChatHandler(room *chat.Room) *ChatHandler {
	return &ChatHandler{room: room}
}

// Register routes under /chat
func (h *ChatHandler) Register(rg gin.IRouter) {
	g := rg.Group("/chat", middleware.RequireIdentity())
	g.GET("/stream", h.Stream)
	g.POST("/messages", h.Send)
}

// Stream joins the room for as long as the client keeps the connection open.
func (h *ChatHandler) Stream(c *gin.Context) {
	caller := middleware.IdentityFrom(c)
	sub, err := h.room.Join(caller)
	if err != nil {
		reply.Fail(c, http.StatusServiceUnavailable, err.Error(), gin.H{})
		return
	}
	defer h.room.Leave(sub)
	logger.Debugf("chat: %s joined %s", caller.ID, h.room.Name())

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.Events:
			if !ok {
				return
			}
			c.SSEvent(ev.Type, ev.Data)
			c.Writer.Flush()
		}
	}
}

type chatMessage struct {
	Text string `json:"text"`
}

func (h *ChatHandler) Send(c *gin.Context) {
	var req chatMessage
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		reply.Fail(c, http.StatusBadRequest, "message text is required", gin.H{})
		return
	}
	caller := middleware.IdentityFrom(c)
	switch err := h.room.Send(caller.ID, req.Text); {
	case errors.Is(err, chat.ErrNotInRoom):
		reply.Fail(c, http.StatusConflict, err.Error(), gin.H{})
	case err != nil:
		reply.Fail(c, http.StatusServiceUnavailable, err.Error(), gin.H{})
	default:
		reply.OK(c, http.StatusAccepted, "", gin.H{})
	}
}
