package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/weiawesome/wes-io-live/chatroom-service/internal/domain"
	"github.com/weiawesome/wes-io-live/chatroom-service/internal/service"
	"github.com/weiawesome/wes-io-live/chatroom-service/pkg/log"
	"github.com/weiawesome/wes-io-live/chatroom-service/pkg/middleware"
	"github.com/weiawesome/wes-io-live/chatroom-service/pkg/response"
)

// Handler handles HTTP requests for the chat room.
type Handler struct {
	chatService service.ChatService
	limiter     *middleware.RateLimiter
}

// NewHandler creates a new HTTP handler. A nil limiter disables rate limiting.
func NewHandler(chatService service.ChatService, limiter *middleware.RateLimiter) *Handler {
	return &Handler{
		chatService: chatService,
		limiter:     limiter,
	}
}

// RegisterRoutes registers all routes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.POST("/participants", h.Register)
	r.GET("/participants", h.ListParticipants)

	user := r.Group("", middleware.RequireUser())
	{
		user.POST("/status", h.Heartbeat)
		user.GET("/messages", h.ListMessages)
		user.POST("/messages", h.limiter.Limit(), h.PostMessage)
		user.PUT("/messages/:id", h.EditMessage)
		user.DELETE("/messages/:id", h.DeleteMessage)
	}
}

// Register registers a participant.
func (h *Handler) Register(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req domain.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("failed to bind register request")
		response.UnprocessableEntity(c, "name is required")
		return
	}

	participant, err := h.chatService.Register(ctx, req.Name)
	if err != nil {
		h.fail(c, err, "failed to register participant")
		return
	}

	response.Created(c, participant)
}

// ListParticipants lists everyone in the room.
func (h *Handler) ListParticipants(c *gin.Context) {
	participants, err := h.chatService.ListParticipants(c.Request.Context())
	if err != nil {
		h.fail(c, err, "failed to list participants")
		return
	}

	response.Success(c, participants)
}

// Heartbeat refreshes the caller's presence.
func (h *Handler) Heartbeat(c *gin.Context) {
	participant, err := h.chatService.Heartbeat(c.Request.Context(), middleware.GetUsername(c))
	if err != nil {
		h.fail(c, err, "failed to refresh status")
		return
	}

	response.Success(c, participant)
}

// PostMessage stores a message from the caller.
func (h *Handler) PostMessage(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req domain.MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("failed to bind message request")
		response.UnprocessableEntity(c, "to, text and type are required")
		return
	}

	msg, err := h.chatService.PostMessage(ctx, middleware.GetUsername(c), &req)
	if err != nil {
		h.fail(c, err, "failed to post message")
		return
	}

	response.Created(c, msg)
}

// ListMessages returns the messages the caller may read.
func (h *Handler) ListMessages(c *gin.Context) {
	limit := 0
	if raw, ok := c.GetQuery("limit"); ok {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			response.UnprocessableEntity(c, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	messages, err := h.chatService.ListMessages(c.Request.Context(), middleware.GetUsername(c), limit)
	if err != nil {
		h.fail(c, err, "failed to list messages")
		return
	}

	response.Success(c, messages)
}

// EditMessage rewrites one of the caller's messages.
func (h *Handler) EditMessage(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req domain.MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("failed to bind message request")
		response.UnprocessableEntity(c, "to, text and type are required")
		return
	}

	msg, err := h.chatService.EditMessage(ctx, middleware.GetUsername(c), c.Param("id"), &req)
	if err != nil {
		h.fail(c, err, "failed to edit message")
		return
	}

	response.Success(c, msg)
}

// DeleteMessage removes one of the caller's messages.
func (h *Handler) DeleteMessage(c *gin.Context) {
	msg, err := h.chatService.DeleteMessage(c.Request.Context(), middleware.GetUsername(c), c.Param("id"))
	if err != nil {
		h.fail(c, err, "failed to delete message")
		return
	}

	response.Success(c, msg)
}

// fail maps service errors onto status codes. Store failures are logged
// and answered with a generic 500.
func (h *Handler) fail(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		response.UnprocessableEntity(c, err.Error())
	case errors.Is(err, service.ErrParticipantExists):
		response.Conflict(c, "name already taken")
	case errors.Is(err, service.ErrParticipantNotFound):
		response.NotFound(c, "participant not found")
	case errors.Is(err, service.ErrMessageNotFound):
		response.NotFound(c, "message not found")
	case errors.Is(err, service.ErrNotMessageOwner):
		response.Unauthorized(c, "you are not the author of this message")
	default:
		l := log.Ctx(c.Request.Context())
		l.Error().Err(err).Msg(message)
		response.InternalError(c, message)
	}
}
