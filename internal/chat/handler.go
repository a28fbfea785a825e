package chat

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chatline/internal/apperr"
	"chatline/internal/auth"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Register mounts the chat routes on an authenticated group.
func (h *Handler) Register(r *gin.RouterGroup) {
	r.POST("/one-to-one", h.CreateOneToOne)
	r.GET("/one-to-one/:friendId", h.FindOneToOne)
	r.POST("/group", h.CreateGroup)
	r.GET("/group/:groupId", h.GetGroup)
	r.GET("/recent-chats", h.RecentChats)
	r.DELETE("/:chatId/delete", h.Delete)
}

func (h *Handler) CreateOneToOne(ctx *gin.Context) {
	identity := auth.IdentityFrom(ctx)

	var req struct {
		ParticipantID string `json:"participantId"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondError(ctx, apperr.Validation("invalid request body"))
		return
	}

	c, err := h.service.CreateOneToOne(ctx.Request.Context(), identity.UserID, req.ParticipantID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"data": c})
}

func (h *Handler) FindOneToOne(ctx *gin.Context) {
	identity := auth.IdentityFrom(ctx)

	c, err := h.service.FindOneToOne(ctx.Request.Context(), identity.UserID, ctx.Param("friendId"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	if c == nil {
		respondError(ctx, apperr.NotFound("chat not found"))
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"data": c})
}

func (h *Handler) CreateGroup(ctx *gin.Context) {
	identity := auth.IdentityFrom(ctx)

	var req struct {
		Name         string   `json:"name"`
		Participants []string `json:"participants"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondError(ctx, apperr.Validation("invalid request body"))
		return
	}

	c, err := h.service.CreateGroup(ctx.Request.Context(), req.Name, req.Participants, identity.UserID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"data": c})
}

func (h *Handler) GetGroup(ctx *gin.Context) {
	c, err := h.service.GetGroup(ctx.Request.Context(), ctx.Param("groupId"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"data": c})
}

func (h *Handler) RecentChats(ctx *gin.Context) {
	identity := auth.IdentityFrom(ctx)

	chats, err := h.service.RecentChats(ctx.Request.Context(), identity.UserID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	if chats == nil {
		chats = []*RecentChat{}
	}
	ctx.JSON(http.StatusOK, gin.H{"data": chats})
}

// Delete removes a chat together with its messages and attachments.
func (h *Handler) Delete(ctx *gin.Context) {
	if err := h.service.Delete(ctx.Request.Context(), ctx.Param("chatId")); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "chat deleted"})
}

func respondError(ctx *gin.Context, err error) {
	ctx.JSON(apperr.StatusFor(err), gin.H{"error": apperr.MessageFor(err)})
}
