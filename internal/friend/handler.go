package friend

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

// Register mounts the friend routes on an authenticated group.
func (h *Handler) Register(r *gin.RouterGroup) {
	r.POST("/send", h.Send)
	r.POST("/accept", h.Accept)
	r.POST("/reject", h.Reject)
	r.POST("/unfollow", h.Unfollow)
	r.GET("/pending", h.Pending)
	r.GET("/sentRequest", h.Sent)
	r.GET("/allActiveFriends", h.ActiveFriends)
}

func (h *Handler) Send(ctx *gin.Context) {
	identity := auth.IdentityFrom(ctx)

	var req struct {
		ReceiverID string `json:"receiverId"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondError(ctx, apperr.Validation("invalid request body"))
		return
	}

	request, err := h.service.SendRequest(ctx.Request.Context(), identity.UserID, req.ReceiverID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"data": request, "message": "friend request sent"})
}

func (h *Handler) Accept(ctx *gin.Context) {
	identity := auth.IdentityFrom(ctx)

	var req struct {
		RequestID string `json:"requestId"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondError(ctx, apperr.Validation("invalid request body"))
		return
	}

	request, err := h.service.Accept(ctx.Request.Context(), identity.UserID, req.RequestID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"data": request, "message": "friend request accepted"})
}

func (h *Handler) Reject(ctx *gin.Context) {
	identity := auth.IdentityFrom(ctx)

	var req struct {
		RequestID string `json:"requestId"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondError(ctx, apperr.Validation("invalid request body"))
		return
	}

	if err := h.service.Reject(ctx.Request.Context(), identity.UserID, req.RequestID); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "friend request rejected"})
}

func (h *Handler) Unfollow(ctx *gin.Context) {
	identity := auth.IdentityFrom(ctx)

	var req struct {
		FriendID string `json:"friendId"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondError(ctx, apperr.Validation("invalid request body"))
		return
	}

	if err := h.service.Unfollow(ctx.Request.Context(), identity.UserID, req.FriendID); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "unfollowed"})
}

func (h *Handler) Pending(ctx *gin.Context) {
	identity := auth.IdentityFrom(ctx)

	friends, err := h.service.PendingForMe(ctx.Request.Context(), identity.UserID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	if friends == nil {
		friends = []*Friend{}
	}
	ctx.JSON(http.StatusOK, gin.H{"data": friends})
}

func (h *Handler) Sent(ctx *gin.Context) {
	identity := auth.IdentityFrom(ctx)

	friends, err := h.service.SentByMe(ctx.Request.Context(), identity.UserID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	if friends == nil {
		friends = []*Friend{}
	}
	ctx.JSON(http.StatusOK, gin.H{"data": friends})
}

func (h *Handler) ActiveFriends(ctx *gin.Context) {
	identity := auth.IdentityFrom(ctx)

	friends, err := h.service.ActiveFriends(ctx.Request.Context(), identity.UserID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	if friends == nil {
		friends = []*Friend{}
	}
	ctx.JSON(http.StatusOK, gin.H{"data": friends})
}

func respondError(ctx *gin.Context, err error) {
	ctx.JSON(apperr.StatusFor(err), gin.H{"error": apperr.MessageFor(err)})
}
