package message

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"chatline/internal/apperr"
	"chatline/internal/auth"
	"chatline/internal/storage"
)

// Handler exposes the message lifecycle over HTTP.
type Handler struct {
	service Service
	store   storage.Store
}

// NewHandler creates a new message handler.
func NewHandler(service Service, store storage.Store) *Handler {
	return &Handler{service: service, store: store}
}

// Register mounts the message routes on an authenticated group.
func (h *Handler) Register(r *gin.RouterGroup) {
	r.GET("/:chatId/messages", h.History)
	r.POST("/send", h.Send)
	r.PUT("/edit/:messageId", h.Edit)
	r.DELETE("/delete/:messageId", h.Delete)
	r.PUT("/read", h.Read)
	r.GET("/unreadCounts", h.UnreadCounts)
}

// Send accepts multipart form data: text and/or a file. The upload must
// succeed before anything is persisted; a store failure aborts the send.
func (h *Handler) Send(ctx *gin.Context) {
	identity := auth.IdentityFrom(ctx)
	chatID := ctx.PostForm("chatId")
	text := ctx.PostForm("text")

	var att *Attachment
	if file, err := ctx.FormFile("file"); err == nil && file != nil {
		src, err := file.Open()
		if err != nil {
			respondError(ctx, apperr.Validation("cannot read uploaded file"))
			return
		}
		defer src.Close()

		contentType := file.Header.Get("Content-Type")
		object, err := h.store.Upload(ctx.Request.Context(), file.Filename, contentType, src)
		if err != nil {
			respondError(ctx, apperr.Dependency("file upload failed", err))
			return
		}
		att = &Attachment{URL: object.URL, Key: object.Key, MimeType: contentType}
	}

	msg, err := h.service.Send(ctx.Request.Context(), identity.UserID, chatID, text, att)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"data": msg, "message": "message sent"})
}

func (h *Handler) History(ctx *gin.Context) {
	page, _ := strconv.ParseInt(ctx.DefaultQuery("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(ctx.DefaultQuery("limit", "15"), 10, 64)

	result, err := h.service.History(ctx.Request.Context(), ctx.Param("chatId"), page, limit)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"data": result})
}

func (h *Handler) Edit(ctx *gin.Context) {
	identity := auth.IdentityFrom(ctx)

	var req struct {
		Text string `json:"text"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondError(ctx, apperr.Validation("invalid request body"))
		return
	}

	msg, err := h.service.Edit(ctx.Request.Context(), identity.UserID, ctx.Param("messageId"), req.Text)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"data": msg, "message": "message edited"})
}

func (h *Handler) Delete(ctx *gin.Context) {
	identity := auth.IdentityFrom(ctx)

	if err := h.service.Delete(ctx.Request.Context(), identity.UserID, ctx.Param("messageId")); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "message permanently deleted"})
}

// Read marks the counterpart's messages in a chat as read.
func (h *Handler) Read(ctx *gin.Context) {
	identity := auth.IdentityFrom(ctx)

	var req struct {
		ChatID     string `json:"chatId"`
		ReceiverID string `json:"receiverId"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondError(ctx, apperr.Validation("invalid request body"))
		return
	}

	affected, err := h.service.MarkRead(ctx.Request.Context(), identity.UserID, req.ChatID, req.ReceiverID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"data": gin.H{"updatedCount": affected}})
}

func (h *Handler) UnreadCounts(ctx *gin.Context) {
	identity := auth.IdentityFrom(ctx)

	summary, err := h.service.UnreadSummary(ctx.Request.Context(), identity.UserID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	if summary == nil {
		summary = []*UnreadChat{}
	}
	ctx.JSON(http.StatusOK, gin.H{"data": summary})
}

func respondError(ctx *gin.Context, err error) {
	ctx.JSON(apperr.StatusFor(err), gin.H{"error": apperr.MessageFor(err)})
}
