package user

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"chatline/internal/apperr"
	"chatline/internal/auth"
)

type Handler struct {
	repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

// Register mounts the user routes on an authenticated group.
func (h *Handler) Register(r *gin.RouterGroup) {
	r.GET("/search", h.Search)
	r.GET("/me", h.Me)
}

// Search matches users by full name or email, excluding the caller.
func (h *Handler) Search(ctx *gin.Context) {
	identity := auth.IdentityFrom(ctx)

	query := strings.TrimSpace(ctx.Query("query"))
	if query == "" {
		respondError(ctx, apperr.Validation("search query is required"))
		return
	}
	limit, _ := strconv.ParseInt(ctx.DefaultQuery("limit", "10"), 10, 64)
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	users, err := h.repo.Search(ctx.Request.Context(), query, identity.UserID, limit)
	if err != nil {
		respondError(ctx, err)
		return
	}
	if users == nil {
		users = []*User{}
	}
	ctx.JSON(http.StatusOK, gin.H{"data": users})
}

// Me returns the profile of the authenticated user.
func (h *Handler) Me(ctx *gin.Context) {
	identity := auth.IdentityFrom(ctx)

	u, err := h.repo.FindByID(ctx.Request.Context(), identity.UserID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"data": u})
}

func respondError(ctx *gin.Context, err error) {
	ctx.JSON(apperr.StatusFor(err), gin.H{"error": apperr.MessageFor(err)})
}
