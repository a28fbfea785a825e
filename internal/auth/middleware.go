package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"chatline/internal/apperr"
)

const identityKey = "identity"

// TokenFromRequest extracts the access token from the accessToken cookie or
// the Authorization header.
func TokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie("accessToken"); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
}

// Middleware rejects requests without a valid access token and attaches the
// caller's identity to the gin context.
func Middleware(verifier *Verifier) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		claims, err := verifier.Decode(TokenFromRequest(ctx.Request))
		if err != nil {
			ctx.AbortWithStatusJSON(apperr.StatusFor(err), gin.H{"error": apperr.MessageFor(err)})
			return
		}

		ctx.Set(identityKey, &Identity{
			UserID:   claims.UserID,
			Email:    claims.Email,
			FullName: claims.FullName,
		})
		ctx.Next()
	}
}

// IdentityFrom returns the identity attached by Middleware.
func IdentityFrom(ctx *gin.Context) *Identity {
	if v, ok := ctx.Get(identityKey); ok {
		if id, ok := v.(*Identity); ok {
			return id
		}
	}
	return &Identity{}
}
