package auth

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"chatline/internal/apperr"
	"chatline/internal/user/entity"
)

// Identity is a verified user attached to a request or connection.
type Identity struct {
	UserID   string
	Email    string
	FullName string
}

// Claims is the access-token payload.
type Claims struct {
	UserID   string `json:"_id"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	jwt.RegisteredClaims
}

// UserResolver looks up the account behind a token subject.
type UserResolver interface {
	FindByID(ctx context.Context, id string) (*entity.User, error)
}

// Verifier validates access tokens. Decode checks only the token itself;
// Verify additionally resolves the user, which is what connection admission
// requires.
type Verifier struct {
	secret []byte
	users  UserResolver
}

func NewVerifier(secret string, users UserResolver) *Verifier {
	return &Verifier{secret: []byte(secret), users: users}
}

// Decode parses and validates the token signature and expiry.
func (v *Verifier) Decode(token string) (*Claims, error) {
	if token == "" {
		return nil, apperr.Authentication("unauthorized request")
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, apperr.Authentication("invalid or expired access token")
	}
	if claims.UserID == "" {
		return nil, apperr.Authentication("invalid access token")
	}
	return claims, nil
}

// Verify decodes the token and resolves the account, rejecting tokens whose
// user no longer exists.
func (v *Verifier) Verify(ctx context.Context, token string) (*Identity, error) {
	claims, err := v.Decode(token)
	if err != nil {
		return nil, err
	}

	u, err := v.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, apperr.Authentication("invalid user")
	}

	return &Identity{UserID: u.ID, Email: u.Email, FullName: u.FullName}, nil
}
