// Package auth resolves the caller's identity from the signed session
// cookie minted by the authentication provider bridge. Resolution is pure
// over the request: no identity is a normal outcome, never an error.
package auth

import (
	"context"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/pinmov/atlas-server/internal/models"
)

type contextKey struct{}

// Guard verifies session cookies and resolves identities.
type Guard struct {
	cookieName string
	secret     []byte
}

// NewGuard creates a guard for the given session cookie and HMAC secret.
func NewGuard(cookieName, secret string) *Guard {
	return &Guard{cookieName: cookieName, secret: []byte(secret)}
}

// ResolveIdentity inspects the request's session cookie and returns the
// resolved identity. The boolean is false when the cookie is absent,
// expired or fails verification; none of those are errors.
func (g *Guard) ResolveIdentity(r *http.Request) (models.Identity, bool) {
	cookie, err := r.Cookie(g.cookieName)
	if err != nil || cookie.Value == "" {
		return models.Identity{}, false
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(cookie.Value, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return g.secret, nil
	})
	if err != nil || !token.Valid {
		return models.Identity{}, false
	}

	sub, _ := claims["sub"].(string)
	id, err := uuid.Parse(sub)
	if err != nil {
		return models.Identity{}, false
	}

	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)

	return models.Identity{ID: id, Email: email, Name: name}, true
}

// IssueSession signs a session token for the given identity. Used by the
// provider bridge after a successful OAuth exchange, and by tests.
func (g *Guard) IssueSession(identity models.Identity) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   identity.ID.String(),
		"email": identity.Email,
		"name":  identity.Name,
	})
	return token.SignedString(g.secret)
}

// WithIdentity returns a context carrying the resolved identity.
func WithIdentity(ctx context.Context, identity models.Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, identity)
}

// FromContext returns the identity stored by the middleware, if any.
func FromContext(ctx context.Context) (models.Identity, bool) {
	identity, ok := ctx.Value(contextKey{}).(models.Identity)
	return identity, ok
}
