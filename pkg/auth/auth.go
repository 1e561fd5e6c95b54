package auth

import (
	"context"

	"github.com/golang-jwt/jwt/v4"
	"github.com/pkg/errors"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type Config struct {
	// Mode selects token validation: "hs256" (shared secret) or "jwks"
	// (remote identity provider, auth0-style).
	Mode     string `yaml:"mode" envconfig:"AUTH_MODE" default:"hs256"`
	Secret   string `yaml:"secret" envconfig:"AUTH_SECRET"`
	Issuer   string `yaml:"issuer" envconfig:"AUTH_ISSUER"`
	Audience string `yaml:"audience" envconfig:"AUTH_AUDIENCE"`
}

// Identity is the authenticated caller as asserted by the identity provider.
type Identity struct {
	Subject string
	Email   string
	Name    string
	Role    string
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

func (c *Claims) Identity() Identity {
	role := c.Role
	if role == "" {
		role = RoleUser
	}
	return Identity{
		Subject: c.Subject,
		Email:   c.Email,
		Name:    c.Name,
		Role:    role,
	}
}

// ParseHS256 validates a shared-secret token and extracts the identity.
func ParseHS256(tokenStr, secret string) (Identity, error) {
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return Identity{}, errors.New("invalid token")
	}
	return claims.Identity(), nil
}

type identityKey struct{}

func SetAuthContext(ctx context.Context, ident Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, ident)
}

func FromContext(ctx context.Context) (Identity, error) {
	ident, ok := ctx.Value(identityKey{}).(Identity)
	if !ok {
		return Identity{}, errors.New("no identity in context")
	}
	return ident, nil
}
