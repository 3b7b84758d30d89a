// Package middleware provides authentication, logging, metrics and tracing middleware for the application.
package middleware

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"threadline/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	TokenIssuer   = "threadline-api"
	TokenAudience = "threadline-client"

	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrTokenType    = errors.New("wrong token type")
)

// Claims is the verified content of a token.
type Claims struct {
	UserID    uint
	Username  string
	Type      string
	JTI       string
	ExpiresAt time.Time
}

// RevocationChecker reports whether a token id has been revoked.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// ParseToken verifies signature, expiry, issuer and audience and extracts the claims.
func ParseToken(secret, raw string) (*Claims, error) {
	token, err := jwt.Parse(raw, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	},
		jwt.WithIssuer(TokenIssuer),
		jwt.WithAudience(TokenAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	sub, ok := mc["sub"].(string)
	if !ok {
		return nil, ErrInvalidToken
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || userID == 0 {
		return nil, ErrInvalidToken
	}

	claims := &Claims{UserID: uint(userID)}
	claims.Username, _ = mc["username"].(string)
	claims.Type, _ = mc["typ"].(string)
	claims.JTI, _ = mc["jti"].(string)
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}
	return claims, nil
}

// BearerToken extracts the token from "Authorization: Bearer <token>".
func BearerToken(c *fiber.Ctx) (string, bool) {
	parts := strings.Fields(c.Get(fiber.HeaderAuthorization))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// Authenticator resolves access tokens into the request's user id.
type Authenticator struct {
	secret  string
	revoked RevocationChecker
}

// NewAuthenticator creates an Authenticator. revoked may be nil.
func NewAuthenticator(secret string, revoked RevocationChecker) *Authenticator {
	return &Authenticator{secret: secret, revoked: revoked}
}

// Verify checks raw as an access token, including revocation.
func (a *Authenticator) Verify(ctx context.Context, raw string) (*Claims, error) {
	claims, err := ParseToken(a.secret, raw)
	if err != nil {
		return nil, err
	}
	if claims.Type != TokenTypeAccess {
		return nil, ErrTokenType
	}
	if a.revoked != nil && claims.JTI != "" {
		// Revocation lookups fail open when the store is unavailable.
		if revoked, err := a.revoked.IsRevoked(ctx, claims.JTI); err == nil && revoked {
			return nil, ErrInvalidToken
		}
	}
	return claims, nil
}

// Required enforces a valid access token. allowQuery also accepts ?token=,
// which browsers need for websocket upgrades.
func (a *Authenticator) Required(allowQuery bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw, ok := BearerToken(c)
		if !ok && allowQuery {
			raw = c.Query("token")
			ok = raw != ""
		}
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authentication credentials were not provided."))
		}

		claims, err := a.Verify(c.UserContext(), raw)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Given token not valid for any token type"))
		}

		setUser(c, claims.UserID)
		return c.Next()
	}
}

// Optional attaches the user when a valid access token is present and
// otherwise lets the request through as anonymous.
func (a *Authenticator) Optional() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if raw, ok := BearerToken(c); ok {
			if claims, err := a.Verify(c.UserContext(), raw); err == nil {
				setUser(c, claims.UserID)
			}
		}
		return c.Next()
	}
}

func setUser(c *fiber.Ctx, userID uint) {
	c.Locals("userID", userID)
	// Sync to UserContext for logging and downstream services
	ctx := context.WithValue(c.UserContext(), UserIDKey, userID)
	c.SetUserContext(ctx)
}
