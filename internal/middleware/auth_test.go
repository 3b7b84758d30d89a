package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

type revokedSet map[string]bool

func (r revokedSet) IsRevoked(_ context.Context, jti string) (bool, error) {
	return r[jti], nil
}

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func tokenClaims(userID uint, typ, jti string, exp time.Duration) jwt.MapClaims {
	return jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(userID), 10),
		"typ": typ,
		"jti": jti,
		"iss": TokenIssuer,
		"aud": TokenAudience,
		"exp": time.Now().Add(exp).Unix(),
	}
}

func TestParseToken(t *testing.T) {
	raw := signToken(t, tokenClaims(42, TokenTypeAccess, "j1", time.Hour))
	claims, err := ParseToken(testSecret, raw)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, TokenTypeAccess, claims.Type)
	assert.Equal(t, "j1", claims.JTI)

	_, err = ParseToken("other-secret", raw)
	assert.ErrorIs(t, err, ErrInvalidToken)

	wrongIssuer := tokenClaims(42, TokenTypeAccess, "j2", time.Hour)
	wrongIssuer["iss"] = "someone-else"
	_, err = ParseToken(testSecret, signToken(t, wrongIssuer))
	assert.ErrorIs(t, err, ErrInvalidToken)

	noExp := tokenClaims(42, TokenTypeAccess, "j3", time.Hour)
	delete(noExp, "exp")
	_, err = ParseToken(testSecret, signToken(t, noExp))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthenticator_Required(t *testing.T) {
	app := fiber.New()
	auth := NewAuthenticator(testSecret, revokedSet{"revoked-jti": true})

	handler := func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"userID": c.Locals("userID")})
	}
	app.Get("/test", auth.Required(false), handler)
	app.Get("/ws", auth.Required(true), handler)

	tests := []struct {
		name           string
		path           string
		authHeader     string
		expectedStatus int
		expectedUserID uint
	}{
		{
			name:           "Happy Path",
			path:           "/test",
			authHeader:     "Bearer " + signToken(t, tokenClaims(123, TokenTypeAccess, "a", time.Hour)),
			expectedStatus: http.StatusOK,
			expectedUserID: 123,
		},
		{name: "Missing Header", path: "/test", expectedStatus: http.StatusUnauthorized},
		{name: "Invalid Format", path: "/test", authHeader: "Basic dXNlcjpwYXNz", expectedStatus: http.StatusUnauthorized},
		{name: "Malformed Token", path: "/test", authHeader: "Bearer malformed.token.here", expectedStatus: http.StatusUnauthorized},
		{
			name:           "Expired Token",
			path:           "/test",
			authHeader:     "Bearer " + signToken(t, tokenClaims(123, TokenTypeAccess, "b", -time.Hour)),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Refresh Token Rejected",
			path:           "/test",
			authHeader:     "Bearer " + signToken(t, tokenClaims(123, TokenTypeRefresh, "c", time.Hour)),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Revoked Token",
			path:           "/test",
			authHeader:     "Bearer " + signToken(t, tokenClaims(123, TokenTypeAccess, "revoked-jti", time.Hour)),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Query Token Ignored Without Opt In",
			path:           "/test?token=" + signToken(t, tokenClaims(5, TokenTypeAccess, "d", time.Hour)),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Query Token On Websocket Route",
			path:           "/ws?token=" + signToken(t, tokenClaims(5, TokenTypeAccess, "e", time.Hour)),
			expectedStatus: http.StatusOK,
			expectedUserID: 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedStatus == http.StatusOK {
				var body map[string]any
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Equal(t, float64(tt.expectedUserID), body["userID"])
			}
		})
	}
}

func TestAuthenticator_Optional(t *testing.T) {
	app := fiber.New()
	auth := NewAuthenticator(testSecret, nil)
	app.Get("/test", auth.Optional(), func(c *fiber.Ctx) error {
		uid, _ := c.Locals("userID").(uint)
		return c.JSON(fiber.Map{"userID": uid})
	})

	for _, header := range []string{"", "Bearer garbage"} {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		_ = resp.Body.Close()
	}

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, tokenClaims(9, TokenTypeAccess, "x", time.Hour)))
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, float64(9), body["userID"])
}
