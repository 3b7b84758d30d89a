package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"threadline/internal/config"
	"threadline/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

func signTestToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	str, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return str
}

func TestServer_AuthRequired(t *testing.T) {
	s := &Server{
		config: &config.Config{JWTSecret: testSecret},
	}
	s.wireServices()
	app := fiber.New()

	app.Get("/protected", s.auth.Required(true), func(c *fiber.Ctx) error {
		userID := c.Locals("userID")
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"userID": userID})
	})

	generateToken := func(userID uint, issuer, audience, typ string, exp time.Duration) string {
		return signTestToken(t, jwt.MapClaims{
			"sub": strconv.FormatUint(uint64(userID), 10),
			"iss": issuer,
			"aud": audience,
			"typ": typ,
			"exp": time.Now().Add(exp).Unix(),
			"jti": "test-jti-valid-length",
		})
	}
	valid := func(exp time.Duration) string {
		return generateToken(123, middleware.TokenIssuer, middleware.TokenAudience, middleware.TokenTypeAccess, exp)
	}

	tests := []struct {
		name           string
		authHeader     string
		tokenParam     string
		expectedStatus int
	}{
		{
			name:           "Valid Token",
			authHeader:     "Bearer " + valid(time.Hour),
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Valid Token via Query Param",
			tokenParam:     valid(time.Hour),
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Expired Token",
			authHeader:     "Bearer " + valid(-time.Hour),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Invalid Issuer",
			authHeader:     "Bearer " + generateToken(123, "wrong-issuer", middleware.TokenAudience, middleware.TokenTypeAccess, time.Hour),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Invalid Audience",
			authHeader:     "Bearer " + generateToken(123, middleware.TokenIssuer, "wrong-audience", middleware.TokenTypeAccess, time.Hour),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Refresh Token Rejected",
			authHeader:     "Bearer " + generateToken(123, middleware.TokenIssuer, middleware.TokenAudience, middleware.TokenTypeRefresh, time.Hour),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Missing Header and Param",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Malformed Bearer Format",
			authHeader:     "BearerTokenOnly",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "Invalid Subject Type",
			authHeader: "Bearer " + signTestToken(t, jwt.MapClaims{
				"sub": 123, "iss": middleware.TokenIssuer, "aud": middleware.TokenAudience,
				"typ": middleware.TokenTypeAccess, "exp": time.Now().Add(time.Hour).Unix(),
			}),
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := "/protected"
			if tt.tokenParam != "" {
				path += "?token=" + tt.tokenParam
			}
			req := httptest.NewRequest(http.MethodGet, path, nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			resp, err := app.Test(req)
			assert.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedStatus == http.StatusOK {
				var body map[string]interface{}
				_ = json.NewDecoder(resp.Body).Decode(&body)
				assert.Equal(t, float64(123), body["userID"])
			}
			_ = resp.Body.Close()
		})
	}
}

func TestServer_AuthRejectsRevokedToken(t *testing.T) {
	s := &Server{config: &config.Config{JWTSecret: testSecret}}
	s.wireServices()
	app := fiber.New()
	app.Get("/protected", s.auth.Required(false), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	token := signTestToken(t, jwt.MapClaims{
		"sub": "5", "iss": middleware.TokenIssuer, "aud": middleware.TokenAudience,
		"typ": middleware.TokenTypeAccess, "jti": "revoked-jti",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	require.NoError(t, s.blacklist.Revoke(context.Background(), "revoked-jti", time.Hour))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServer_OptionalAuthAllowsAnonymous(t *testing.T) {
	s := &Server{config: &config.Config{JWTSecret: testSecret}}
	s.wireServices()
	app := fiber.New()
	app.Get("/maybe", s.auth.Optional(), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"viewer": actor(c).ViewerID()})
	})

	req := httptest.NewRequest(http.MethodGet, "/maybe", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]float64
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, float64(0), body["viewer"])
}
