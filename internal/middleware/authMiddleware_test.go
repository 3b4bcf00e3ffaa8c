package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sol1corejz/loyaltydesk/internal/auth"
	"github.com/sol1corejz/loyaltydesk/internal/tokenstorage"
	"github.com/stretchr/testify/require"
)

func newApp() *fiber.App {
	app := fiber.New()
	app.Get("/me", AuthMiddleware, func(c *fiber.Ctx) error {
		return c.SendString(UserID(c).String())
	})
	return app
}

func TestAuthMiddleware(t *testing.T) {
	auth.SetSecret("test-secret")
	userID := uuid.New()
	token, err := auth.GenerateToken(userID, "staff@example.com")
	require.NoError(t, err)

	tests := []struct {
		name   string
		setup  func(req *http.Request)
		status int
	}{
		{
			name:   "no token",
			setup:  func(req *http.Request) {},
			status: fiber.StatusUnauthorized,
		},
		{
			name: "cookie",
			setup: func(req *http.Request) {
				req.AddCookie(&http.Cookie{Name: "jwt", Value: token})
			},
			status: fiber.StatusOK,
		},
		{
			name: "bearer header",
			setup: func(req *http.Request) {
				req.Header.Set("Authorization", "Bearer "+token)
			},
			status: fiber.StatusOK,
		},
		{
			name: "garbage",
			setup: func(req *http.Request) {
				req.Header.Set("Authorization", "Bearer not-a-token")
			},
			status: fiber.StatusUnauthorized,
		},
	}

	app := newApp()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			tt.setup(req)

			resp, err := app.Test(req)
			require.NoError(t, err)
			require.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestAuthMiddlewareRejectsRevokedToken(t *testing.T) {
	auth.SetSecret("test-secret")
	token, err := auth.GenerateToken(uuid.New(), "staff@example.com")
	require.NoError(t, err)

	claims, err := auth.ParseToken(token)
	require.NoError(t, err)
	tokenstorage.RevokeToken(claims.ID, claims.ExpiresAt.Time)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := newApp().Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
