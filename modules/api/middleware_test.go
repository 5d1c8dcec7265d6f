package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	domain "github.com/example/taskboard/domain/user"
	"github.com/example/taskboard/modules/auth"
	"github.com/gofiber/fiber/v2"
)

func TestAuthMiddleware(t *testing.T) {
	validate := func(ctx context.Context, token string) (*domain.Claims, error) {
		switch token {
		case "valid-token":
			return &domain.Claims{UserID: "user-123", Username: "alice"}, nil
		case "broken-transport":
			return nil, errors.New("validate-token request failed: no responders")
		default:
			return nil, fmt.Errorf("%w: %s", auth.ErrInvalidToken, "token has expired")
		}
	}

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "missing authorization header",
			authHeader:     "",
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `"missing_credential"`,
		},
		{
			name:           "bearer without token",
			authHeader:     "Bearer ",
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `"missing_credential"`,
		},
		{
			name:           "invalid token",
			authHeader:     "Bearer invalid-token",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"invalid_credential"`,
		},
		{
			name:           "verification unavailable",
			authHeader:     "Bearer broken-transport",
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `"internal_error"`,
		},
		{
			name:           "valid token",
			authHeader:     "Bearer valid-token",
			expectedStatus: http.StatusOK,
			expectedBody:   `"user_id":"user-123"`,
		},
		{
			name:           "token without bearer prefix",
			authHeader:     "valid-token",
			expectedStatus: http.StatusOK,
			expectedBody:   `"user_id":"user-123"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Use(AuthMiddleware(&mockAuthPort{validateTokenFunc: validate}))
			app.Get("/protected", func(c *fiber.Ctx) error {
				claims := c.Locals(UserContextKey).(*domain.Claims)
				return c.JSON(claims)
			})

			req := httptest.NewRequest("GET", "/protected", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			resp, err := app.Test(req, -1)
			if err != nil {
				t.Fatalf("Failed to test request: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, resp.StatusCode)
			}

			body, _ := io.ReadAll(resp.Body)
			if !strings.Contains(string(body), tt.expectedBody) {
				t.Errorf("Expected body to contain %q, got %q", tt.expectedBody, string(body))
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"", ""},
		{"Bearer", ""},
		{"Bearer abc", "abc"},
		{"bearer abc", "abc"},
		{"  Bearer   abc  ", "abc"},
		{"abc", "abc"},
	}
	for _, tt := range tests {
		if got := bearerToken(tt.header); got != tt.want {
			t.Errorf("bearerToken(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}
