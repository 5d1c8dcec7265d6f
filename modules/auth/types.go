package auth

import (
	"time"

	domain "github.com/example/taskboard/domain/user"
)

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterResponse represents a user registration response.
type RegisterResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the issued bearer token.
type LoginResponse struct {
	AccessToken string      `json:"access_token"`
	ExpiresIn   int64       `json:"expires_in"`
	ExpiresAt   time.Time   `json:"expires_at"`
	TokenType   string      `json:"token_type"`
	User        domain.User `json:"user"`
}

// ValidateTokenRequest represents a token validation request.
type ValidateTokenRequest struct {
	Token string `json:"token"`
}

// ValidateTokenResponse represents a token validation response.
type ValidateTokenResponse struct {
	Valid    bool   `json:"valid"`
	UserID   string `json:"user_id,omitempty"`
	Username string `json:"username,omitempty"`
	Error    string `json:"error,omitempty"`
}

// GetUserRequest looks up a user by ID or, if ID is empty, by username.
type GetUserRequest struct {
	UserID   string `json:"user_id,omitempty"`
	Username string `json:"username,omitempty"`
}

// UserResponse wraps a user without its credential hash.
type UserResponse struct {
	User domain.User `json:"user"`
}

// ListUsersRequest represents a list-users request.
type ListUsersRequest struct{}

// ListUsersResponse represents a list-users response.
type ListUsersResponse struct {
	Users []domain.User `json:"users"`
}

// ApproveUserRequest represents an approval by RequesterID of Username.
type ApproveUserRequest struct {
	RequesterID string `json:"requester_id"`
	Username    string `json:"username"`
}

// UpdateAvatarRequest represents an avatar change.
type UpdateAvatarRequest struct {
	UserID string `json:"user_id"`
	Avatar string `json:"avatar"`
}
