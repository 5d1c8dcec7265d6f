package api

import (
	"strconv"

	domain "github.com/example/taskboard/domain/user"
	"github.com/example/taskboard/modules/activity"
	"github.com/example/taskboard/modules/auth"
	"github.com/example/taskboard/modules/task"
	"github.com/gofiber/fiber/v2"
)

// Handlers contains HTTP handlers for the API.
type Handlers struct {
	auth     auth.AuthPort
	tasks    task.TaskPort
	activity activity.ActivityPort
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(authPort auth.AuthPort, taskPort task.TaskPort, activityPort activity.ActivityPort) *Handlers {
	return &Handlers{
		auth:     authPort,
		tasks:    taskPort,
		activity: activityPort,
	}
}

// claims returns the identity bound by AuthMiddleware.
func claims(c *fiber.Ctx) (*domain.Claims, bool) {
	cl, ok := c.Locals(UserContextKey).(*domain.Claims)
	return cl, ok && cl.UserID != ""
}

func unauthenticated(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
		Error:   "missing_credential",
		Message: "Authentication required",
	})
}

// Register handles account registration. New accounts await approval.
func (h *Handlers) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return badRequest(c, "Username, email and password are required")
	}

	resp, err := h.auth.Register(c.UserContext(), auth.RegisterRequest{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return handleError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(RegisterResponse{
		Message: "User registered successfully. You need to be approved by an admin.",
		UserID:  resp.ID,
	})
}

// Login exchanges credentials for a bearer token.
func (h *Handlers) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Username == "" || req.Password == "" {
		return badRequest(c, "Username and password are required")
	}

	resp, err := h.auth.Login(c.UserContext(), auth.LoginRequest{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(LoginResponse{
		Token:     resp.AccessToken,
		TokenType: resp.TokenType,
		ExpiresIn: resp.ExpiresIn,
		ExpiresAt: resp.ExpiresAt,
		UserID:    resp.User.ID,
		Username:  resp.User.Username,
	})
}

// ApproveUser approves a pending account. The caller must be an admin;
// the auth module re-reads the caller's record to check.
func (h *Handlers) ApproveUser(c *fiber.Ctx) error {
	cl, ok := claims(c)
	if !ok {
		return unauthenticated(c)
	}

	if _, err := h.auth.ApproveUser(c.UserContext(), cl.UserID, c.Params("username")); err != nil {
		return handleError(c, err)
	}
	return c.JSON(MessageResponse{Message: "User approved successfully"})
}

// UserData returns the caller's own record.
func (h *Handlers) UserData(c *fiber.Ctx) error {
	cl, ok := claims(c)
	if !ok {
		return unauthenticated(c)
	}

	user, err := h.auth.GetUser(c.UserContext(), cl.UserID)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(user)
}

// AllUsers lists every account, used to pick assignees and for approval.
func (h *Handlers) AllUsers(c *fiber.Ctx) error {
	users, err := h.auth.ListUsers(c.UserContext())
	if err != nil {
		return handleError(c, err)
	}
	if users == nil {
		users = []domain.User{}
	}
	return c.JSON(users)
}

// UpdateAvatar changes the caller's avatar.
func (h *Handlers) UpdateAvatar(c *fiber.Ctx) error {
	cl, ok := claims(c)
	if !ok {
		return unauthenticated(c)
	}

	var req AvatarRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Avatar == "" {
		return badRequest(c, "Avatar is required")
	}

	user, err := h.auth.UpdateAvatar(c.UserContext(), cl.UserID, req.Avatar)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(AvatarResponse{
		Message: "Avatar updated successfully",
		Avatar:  string(user.Avatar),
	})
}

// GetUserID resolves a username to its id.
func (h *Handlers) GetUserID(c *fiber.Ctx) error {
	user, err := h.auth.GetUserByUsername(c.UserContext(), c.Params("username"))
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(fiber.Map{"userId": user.ID})
}

// GetUsername resolves a user id to its username.
func (h *Handlers) GetUsername(c *fiber.Ctx) error {
	user, err := h.auth.GetUser(c.UserContext(), c.Params("userId"))
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(fiber.Map{"username": user.Username})
}

// Activity returns recent events that concern the caller.
func (h *Handlers) Activity(c *fiber.Ctx) error {
	cl, ok := claims(c)
	if !ok {
		return unauthenticated(c)
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return badRequest(c, "limit must be a positive integer")
		}
		limit = n
	}

	entries, err := h.activity.List(c.UserContext(), cl.UserID, limit)
	if err != nil {
		return handleError(c, err)
	}
	if entries == nil {
		entries = []activity.Entry{}
	}
	return c.JSON(entries)
}
