package api

import (
	"log"
	"regexp"
	"strings"

	"github.com/example/taskboard/modules/auth"
	"github.com/example/taskboard/modules/task"
	"github.com/gofiber/fiber/v2"
)

// errorMapping ties a sentinel error to its HTTP outcome.
type errorMapping struct {
	sentinel error
	status   int
	kind     string
}

// errorMappings are checked in order. Errors cross the service boundary as
// text, so matching is by sentinel message at the head of the service error.
var errorMappings = []errorMapping{
	{auth.ErrDuplicateIdentity, fiber.StatusBadRequest, "duplicate_identity"},
	{auth.ErrBadCredentials, fiber.StatusBadRequest, "bad_credentials"},
	{auth.ErrNotApproved, fiber.StatusForbidden, "not_approved"},
	{auth.ErrForbidden, fiber.StatusForbidden, "forbidden"},
	{auth.ErrAlreadyApproved, fiber.StatusBadRequest, "already_approved"},
	{auth.ErrUserNotFound, fiber.StatusNotFound, "not_found"},
	{auth.ErrInvalidUsername, fiber.StatusBadRequest, "validation_error"},
	{auth.ErrInvalidEmail, fiber.StatusBadRequest, "validation_error"},
	{auth.ErrWeakPassword, fiber.StatusBadRequest, "validation_error"},
	{auth.ErrPasswordTooLong, fiber.StatusBadRequest, "validation_error"},
	{auth.ErrInvalidAvatar, fiber.StatusBadRequest, "validation_error"},
	{auth.ErrInvalidToken, fiber.StatusBadRequest, "invalid_credential"},
	{task.ErrTaskNotFound, fiber.StatusNotFound, "not_found"},
	{task.ErrInvalidSubtaskIndex, fiber.StatusNotFound, "not_found"},
	{task.ErrStaleRevision, fiber.StatusConflict, "stale_revision"},
	{task.ErrUnknownAssignee, fiber.StatusBadRequest, "validation_error"},
	{task.ErrInvalidTask, fiber.StatusBadRequest, "validation_error"},
}

var adapterPrefix = regexp.MustCompile(`^[a-z-]+ request failed: `)

const transportPrefix = "failed to call service '"

// serviceMessage strips the adapter and transport wrapping from err and
// returns the text produced by the remote service. Only the outermost
// transport prefix is removed so client text further in is never reached.
func serviceMessage(err error) string {
	msg := adapterPrefix.ReplaceAllString(err.Error(), "")
	if rest, ok := strings.CutPrefix(msg, transportPrefix); ok {
		if _, after, found := strings.Cut(rest, "': "); found {
			msg = after
		}
	}
	return msg
}

// handleError maps a service error to a JSON error response. Anything
// unrecognised is logged and reported as a generic 500.
func handleError(c *fiber.Ctx, err error) error {
	msg := serviceMessage(err)

	for _, m := range errorMappings {
		if !strings.HasPrefix(msg, m.sentinel.Error()) {
			continue
		}
		// Keep wrapped detail such as "invalid task: title is required".
		return c.Status(m.status).JSON(ErrorResponse{
			Error:   m.kind,
			Message: msg,
		})
	}

	log.Printf("[api] Internal error on %s %s: %v", c.Method(), c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}

// badRequest reports a malformed request.
func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Error:   "bad_request",
		Message: message,
	})
}

// customErrorHandler handles errors that escape the route handlers.
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	} else {
		log.Printf("[api] Unhandled error on %s %s: %v", c.Method(), c.Path(), err)
	}

	return c.Status(code).JSON(ErrorResponse{
		Error:   "server_error",
		Message: message,
	})
}
