package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// UserRegisteredEvent is emitted after a new account is stored.
type UserRegisteredEvent struct {
	UserID       string    `json:"user_id"`
	Username     string    `json:"username"`
	RegisteredAt time.Time `json:"registered_at"`
}

// UserRegisteredV1 is the typed event definition for registration.
// Subject: events.auth.v1.user-registered
var UserRegisteredV1 = helper.EventDefinition[UserRegisteredEvent](
	"auth", "UserRegistered", "v1",
)

// UserApprovedEvent is emitted when an admin approves an account.
type UserApprovedEvent struct {
	UserID     string    `json:"user_id"`
	Username   string    `json:"username"`
	ApprovedBy string    `json:"approved_by"`
	ApprovedAt time.Time `json:"approved_at"`
}

// UserApprovedV1 is the typed event definition for approval.
// Subject: events.auth.v1.user-approved
var UserApprovedV1 = helper.EventDefinition[UserApprovedEvent](
	"auth", "UserApproved", "v1",
)
