package user

import (
	"time"
)

// Avatar references one of the display icons bundled with the client.
type Avatar string

// DefaultAvatar is assigned at registration.
const DefaultAvatar Avatar = "profileIcon1"

// Avatars lists every accepted avatar reference.
var Avatars = []Avatar{
	"profileIcon1",
	"profileIcon2",
	"profileIcon3",
	"profileIcon4",
	"profileIcon5",
	"profileIcon6",
}

// Valid reports whether a is one of Avatars.
func (a Avatar) Valid() bool {
	for _, known := range Avatars {
		if a == known {
			return true
		}
	}
	return false
}

// User represents an account in the directory.
type User struct {
	ID           string    `gorm:"primaryKey;type:text" bson:"_id" json:"id"`
	Username     string    `gorm:"uniqueIndex;not null;type:text" bson:"username" json:"username"`
	Email        string    `gorm:"uniqueIndex;not null;type:text" bson:"email" json:"email"`
	PasswordHash string    `gorm:"not null;type:text" bson:"password_hash" json:"-"`
	Avatar       Avatar    `gorm:"not null;type:text" bson:"avatar" json:"avatar"`
	IsApproved   bool      `gorm:"not null;default:false" bson:"is_approved" json:"isApproved"`
	IsAdmin      bool      `gorm:"not null;default:false" bson:"is_admin" json:"isAdmin"`
	CreatedAt    time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updatedAt"`
}

// TableName returns the table name for the User entity.
func (User) TableName() string {
	return "users"
}

// Public returns a copy of u with the credential hash stripped.
func (u User) Public() User {
	u.PasswordHash = ""
	return u
}

// Claims is the identity carried by a verified token.
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}
