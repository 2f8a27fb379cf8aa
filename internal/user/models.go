// Package user manages registry accounts: internal staff and external
// professionals. External accounts sit behind an approval gate before they
// can log in.
package user

import (
	"context"
	"time"

	"deedledger/internal/access"
)

// RegistrationStatus gates external accounts. Internal accounts are created
// approved.
type RegistrationStatus string

const (
	StatusPending  RegistrationStatus = "pending"
	StatusApproved RegistrationStatus = "approved"
	StatusRejected RegistrationStatus = "rejected"
)

// User is one registry account. PasswordHash is a bcrypt hash; the plaintext
// never leaves the login path.
type User struct {
	ID                 string             `json:"id"`
	Username           string             `json:"username"`
	Email              string             `json:"email"`
	PasswordHash       string             `json:"-"`
	Role               access.Role        `json:"role"`
	UserType           access.UserType    `json:"userType"`
	Profession         string             `json:"profession,omitempty"`
	RegistrationStatus RegistrationStatus `json:"registrationStatus"`
	EmailVerified      bool               `json:"emailVerified"`
	CreatedAt          time.Time          `json:"createdAt"`
}

// Identity converts the stored account into the access-control identity.
func (u User) Identity() access.Identity {
	return access.Identity{
		UserID:     u.ID,
		Username:   u.Username,
		Role:       u.Role,
		UserType:   u.UserType,
		Profession: u.Profession,
	}
}

// Store persists accounts. Username uniqueness is the store's responsibility.
type Store interface {
	Create(ctx context.Context, u User) error
	FindByID(ctx context.Context, id string) (User, error)
	FindByUsername(ctx context.Context, username string) (User, error)
	UpdateStatus(ctx context.Context, id string, status RegistrationStatus) error
	MarkEmailVerified(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}
