package handler

import (
	"strings"

	"deedledger/internal/access"
	"deedledger/internal/user"
	dErrors "deedledger/pkg/domain-errors"
)

// LoginRequest is the HTTP request body for POST /auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Username = strings.TrimSpace(r.Username)
	if r.Username == "" || r.Password == "" {
		return dErrors.New(dErrors.CodeValidation, "username and password are required")
	}
	return nil
}

// CreateUserRequest is the HTTP request body for POST /users.
type CreateUserRequest struct {
	Username   string `json:"username"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Role       string `json:"role"`
	UserType   string `json:"userType"`
	Profession string `json:"profession"`
}

func (r *CreateUserRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.TrimSpace(r.Email)
	return nil
}

func (r *CreateUserRequest) toInput() user.CreateInput {
	return user.CreateInput{
		Username:   r.Username,
		Email:      r.Email,
		Password:   r.Password,
		Role:       access.Role(r.Role),
		UserType:   access.UserType(r.UserType),
		Profession: r.Profession,
	}
}
