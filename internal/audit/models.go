// Package audit implements the append-only trail of registry actions. Entries
// are written synchronously with the operation they document and are never
// updated or deleted.
package audit

import (
	"time"

	dErrors "deedledger/pkg/domain-errors"
)

// Action is the closed set of auditable actions.
type Action string

const (
	ActionRegister    Action = "register"
	ActionTransfer    Action = "transfer"
	ActionUpdate      Action = "update"
	ActionVerify      Action = "verify"
	ActionLogin       Action = "login"
	ActionLogout      Action = "logout"
	ActionCreateUser  Action = "create user"
	ActionDeleteUser  Action = "delete user"
	ActionDeleteDeed  Action = "delete deed"
	ActionApproveUser Action = "approve user"
	ActionRejectUser  Action = "reject user"
	ActionVerifyEmail Action = "verify email"
)

var validActions = map[Action]bool{
	ActionRegister:    true,
	ActionTransfer:    true,
	ActionUpdate:      true,
	ActionVerify:      true,
	ActionLogin:       true,
	ActionLogout:      true,
	ActionCreateUser:  true,
	ActionDeleteUser:  true,
	ActionDeleteDeed:  true,
	ActionApproveUser: true,
	ActionRejectUser:  true,
	ActionVerifyEmail: true,
}

// ValidAction reports whether a belongs to the closed action set.
func ValidAction(a Action) bool { return validActions[a] }

// Entry is one immutable audit record. DeedNumber is "-" for actions that do
// not touch a deed (login, user management).
type Entry struct {
	TransactionID string    `json:"transactionId"`
	DeedNumber    string    `json:"deedNumber"`
	Action        Action    `json:"action"`
	PerformedBy   string    `json:"performedBy"`
	Timestamp     time.Time `json:"timestamp"`
	Details       string    `json:"details,omitempty"`
}

// Validate checks the invariants a store relies on.
func (e Entry) Validate() error {
	if e.TransactionID == "" {
		return dErrors.New(dErrors.CodeValidation, "transaction id is required")
	}
	if !ValidAction(e.Action) {
		return dErrors.New(dErrors.CodeValidation, "unknown audit action: "+string(e.Action))
	}
	if e.PerformedBy == "" {
		return dErrors.New(dErrors.CodeValidation, "performed by is required")
	}
	return nil
}

// Filter narrows an audit query. Username (exact) takes precedence over
// PerformedBy (substring) when both are set. Action "All" or "" disables the
// action filter.
type Filter struct {
	DeedNumber  string
	Action      Action
	Username    string
	PerformedBy string
}

// Page is one page of audit entries ordered by timestamp descending.
type Page struct {
	Entries    []Entry `json:"entries"`
	Total      int     `json:"total"`
	Page       int     `json:"page"`
	Limit      int     `json:"limit"`
	TotalPages int     `json:"totalPages"`
}
