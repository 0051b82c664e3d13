package service

import (
	"fmt"

	"marketplace/internal/model"
)

const (
	RoleBuyer  = "buyer"
	RoleSeller = "seller"
	RoleAdmin  = "admin"
)

// Actor is the authenticated caller of a core operation. Handlers build it from
// the bearer token; every operation checks its own role and ownership rules.
type Actor struct {
	UserID int64
	Role   string
}

// System is used by background jobs.
var System = Actor{Role: RoleAdmin}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// Owns reports whether the actor is the user with userID.
func (a Actor) Owns(userID int64) bool {
	return a.UserID != 0 && a.UserID == userID
}

func requireUser(a Actor) error {
	if a.UserID <= 0 {
		return fmt.Errorf("%w: authentication required", model.ErrForbidden)
	}
	return nil
}

func requireAdmin(a Actor) error {
	if !a.IsAdmin() {
		return fmt.Errorf("%w: admin only", model.ErrForbidden)
	}
	return nil
}

func requireSeller(a Actor) error {
	if err := requireUser(a); err != nil {
		return err
	}
	if a.Role != RoleSeller {
		return fmt.Errorf("%w: seller only", model.ErrForbidden)
	}
	return nil
}

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", model.ErrValidation, fmt.Sprintf(format, args...))
}
