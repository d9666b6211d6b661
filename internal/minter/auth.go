package minter

import (
	"fmt"

	"github.com/avatarnftme/anme-mint/pkg/types"
)

// Authorizer decides whether caller may run administrative operations.
type Authorizer interface {
	Authorize(caller types.Address) error
}

// SingleAdmin authorizes exactly one address.
type SingleAdmin struct {
	Admin types.Address
}

// Authorize implements Authorizer.
func (s SingleAdmin) Authorize(caller types.Address) error {
	if s.Admin.IsZero() || caller != s.Admin {
		return fmt.Errorf("%w: %s", ErrUnauthorized, caller)
	}
	return nil
}
