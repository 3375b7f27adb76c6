package guard

import (
	"errors"
	"fmt"
	"strings"

	"zoolip/portal/internal/model"
)

var (
	// ErrUnauthenticated means no identity could be resolved. Callers send
	// the user to the login flow.
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("insufficient role")
)

// ForbiddenError names the roles that would have been accepted and the
// role the caller actually holds.
type ForbiddenError struct {
	Required []model.Role
	Actual   model.Role
}

func (e *ForbiddenError) Error() string {
	names := make([]string, len(e.Required))
	for i, r := range e.Required {
		names[i] = string(r)
	}
	return fmt.Sprintf("insufficient role: requires one of [%s], has %s", strings.Join(names, ", "), e.Actual)
}

func (e *ForbiddenError) Unwrap() error { return ErrForbidden }
