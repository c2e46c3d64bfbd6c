package access

import "errors"

var (
	// ErrUnauthenticated means the request carried no verifiable identity.
	ErrUnauthenticated = errors.New("access: authentication required")
	// ErrForbidden means the role or same-organization scope check failed.
	ErrForbidden = errors.New("access: forbidden")
	// ErrInvalidIdentityState means a team-scoped identity has no team
	// assigned. Scope resolution must fail rather than silently widen or
	// empty the readable set.
	ErrInvalidIdentityState = errors.New("access: identity has no team assigned")
)
