package msauth

import "errors"

var (
	// ErrAuthenticationRequired reports that no valid token is held and no
	// refresh credential can produce one; the interactive device-code flow
	// is needed.
	ErrAuthenticationRequired = errors.New("authentication required")
	// ErrAuthenticationFailed reports that the interactive device-code flow
	// was denied, expired, or failed.
	ErrAuthenticationFailed = errors.New("authentication failed")
)
