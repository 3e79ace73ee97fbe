package roster

import "errors"

// Sentinel kinds for roster errors.
var (
	ErrMemberNotFound = errors.New("member id not found in roster")
	ErrNoRoster       = errors.New("no roster for operating day")
)
