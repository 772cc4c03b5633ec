package policy

import "errors"

var (
	// ErrUnknownPolicy means Lookup was asked for a name the registry
	// never saw registered. Fatal at daemon start.
	ErrUnknownPolicy = errors.New("policy: unknown policy name")

	// ErrAlreadyRegistered means Register was called twice with the same
	// name.
	ErrAlreadyRegistered = errors.New("policy: name already registered")

	// ErrNilPolicy means Register was called with a nil Policy.
	ErrNilPolicy = errors.New("policy: nil policy")
)
