package hxmount

import "errors"

// Sentinel errors for component operations.
var (
	ErrInvalidConfig   = errors.New("hxmount: invalid configuration")
	ErrMissingTagName  = errors.New("hxmount: missing tag name")
	ErrMissingStateKey = errors.New("hxmount: state persistence requires a state key or identity")
	ErrDisconnected    = errors.New("hxmount: component disconnected")
	ErrMountHook       = errors.New("hxmount: mount hook failed")
	ErrAlreadyDefined  = errors.New("hxmount: tag already defined")
)

// IsConfigError checks if err is a configuration error raised during setup.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrInvalidConfig) ||
		errors.Is(err, ErrMissingTagName) ||
		errors.Is(err, ErrMissingStateKey)
}

// IsDisconnected checks if err reports that the component went away before
// the operation completed.
func IsDisconnected(err error) bool {
	return errors.Is(err, ErrDisconnected)
}

// IsMountHookError checks if err came from a user supplied mount hook.
func IsMountHookError(err error) bool {
	return errors.Is(err, ErrMountHook)
}
