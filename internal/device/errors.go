package device

import (
	"errors"
	"fmt"
)

// BindErrorKind classifies why a bind attempt failed.
type BindErrorKind string

const (
	KindEmptyName        BindErrorKind = "empty_name"
	KindNotFound         BindErrorKind = "not_found"
	KindActivationFailed BindErrorKind = "activation_failed"
	KindNoDefaultDevice  BindErrorKind = "no_default_device"
)

// BindError describes a failed bind with enough context for a user notice.
type BindError struct {
	Kind BindErrorKind
	Name string
	Err  error
}

func (e *BindError) Error() string {
	switch e.Kind {
	case KindEmptyName:
		return "device_name is empty while use_default_device = false"
	case KindNotFound:
		return fmt.Sprintf("capture device %q not found", e.Name)
	case KindActivationFailed:
		return fmt.Sprintf("activate capture device %q: %v", e.Name, e.Err)
	case KindNoDefaultDevice:
		if e.Err != nil && !errors.Is(e.Err, ErrNoDefaultDevice) {
			return fmt.Sprintf("%v: %v", ErrNoDefaultDevice, e.Err)
		}
		return ErrNoDefaultDevice.Error()
	default:
		return fmt.Sprintf("bind capture device: %v", e.Err)
	}
}

func (e *BindError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match on kind via a zero-valued BindError{Kind: ...} target.
func (e *BindError) Is(target error) bool {
	t, ok := target.(*BindError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Name == "" && t.Err == nil
}

// IsKind reports whether err is a BindError of the given kind.
func IsKind(err error, kind BindErrorKind) bool {
	var bindErr *BindError
	return errors.As(err, &bindErr) && bindErr.Kind == kind
}
