//go:build !linux

package hotkey

import (
	"errors"
	"log/slog"
)

var errFilterUnsupported = errors.New("keyboard filter requires linux")

// Keyboards lists the evdev nodes of attached keyboards.
func Keyboards() ([]string, error) {
	return nil, errFilterUnsupported
}

func startFilter(Binding, func(), *slog.Logger) (stopFunc, error) {
	return nil, errFilterUnsupported
}
