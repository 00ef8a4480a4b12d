//go:build !linux || !cgo

package hotkey

import (
	"errors"
	"log/slog"
)

func startRegistration(Binding, chan<- struct{}, *slog.Logger) (stopFunc, error) {
	return nil, errors.New("hotkey registration requires linux with cgo")
}
