//go:build linux && cgo

package hotkey

import (
	"log/slog"
	"sync"

	"golang.design/x/hotkey"

	"github.com/rbright/mictoggle/internal/config"
)

var xModifiers = []struct {
	bit uint32
	mod hotkey.Modifier
}{
	{bit: config.ModControl, mod: hotkey.ModCtrl},
	{bit: config.ModShift, mod: hotkey.ModShift},
	{bit: config.ModAlt, mod: hotkey.Mod1},
	{bit: config.ModWin, mod: hotkey.Mod4},
}

func startRegistration(b Binding, fired chan<- struct{}, logger *slog.Logger) (stopFunc, error) {
	sym, ok := keysym(b.Key)
	if !ok {
		return nil, ErrUnmappedKey
	}

	mods := make([]hotkey.Modifier, 0, len(xModifiers))
	for _, m := range xModifiers {
		if b.Modifiers&m.bit != 0 {
			mods = append(mods, m.mod)
		}
	}

	hk := hotkey.New(mods, hotkey.Key(sym))
	if err := hk.Register(); err != nil {
		return nil, err
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			case _, ok := <-hk.Keydown():
				if !ok {
					return
				}
				notify(fired)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			if err := hk.Unregister(); err != nil {
				logger.Debug("unregister hotkey", "error", err.Error())
			}
			wg.Wait()
		})
	}, nil
}
