//go:build linux

package hotkey

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"sync"

	evdev "github.com/holoplot/go-evdev"
)

const (
	keyUp     = 0
	keyDown   = 1
	keyRepeat = 2
)

// eventReader is the part of *evdev.InputDevice the reader goroutines use.
type eventReader interface {
	ReadOne() (*evdev.InputEvent, error)
}

// Keyboards lists the evdev nodes of attached keyboards that can be opened.
func Keyboards() ([]string, error) {
	inputs, err := evdev.ListDevicePaths()
	if err != nil {
		return nil, fmt.Errorf("list input devices: %w", err)
	}

	paths := make([]string, 0, len(inputs))
	for _, input := range inputs {
		dev, err := evdev.Open(input.Path)
		if err != nil {
			continue
		}
		if isKeyboard(dev.CapableTypes(), dev.CapableEvents(evdev.EV_KEY)) {
			paths = append(paths, input.Path)
		}
		_ = dev.Close()
	}
	return paths, nil
}

// isKeyboard reports whether a device emits key events for a typing keyboard.
// Power buttons and lid switches also emit EV_KEY but have no letter keys.
func isKeyboard(types []evdev.EvType, keys []evdev.EvCode) bool {
	return slices.Contains(types, evdev.EV_KEY) &&
		slices.Contains(keys, evdev.KEY_A) &&
		slices.Contains(keys, evdev.KEY_ENTER)
}

func startFilter(b Binding, onPress func(), logger *slog.Logger) (stopFunc, error) {
	code, ok := evdevCode(b.Key)
	if !ok {
		return nil, ErrUnmappedKey
	}

	paths, err := Keyboards()
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, errors.New("no readable keyboards")
	}

	var (
		devices []*evdev.InputDevice
		openErr error
	)
	for _, path := range paths {
		dev, err := evdev.Open(path)
		if err != nil {
			openErr = errors.Join(openErr, err)
			continue
		}
		devices = append(devices, dev)
	}
	if len(devices) == 0 {
		return nil, fmt.Errorf("open keyboards: %w", openErr)
	}

	var wg sync.WaitGroup
	for _, dev := range devices {
		wg.Add(1)
		go func(dev *evdev.InputDevice) {
			defer wg.Done()
			readChords(dev, newChordTracker(b.Modifiers, code), onPress, logger)
		}(dev)
	}
	logger.Debug("keyboard filter started", "keyboards", len(devices))

	var once sync.Once
	return func() {
		once.Do(func() {
			for _, dev := range devices {
				_ = dev.Close()
			}
			wg.Wait()
		})
	}, nil
}

// readChords consumes key events from dev until it fails or is closed.
func readChords(dev eventReader, tracker *chordTracker, onPress func(), logger *slog.Logger) {
	for {
		ev, err := dev.ReadOne()
		if err != nil {
			if !errors.Is(err, os.ErrClosed) && !errors.Is(err, io.EOF) {
				logger.Debug("keyboard read stopped", "error", err.Error())
			}
			return
		}
		if ev.Type != evdev.EV_KEY {
			continue
		}
		if tracker.observe(uint16(ev.Code), ev.Value) {
			onPress()
		}
	}
}

// chordTracker matches one chord against a single keyboard's key stream.
type chordTracker struct {
	modifiers uint32
	key       uint16
	held      map[uint16]bool
}

func newChordTracker(modifiers uint32, key uint16) *chordTracker {
	return &chordTracker{modifiers: modifiers, key: key, held: make(map[uint16]bool)}
}

// observe records one key event and reports whether it completes the chord.
// The held modifiers must equal the configured set exactly; repeats never match.
func (c *chordTracker) observe(code uint16, value int32) bool {
	if _, isMod := modifierBit(code); isMod {
		switch value {
		case keyDown, keyRepeat:
			c.held[code] = true
		case keyUp:
			delete(c.held, code)
		}
		return false
	}
	return code == c.key && value == keyDown && c.heldMask() == c.modifiers
}

func (c *chordTracker) heldMask() uint32 {
	var mask uint32
	for code := range c.held {
		bit, _ := modifierBit(code)
		mask |= bit
	}
	return mask
}
