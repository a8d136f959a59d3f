// Package injector delivers text into the application holding OS input
// focus, via the clipboard and a simulated paste keystroke.
package injector

import (
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/atotto/clipboard"
	"github.com/micmonay/keybd_event"
)

// ErrInjectionFailed is returned when the clipboard cannot be written or the
// paste keystroke cannot be issued. The pending draft is unaffected; the
// caller may retry.
var ErrInjectionFailed = errors.New("injector: injection failed")

// Injector places text on the system clipboard, simulates a paste, then
// restores the prior clipboard content. Restoration is best-effort: the
// clipboard is a shared resource and concurrent external writes are
// expected and non-fatal.
type Injector struct {
	readClipboard  func() (string, error)
	writeClipboard func(string) error
	paste          func() error

	settleDelay  time.Duration // clipboard write -> paste
	restoreDelay time.Duration // paste -> clipboard restore
}

// New creates an Injector backed by the system clipboard and keyboard.
func New() *Injector {
	return &Injector{
		readClipboard:  clipboard.ReadAll,
		writeClipboard: clipboard.WriteAll,
		paste:          simulatePaste,
		settleDelay:    80 * time.Millisecond,
		restoreDelay:   120 * time.Millisecond,
	}
}

// Inject delivers text to the current input focus.
func (i *Injector) Inject(text string) error {
	prev, prevErr := i.readClipboard()

	if err := i.writeClipboard(text); err != nil {
		return fmt.Errorf("%w: write clipboard: %v", ErrInjectionFailed, err)
	}

	// Give the clipboard owner a moment before the receiving app reads it.
	time.Sleep(i.settleDelay)

	if err := i.paste(); err != nil {
		return fmt.Errorf("%w: simulate paste: %v", ErrInjectionFailed, err)
	}

	time.Sleep(i.restoreDelay)
	if prevErr == nil {
		if err := i.writeClipboard(prev); err != nil {
			return nil // restore is best-effort
		}
	}
	return nil
}

// simulatePaste issues the platform paste chord: Cmd+V on macOS, Ctrl+V
// elsewhere.
func simulatePaste() error {
	kb, err := keybd_event.NewKeyBonding()
	if err != nil {
		return err
	}
	if runtime.GOOS == "darwin" {
		kb.HasSuper(true)
	} else {
		kb.HasCTRL(true)
	}
	kb.SetKeys(keybd_event.VK_V)
	return kb.Launching()
}
