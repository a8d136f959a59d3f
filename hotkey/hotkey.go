// Package hotkey wraps a process-global keyboard hook into a single
// replaceable key-combination trigger.
package hotkey

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	hook "github.com/robotn/gohook"

	"github.com/ayumu-t/kikitori/internal/types"
)

// ErrConflict is reported when a binding cannot be registered, typically
// because another application holds the combination. The previous binding,
// if any, stays in effect.
var ErrConflict = errors.New("hotkey: registration conflict")

// debounceWindow suppresses key-repeat: activations inside the window after
// a fire are dropped, so one physical press raises exactly one event.
const debounceWindow = 300 * time.Millisecond

// Manager owns the global hotkey registration. At most one binding is active;
// Rebind replaces the prior one. Stop must be called on shutdown so the
// system-wide hook is released.
type Manager struct {
	mu       sync.Mutex
	binding  types.HotKeyBinding
	running  bool
	lastFire time.Time

	activations chan struct{}
	errs        chan error
}

// NewManager creates an unbound Manager. Call Rebind to install a binding.
func NewManager() *Manager {
	return &Manager{
		activations: make(chan struct{}, 8),
		errs:        make(chan error, 4),
	}
}

// Rebind installs b as the global binding, replacing any prior one.
// Returns false when the binding cannot be registered; the cause is
// delivered on Errors.
func (m *Manager) Rebind(b types.HotKeyBinding) bool {
	keys, err := hookKeys(b)
	if err != nil {
		m.reportError(fmt.Errorf("%w: %v", ErrConflict, err))
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		hook.End()
		m.running = false
	}

	hook.Register(hook.KeyDown, keys, func(hook.Event) {
		m.fire(time.Now())
	})

	events := hook.Start()
	go func() {
		<-hook.Process(events)
	}()

	m.binding = b
	m.running = true
	slog.Info("hotkey registered", "keys", keys)
	return true
}

// Binding returns the currently installed binding.
func (m *Manager) Binding() types.HotKeyBinding {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.binding
}

// Activations delivers one event per physical press of the binding.
func (m *Manager) Activations() <-chan struct{} {
	return m.activations
}

// Errors delivers registration failures.
func (m *Manager) Errors() <-chan error {
	return m.errs
}

// Stop releases the global hook. Safe to call when not running.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return
	}
	hook.End()
	m.running = false
}

func (m *Manager) fire(now time.Time) {
	m.mu.Lock()
	if now.Sub(m.lastFire) < debounceWindow {
		m.mu.Unlock()
		return
	}
	m.lastFire = now
	m.mu.Unlock()

	select {
	case m.activations <- struct{}{}:
	default:
		slog.Warn("hotkey activation dropped, consumer stalled")
	}
}

func (m *Manager) reportError(err error) {
	select {
	case m.errs <- err:
	default:
	}
}

// hookKeys translates a binding into the hook library's key-name list.
func hookKeys(b types.HotKeyBinding) ([]string, error) {
	if b.Key == "" {
		return nil, fmt.Errorf("hotkey: key required")
	}

	var keys []string
	for _, mod := range b.Modifiers {
		name, ok := modifierNames[mod]
		if !ok {
			return nil, fmt.Errorf("hotkey: unknown modifier %q", mod)
		}
		keys = append(keys, name)
	}
	return append(keys, b.Key), nil
}

var modifierNames = map[types.Modifier]string{
	types.ModControl: "ctrl",
	types.ModShift:   "shift",
	types.ModAlt:     "alt",
	types.ModMeta:    "cmd",
}
