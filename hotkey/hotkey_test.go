package hotkey

import (
	"testing"
	"time"

	"github.com/ayumu-t/kikitori/internal/types"
)

func TestHookKeys(t *testing.T) {
	tests := []struct {
		name    string
		binding types.HotKeyBinding
		want    []string
		wantErr bool
	}{
		{
			name:    "default binding",
			binding: types.DefaultHotKey(),
			want:    []string{"ctrl", "shift", "v"},
		},
		{
			name:    "meta maps to cmd",
			binding: types.HotKeyBinding{Key: "d", Modifiers: []types.Modifier{types.ModMeta}},
			want:    []string{"cmd", "d"},
		},
		{
			name:    "bare key",
			binding: types.HotKeyBinding{Key: "f5"},
			want:    []string{"f5"},
		},
		{
			name:    "missing key",
			binding: types.HotKeyBinding{Modifiers: []types.Modifier{types.ModControl}},
			wantErr: true,
		},
		{
			name:    "unknown modifier",
			binding: types.HotKeyBinding{Key: "v", Modifiers: []types.Modifier{"hyper"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := hookKeys(tt.binding)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("hookKeys: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("keys = %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("key[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestFireDebouncesKeyRepeat(t *testing.T) {
	m := NewManager()
	base := time.Now()

	// A burst of key-repeat events inside the window yields one activation.
	m.fire(base)
	m.fire(base.Add(50 * time.Millisecond))
	m.fire(base.Add(100 * time.Millisecond))

	if got := len(m.activations); got != 1 {
		t.Errorf("activations after burst = %d, want 1", got)
	}

	// A press after the window fires again.
	m.fire(base.Add(debounceWindow + time.Millisecond))
	if got := len(m.activations); got != 2 {
		t.Errorf("activations after second press = %d, want 2", got)
	}
}

func TestRebindRejectsInvalidBinding(t *testing.T) {
	m := NewManager()

	if m.Rebind(types.HotKeyBinding{}) {
		t.Error("Rebind accepted an empty binding")
	}
	select {
	case err := <-m.Errors():
		if err == nil {
			t.Error("nil error delivered")
		}
	default:
		t.Error("no error delivered for invalid binding")
	}
}
