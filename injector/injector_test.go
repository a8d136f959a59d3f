package injector

import (
	"errors"
	"testing"
)

type clipboardLog struct {
	content  string
	writes   []string
	readErr  error
	writeErr error
}

func (c *clipboardLog) read() (string, error) {
	if c.readErr != nil {
		return "", c.readErr
	}
	return c.content, nil
}

func (c *clipboardLog) write(s string) error {
	if c.writeErr != nil {
		return c.writeErr
	}
	c.writes = append(c.writes, s)
	c.content = s
	return nil
}

func newTestInjector(clip *clipboardLog, paste func() error) *Injector {
	return &Injector{
		readClipboard:  clip.read,
		writeClipboard: clip.write,
		paste:          paste,
	}
}

func TestInjectPastesOnceAndRestores(t *testing.T) {
	clip := &clipboardLog{content: "previous"}
	pastes := 0
	inj := newTestInjector(clip, func() error {
		pastes++
		if clip.content != "dictated text" {
			t.Errorf("clipboard at paste time = %q, want %q", clip.content, "dictated text")
		}
		return nil
	})

	if err := inj.Inject("dictated text"); err != nil {
		t.Fatalf("Inject: %v", err)
	}
	if pastes != 1 {
		t.Errorf("paste invoked %d times, want 1", pastes)
	}
	if clip.content != "previous" {
		t.Errorf("clipboard after inject = %q, want restored %q", clip.content, "previous")
	}
	if len(clip.writes) != 2 {
		t.Errorf("clipboard writes = %v, want [text, restore]", clip.writes)
	}
}

func TestInjectWriteFailure(t *testing.T) {
	clip := &clipboardLog{writeErr: errors.New("clipboard locked")}
	inj := newTestInjector(clip, func() error {
		t.Error("paste invoked despite clipboard failure")
		return nil
	})

	err := inj.Inject("text")
	if !errors.Is(err, ErrInjectionFailed) {
		t.Errorf("err = %v, want ErrInjectionFailed", err)
	}
}

func TestInjectPasteFailure(t *testing.T) {
	clip := &clipboardLog{content: "previous"}
	inj := newTestInjector(clip, func() error {
		return errors.New("no accessibility permission")
	})

	err := inj.Inject("text")
	if !errors.Is(err, ErrInjectionFailed) {
		t.Errorf("err = %v, want ErrInjectionFailed", err)
	}
}

func TestInjectUnreadableClipboardStillPastes(t *testing.T) {
	clip := &clipboardLog{readErr: errors.New("unsupported content")}
	pastes := 0
	inj := newTestInjector(clip, func() error {
		pastes++
		return nil
	})

	if err := inj.Inject("text"); err != nil {
		t.Fatalf("Inject: %v", err)
	}
	if pastes != 1 {
		t.Errorf("paste invoked %d times, want 1", pastes)
	}
	// No restore write: there was nothing readable to restore.
	if len(clip.writes) != 1 {
		t.Errorf("clipboard writes = %v, want only the injected text", clip.writes)
	}
}
