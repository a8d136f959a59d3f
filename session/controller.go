// Package session implements the dictation session state machine. The
// controller is the single writer of session state; hotkey, audio-delivery
// and inference-completion events all serialize through its transition
// methods, and a transition whose precondition no longer holds is rejected
// with a typed error rather than queued.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ayumu-t/kikitori/internal/types"
	"github.com/ayumu-t/kikitori/recorder"
	"github.com/ayumu-t/kikitori/stt"
)

// ErrSessionBusy is returned by RequestStart while a session is active.
var ErrSessionBusy = errors.New("session: busy")

// ErrNotRecording is returned by RequestStop outside the Recording state.
var ErrNotRecording = errors.New("session: not recording")

// ErrNoTranscript is returned by Submit and Clear outside ReviewReady.
var ErrNoTranscript = errors.New("session: no transcript available")

// Recorder is the audio capture capability the controller drives.
type Recorder interface {
	Start(deviceID int) error
	Stop() (recorder.Buffer, error)
	Active() bool
	Errors() <-chan error
}

// Transcriber is the asynchronous speech-to-text capability. The controller
// guarantees single-flight: no second call is issued before the previous one
// completes or fails.
type Transcriber interface {
	Transcribe(ctx context.Context, audio recorder.Buffer, modelID string) (stt.Result, error)
}

// Injector delivers text to the OS input focus.
type Injector interface {
	Inject(text string) error
}

// session is the single unit of work: one recording-to-injection cycle.
type session struct {
	id        int64
	deviceID  int
	modelID   string
	buffer    recorder.Buffer
	transcript string
	errMsg    string
	createdAt time.Time
	endedAt   time.Time
}

// Controller owns the single active session. At most one session is in a
// non-Idle state at any time.
type Controller struct {
	rec Recorder
	tr  Transcriber
	inj Injector

	mu         sync.Mutex
	state      types.SessionState
	sess       *session
	nextID     int64
	stopping   bool
	submitting bool

	defaultDevice int
	defaultModel  string

	notifier *notifier
	done     chan struct{}
	wg       sync.WaitGroup
}

// New creates a Controller in the Idle state and begins watching the
// recorder's error channel.
func New(rec Recorder, tr Transcriber, inj Injector) *Controller {
	c := &Controller{
		rec:      rec,
		tr:       tr,
		inj:      inj,
		state:    types.StateIdle,
		notifier: newNotifier(),
		done:     make(chan struct{}),
	}

	c.wg.Add(1)
	go c.watchRecorder()
	return c
}

// Close releases the controller's goroutines and closes all subscriptions.
// Any in-flight inference is awaited; there is no mid-inference cancellation.
func (c *Controller) Close() {
	close(c.done)
	c.wg.Wait()
	c.notifier.close()
}

// SetDefaults sets the device and model used for hotkey-initiated sessions.
func (c *Controller) SetDefaults(deviceID int, modelID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.defaultDevice = deviceID
	c.defaultModel = modelID
}

// Subscribe returns a channel of state snapshots. Every transition is
// delivered in order; nothing is dropped for a slow receiver.
func (c *Controller) Subscribe() <-chan types.Snapshot {
	return c.notifier.subscribe()
}

// Snapshot returns the current session state.
func (c *Controller) Snapshot() types.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// RequestStart creates a session and begins recording.
// Fails with ErrSessionBusy unless the state is Idle (or Failed, which an
// explicit start request resets).
func (c *Controller) RequestStart(deviceID int, modelID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case types.StateIdle, types.StateFailed:
	default:
		return ErrSessionBusy
	}

	if err := c.rec.Start(deviceID); err != nil {
		return fmt.Errorf("start recording: %w", err)
	}

	c.nextID++
	c.sess = &session{
		id:        c.nextID,
		deviceID:  deviceID,
		modelID:   modelID,
		createdAt: time.Now(),
	}
	c.state = types.StateRecording
	c.publishLocked()
	slog.Info("recording started", "session", c.sess.id, "device", deviceID, "model", modelID)
	return nil
}

// RequestStop finalizes the capture and hands the buffer to the transcriber.
// Fails with ErrNotRecording unless the state is Recording.
func (c *Controller) RequestStop() error {
	c.mu.Lock()
	if c.state != types.StateRecording || c.stopping {
		c.mu.Unlock()
		return ErrNotRecording
	}
	c.stopping = true
	sess := c.sess
	c.mu.Unlock()

	// Stop drains in-flight frames; done outside the lock so delivery and
	// other operations are not blocked on device teardown.
	buf, err := c.rec.Stop()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopping = false

	if c.sess != sess || c.state != types.StateRecording {
		// Lost a race with a hardware failure; nothing more to do.
		return nil
	}

	sess.endedAt = time.Now()
	if err != nil {
		c.failLocked(fmt.Sprintf("stop recording: %v", err))
		return nil
	}

	sess.buffer = buf
	c.state = types.StateTranscribing
	c.publishLocked()
	slog.Info("recording stopped", "session", sess.id, "seconds", buf.Seconds())

	c.wg.Add(1)
	go c.transcribe(sess)
	return nil
}

// Submit injects the edited transcript and returns the session to Idle.
// Fails with ErrNoTranscript unless the state is ReviewReady. An injection
// failure keeps the state (and the draft) intact for retry.
func (c *Controller) Submit(editedText string) error {
	c.mu.Lock()
	if c.state != types.StateReviewReady || c.submitting {
		c.mu.Unlock()
		return ErrNoTranscript
	}
	c.submitting = true
	sess := c.sess
	c.mu.Unlock()

	err := c.inj.Inject(editedText)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitting = false

	if err != nil {
		slog.Error("inject text", "session", sess.id, "error", err)
		if c.sess == sess {
			c.sess.errMsg = err.Error()
			c.publishLocked()
		}
		return err
	}

	if c.sess == sess && c.state == types.StateReviewReady {
		c.resetLocked()
	}
	return nil
}

// Clear discards the transcript and returns the session to Idle.
func (c *Controller) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != types.StateReviewReady {
		return ErrNoTranscript
	}
	c.resetLocked()
	return nil
}

// Acknowledge resets a Failed session to Idle. No-op in any other state.
func (c *Controller) Acknowledge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != types.StateFailed {
		return
	}
	c.resetLocked()
}

// OnHotkeyActivated toggles Idle->Recording and Recording->Transcribing.
// Activations in any other state are ignored, preventing overlapping
// sessions. Never returns an error.
func (c *Controller) OnHotkeyActivated() {
	c.mu.Lock()
	state := c.state
	device := c.defaultDevice
	model := c.defaultModel
	c.mu.Unlock()

	switch state {
	case types.StateIdle:
		if err := c.RequestStart(device, model); err != nil {
			slog.Error("hotkey start", "error", err)
		}
	case types.StateRecording:
		if err := c.RequestStop(); err != nil {
			slog.Error("hotkey stop", "error", err)
		}
	default:
		slog.Debug("hotkey ignored", "state", state)
	}
}

// transcribe runs the single in-flight inference task for sess. The
// completion is applied only if sess is still the current session in the
// Transcribing state, so a stale completion can never clobber a newer
// session.
func (c *Controller) transcribe(sess *session) {
	defer c.wg.Done()

	result, err := c.tr.Transcribe(context.Background(), sess.buffer, sess.modelID)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sess != sess || c.state != types.StateTranscribing {
		slog.Warn("stale transcription completion ignored", "session", sess.id)
		return
	}

	if err != nil {
		slog.Error("transcription failed", "session", sess.id, "error", err)
		c.failLocked(err.Error())
		return
	}

	sess.transcript = result.Text
	c.state = types.StateReviewReady
	c.publishLocked()
	slog.Info("transcription complete", "session", sess.id, "chars", len(result.Text))
}

// watchRecorder fails the active session when the device reports a
// hardware error mid-capture.
func (c *Controller) watchRecorder() {
	defer c.wg.Done()
	for {
		select {
		case <-c.done:
			return
		case err := <-c.rec.Errors():
			c.onRecorderError(err)
		}
	}
}

func (c *Controller) onRecorderError(devErr error) {
	c.mu.Lock()
	if c.state != types.StateRecording || c.stopping {
		c.mu.Unlock()
		slog.Warn("recorder error outside recording", "error", devErr)
		return
	}
	sess := c.sess
	c.mu.Unlock()

	// Release the device before reporting failure.
	_, _ = c.rec.Stop()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess != sess || c.state != types.StateRecording {
		return
	}
	sess.endedAt = time.Now()
	c.failLocked(fmt.Sprintf("recording device failed: %v", devErr))
}

func (c *Controller) failLocked(msg string) {
	if c.sess != nil {
		c.sess.errMsg = msg
	}
	c.state = types.StateFailed
	c.publishLocked()
}

func (c *Controller) resetLocked() {
	c.sess = nil
	c.state = types.StateIdle
	c.publishLocked()
}

func (c *Controller) snapshotLocked() types.Snapshot {
	snap := types.Snapshot{State: c.state}
	if c.sess != nil {
		snap.SessionID = c.sess.id
		snap.DeviceID = c.sess.deviceID
		snap.ModelID = c.sess.modelID
		snap.Transcript = c.sess.transcript
		snap.Error = c.sess.errMsg
		snap.Duration = c.sess.buffer.Seconds()
	}
	return snap
}

func (c *Controller) publishLocked() {
	c.notifier.publish(c.snapshotLocked())
}
