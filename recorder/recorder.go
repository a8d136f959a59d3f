// Package recorder owns the microphone stream and produces the finalized
// audio buffer for a recording session. Capture runs at a fixed format:
// mono, 16 kHz, 16-bit signed PCM.
package recorder

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// SampleRate is the fixed capture sample rate in Hz.
const SampleRate = 16000

// BytesPerSample is the size of one PCM sample (16-bit signed).
const BytesPerSample = 2

// ErrAlreadyRecording is returned when Start is called while a capture is active.
var ErrAlreadyRecording = errors.New("recorder: already recording")

// ErrDeviceUnavailable is returned when the selected device cannot be opened.
var ErrDeviceUnavailable = errors.New("recorder: device unavailable")

// stream is the platform-specific capture source. Frames are delivered on a
// dedicated goroutine via the callbacks passed to openStream; stop must join
// that goroutine so no delivery is in flight when it returns.
type stream interface {
	start() error
	stop() error
	close() error
}

// openFunc opens a capture stream on a device. onFrames receives PCM frames
// in capture order; onError receives asynchronous device failures, after
// which delivery ceases.
type openFunc func(deviceID, sampleRate int, onFrames func([]int16), onError func(error)) (stream, error)

// Recorder captures audio from a single input device. Frames are appended in
// delivery order; Stop drains any in-flight frame before finalizing, so the
// returned buffer reflects exactly what was captured between Start and Stop.
type Recorder struct {
	mu        sync.Mutex
	open      openFunc
	st        stream
	samples   []int16
	active    bool
	startedAt time.Time

	errs chan error
}

// New creates a Recorder backed by the system audio API.
func New() *Recorder {
	return &Recorder{
		open: openPortAudio,
		errs: make(chan error, 4),
	}
}

// Start opens the device and begins delivering frames.
// Returns ErrAlreadyRecording if a capture is active, or an error wrapping
// ErrDeviceUnavailable if the device cannot be opened.
func (r *Recorder) Start(deviceID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active {
		return ErrAlreadyRecording
	}

	st, err := r.open(deviceID, SampleRate, r.appendFrame, r.reportError)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	if err := st.start(); err != nil {
		_ = st.close()
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	r.st = st
	r.samples = nil
	r.active = true
	r.startedAt = time.Now()
	return nil
}

// Stop finalizes the capture and returns the complete buffer. The delivery
// goroutine is joined first, so a frame racing the call is still appended.
// Calling Stop while inactive is a no-op returning an empty buffer.
func (r *Recorder) Stop() (Buffer, error) {
	r.mu.Lock()
	if !r.active {
		r.mu.Unlock()
		return Buffer{SampleRate: SampleRate}, nil
	}
	st := r.st
	r.mu.Unlock()

	// Joins the delivery goroutine; appendFrame takes the mutex we just
	// released, so any in-flight frame lands before this returns.
	stopErr := st.stop()
	_ = st.close()

	r.mu.Lock()
	buf := Buffer{Samples: r.samples, SampleRate: SampleRate}
	r.samples = nil
	r.active = false
	r.st = nil
	r.mu.Unlock()

	if stopErr != nil {
		return buf, fmt.Errorf("stop stream: %w", stopErr)
	}
	return buf, nil
}

// Active reports whether a capture is currently running.
func (r *Recorder) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Duration returns how long the current capture has been running.
func (r *Recorder) Duration() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active {
		return 0
	}
	return time.Since(r.startedAt)
}

// Errors delivers asynchronous device failures (disconnects, permission
// loss). The session controller reacts by failing the recording session.
func (r *Recorder) Errors() <-chan error {
	return r.errs
}

func (r *Recorder) appendFrame(frame []int16) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active {
		return
	}
	r.samples = append(r.samples, frame...)
}

func (r *Recorder) reportError(err error) {
	select {
	case r.errs <- err:
	default:
	}
}
