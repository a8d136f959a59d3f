package recorder

import (
	"encoding/binary"
	"errors"
	"sync"
	"testing"
)

// fakeStream delivers scripted frames on its own goroutine, like the real
// device callback does. stop joins the goroutine before returning.
type fakeStream struct {
	onFrames func([]int16)
	onError  func(error)

	deliver chan []int16
	done    chan struct{}
	wg      sync.WaitGroup

	stopErr error
	closed  bool
}

func (f *fakeStream) start() error {
	f.deliver = make(chan []int16, 64)
	f.done = make(chan struct{})
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		for {
			select {
			case <-f.done:
				// Drain anything still queued so a frame racing stop is
				// delivered, mirroring the real stream's join semantics.
				for {
					select {
					case frame := <-f.deliver:
						f.onFrames(frame)
					default:
						return
					}
				}
			case frame := <-f.deliver:
				f.onFrames(frame)
			}
		}
	}()
	return nil
}

func (f *fakeStream) push(frame []int16) {
	f.deliver <- frame
}

func (f *fakeStream) stop() error {
	close(f.done)
	f.wg.Wait()
	return f.stopErr
}

func (f *fakeStream) close() error {
	f.closed = true
	return nil
}

func newTestRecorder(fs *fakeStream, openErr error) *Recorder {
	return &Recorder{
		open: func(deviceID, sampleRate int, onFrames func([]int16), onError func(error)) (stream, error) {
			if openErr != nil {
				return nil, openErr
			}
			fs.onFrames = onFrames
			fs.onError = onError
			return fs, nil
		},
		errs: make(chan error, 4),
	}
}

func TestStartStopRoundTrip(t *testing.T) {
	fs := &fakeStream{}
	r := newTestRecorder(fs, nil)

	if err := r.Start(0); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !r.Active() {
		t.Fatal("recorder not active after Start")
	}

	fs.push([]int16{1, 2, 3})
	fs.push([]int16{4, 5})

	buf, err := r.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	want := []int16{1, 2, 3, 4, 5}
	if len(buf.Samples) != len(want) {
		t.Fatalf("samples = %v, want %v", buf.Samples, want)
	}
	for i := range want {
		if buf.Samples[i] != want[i] {
			t.Errorf("sample[%d] = %d, want %d", i, buf.Samples[i], want[i])
		}
	}
	if r.Active() {
		t.Error("recorder still active after Stop")
	}
	if !fs.closed {
		t.Error("stream not closed after Stop")
	}
}

func TestFrameRacingStopIsKept(t *testing.T) {
	fs := &fakeStream{}
	r := newTestRecorder(fs, nil)

	if err := r.Start(0); err != nil {
		t.Fatalf("Start: %v", err)
	}
	// Queue a frame but do not wait for delivery; Stop must join the
	// delivery goroutine, which drains the queue.
	fs.push([]int16{7, 8, 9})

	buf, err := r.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if len(buf.Samples) != 3 {
		t.Errorf("in-flight frame lost: got %d samples, want 3", len(buf.Samples))
	}
}

func TestStartWhileActive(t *testing.T) {
	fs := &fakeStream{}
	r := newTestRecorder(fs, nil)

	if err := r.Start(0); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := r.Start(0); !errors.Is(err, ErrAlreadyRecording) {
		t.Errorf("second Start: err = %v, want ErrAlreadyRecording", err)
	}
	if _, err := r.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestStartDeviceUnavailable(t *testing.T) {
	r := newTestRecorder(nil, errors.New("no such device"))

	err := r.Start(42)
	if !errors.Is(err, ErrDeviceUnavailable) {
		t.Errorf("Start on bad device: err = %v, want ErrDeviceUnavailable", err)
	}
	if r.Active() {
		t.Error("recorder active after failed Start")
	}
}

func TestStopWhileIdleIsNoOp(t *testing.T) {
	r := newTestRecorder(&fakeStream{}, nil)

	buf, err := r.Stop()
	if err != nil {
		t.Fatalf("Stop while idle: %v", err)
	}
	if !buf.Empty() {
		t.Errorf("idle Stop returned %d samples, want empty buffer", len(buf.Samples))
	}
	if buf.SampleRate != SampleRate {
		t.Errorf("idle Stop sample rate = %d, want %d", buf.SampleRate, SampleRate)
	}
}

func TestRestartAfterStopDiscardsOldSamples(t *testing.T) {
	fs := &fakeStream{}
	r := newTestRecorder(fs, nil)

	if err := r.Start(0); err != nil {
		t.Fatalf("Start: %v", err)
	}
	fs.push([]int16{1, 1, 1})
	if _, err := r.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	fs2 := &fakeStream{}
	r.open = func(deviceID, sampleRate int, onFrames func([]int16), onError func(error)) (stream, error) {
		fs2.onFrames = onFrames
		fs2.onError = onError
		return fs2, nil
	}
	if err := r.Start(0); err != nil {
		t.Fatalf("restart: %v", err)
	}
	fs2.push([]int16{2, 2})

	buf, err := r.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if len(buf.Samples) != 2 {
		t.Errorf("second capture holds %d samples, want 2", len(buf.Samples))
	}
}

func TestDeviceErrorReported(t *testing.T) {
	fs := &fakeStream{}
	r := newTestRecorder(fs, nil)

	if err := r.Start(0); err != nil {
		t.Fatalf("Start: %v", err)
	}
	fs.onError(errors.New("device unplugged"))

	select {
	case err := <-r.Errors():
		if err == nil {
			t.Error("nil error delivered")
		}
	default:
		t.Error("device error not delivered on Errors channel")
	}
	if _, err := r.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestBufferAccounting(t *testing.T) {
	tests := []struct {
		name        string
		samples     int
		wantSeconds float64
		wantBytes   int
	}{
		{"empty", 0, 0, 0},
		{"one second", SampleRate, 1.0, SampleRate * 2},
		{"half second", SampleRate / 2, 0.5, SampleRate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Buffer{Samples: make([]int16, tt.samples), SampleRate: SampleRate}
			if got := b.Seconds(); got != tt.wantSeconds {
				t.Errorf("Seconds() = %v, want %v", got, tt.wantSeconds)
			}
			if got := b.ByteLen(); got != tt.wantBytes {
				t.Errorf("ByteLen() = %d, want %d", got, tt.wantBytes)
			}
		})
	}
}

func TestWAVHeader(t *testing.T) {
	b := Buffer{Samples: []int16{0, 100, -100, 32767}, SampleRate: SampleRate}
	data := b.WAV()

	if len(data) != 44+8 {
		t.Fatalf("WAV length = %d, want %d", len(data), 44+8)
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		t.Error("missing RIFF/WAVE markers")
	}
	if rate := binary.LittleEndian.Uint32(data[24:28]); rate != SampleRate {
		t.Errorf("sample rate field = %d, want %d", rate, SampleRate)
	}
	if bits := binary.LittleEndian.Uint16(data[34:36]); bits != 16 {
		t.Errorf("bits per sample = %d, want 16", bits)
	}
	if size := binary.LittleEndian.Uint32(data[40:44]); size != 8 {
		t.Errorf("data chunk size = %d, want 8", size)
	}
	if last := int16(binary.LittleEndian.Uint16(data[50:52])); last != 32767 {
		t.Errorf("last sample = %d, want 32767", last)
	}
}
