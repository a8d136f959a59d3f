package recorder

import (
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
)

const framesPerBuffer = 1024

// paStream captures from a PortAudio input stream on a dedicated goroutine.
type paStream struct {
	st       *portaudio.Stream
	in       []int16
	onFrames func([]int16)
	onError  func(error)

	done chan struct{}
	wg   sync.WaitGroup
}

func openPortAudio(deviceID, sampleRate int, onFrames func([]int16), onError func(error)) (stream, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("init portaudio: %w", err)
	}

	dev, err := inputDevice(deviceID)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, err
	}

	in := make([]int16, framesPerBuffer)
	params := portaudio.LowLatencyParameters(dev, nil)
	params.Input.Channels = 1
	params.SampleRate = float64(sampleRate)
	params.FramesPerBuffer = len(in)

	st, err := portaudio.OpenStream(params, in)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("open stream: %w", err)
	}

	return &paStream{
		st:       st,
		in:       in,
		onFrames: onFrames,
		onError:  onError,
		done:     make(chan struct{}),
	}, nil
}

// inputDevice resolves an integer device id to a PortAudio input device.
// Negative ids select the system default input.
func inputDevice(deviceID int) (*portaudio.DeviceInfo, error) {
	if deviceID < 0 {
		dev, err := portaudio.DefaultInputDevice()
		if err != nil {
			return nil, fmt.Errorf("default input device: %w", err)
		}
		return dev, nil
	}

	devs, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerate devices: %w", err)
	}
	if deviceID >= len(devs) {
		return nil, fmt.Errorf("device %d not found", deviceID)
	}
	dev := devs[deviceID]
	if dev.MaxInputChannels < 1 {
		return nil, fmt.Errorf("device %d has no input channels", deviceID)
	}
	return dev, nil
}

func (s *paStream) start() error {
	if err := s.st.Start(); err != nil {
		return fmt.Errorf("start stream: %w", err)
	}
	s.wg.Add(1)
	go s.loop()
	return nil
}

func (s *paStream) loop() {
	defer s.wg.Done()
	for {
		select {
		case <-s.done:
			return
		default:
		}

		if err := s.st.Read(); err != nil {
			select {
			case <-s.done:
			default:
				s.onError(err)
			}
			return
		}

		// Copy out: the stream reuses the read buffer.
		frame := make([]int16, len(s.in))
		copy(frame, s.in)
		s.onFrames(frame)
	}
}

func (s *paStream) stop() error {
	close(s.done)
	s.wg.Wait()
	return s.st.Stop()
}

func (s *paStream) close() error {
	err := s.st.Close()
	if terr := portaudio.Terminate(); err == nil {
		err = terr
	}
	return err
}
