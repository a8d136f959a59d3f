// Package devices enumerates audio input devices.
package devices

import (
	"fmt"

	"github.com/gordonklaus/portaudio"

	"github.com/ayumu-t/kikitori/internal/types"
)

// Catalog lists available input devices with stable integer ids. Ids match
// the PortAudio device index used by the recorder.
type Catalog struct {
	enumerate func() ([]types.DeviceDescriptor, error)
}

// NewCatalog creates a Catalog backed by the system audio API.
func NewCatalog() *Catalog {
	return &Catalog{enumerate: enumeratePortAudio}
}

// List returns a snapshot of the input devices currently available.
func (c *Catalog) List() ([]types.DeviceDescriptor, error) {
	return c.enumerate()
}

// Name returns the display name for a device id, or a fallback when the id
// is unknown (unplugged device, default selection).
func (c *Catalog) Name(id int) string {
	list, err := c.enumerate()
	if err != nil {
		return "Default Device"
	}
	for _, d := range list {
		if d.ID == id {
			return d.DisplayName
		}
	}
	return "Default Device"
}

func enumeratePortAudio() ([]types.DeviceDescriptor, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("init portaudio: %w", err)
	}
	defer portaudio.Terminate()

	devs, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerate devices: %w", err)
	}

	var list []types.DeviceDescriptor
	for i, d := range devs {
		if d.MaxInputChannels < 1 {
			continue
		}
		list = append(list, types.DeviceDescriptor{ID: i, DisplayName: d.Name})
	}
	return list, nil
}
