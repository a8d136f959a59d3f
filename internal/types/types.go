// Package types provides shared type definitions for the application.
package types

// SessionState is the lifecycle state of the single dictation session.
type SessionState string

const (
	StateIdle         SessionState = "idle"
	StateRecording    SessionState = "recording"
	StateTranscribing SessionState = "transcribing"
	StateReviewReady  SessionState = "review-ready"
	StateFailed       SessionState = "failed"
)

// Snapshot is an immutable view of the session published to observers.
// The controller is the only writer; observers never see partial transitions.
type Snapshot struct {
	SessionID  int64        `json:"sessionId"`
	State      SessionState `json:"state"`
	DeviceID   int          `json:"deviceId"`
	ModelID    string       `json:"modelId"`
	Transcript string       `json:"transcript"`
	Error      string       `json:"error,omitempty"`
	Duration   float64      `json:"duration"` // captured audio length in seconds
}

// DeviceDescriptor identifies an audio input device.
type DeviceDescriptor struct {
	ID          int    `json:"id"`
	DisplayName string `json:"displayName"`
}

// Modifier is a hotkey modifier key.
type Modifier string

const (
	ModControl Modifier = "control"
	ModShift   Modifier = "shift"
	ModAlt     Modifier = "alt"
	ModMeta    Modifier = "meta"
)

// HotKeyBinding is a global key+modifier combination. At most one binding
// is active at a time; re-registering replaces the prior one.
type HotKeyBinding struct {
	Key       string     `json:"key"`
	Modifiers []Modifier `json:"modifiers"`
}

// DefaultHotKey returns the default toggle binding, Control+Shift+V.
func DefaultHotKey() HotKeyBinding {
	return HotKeyBinding{
		Key:       "v",
		Modifiers: []Modifier{ModControl, ModShift},
	}
}

// DetectResult represents the result of transcript language detection.
type DetectResult struct {
	Code string `json:"code"`
	Name string `json:"name"`
}
