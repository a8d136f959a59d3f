// Package stt provides speech-to-text engine interface and implementations.
package stt

import (
	"context"
	"fmt"

	"github.com/ayumu-t/kikitori/recorder"
)

// Result represents the result of a transcription.
type Result struct {
	Text       string  `json:"text"`
	Language   string  `json:"language"`
	Confidence float64 `json:"confidence"`
}

// Model identifies a transcription configuration. Path is set for local
// engines only.
type Model struct {
	ID   string
	Path string
}

// Engine defines the interface for speech-to-text backends. Implementations
// are synchronous; the session controller runs them on its own task.
type Engine interface {
	// Name returns the engine identifier.
	Name() string

	// Local reports whether the engine runs on-device and needs a model file.
	Local() bool

	// Transcribe converts a finalized capture buffer to text.
	Transcribe(ctx context.Context, audio recorder.Buffer, model Model) (Result, error)
}

// minSeconds is the shortest capture worth transcribing. Anything below
// yields an empty transcript without invoking the engine.
const minSeconds = 0.3

// Service fronts an Engine with the contract guarantees: empty or sub-minimum
// input short-circuits to an empty transcript, and model ids are resolved
// against the catalog before the engine is invoked.
type Service struct {
	engine  Engine
	catalog *Catalog
}

// NewService creates a transcription service.
func NewService(engine Engine, catalog *Catalog) *Service {
	return &Service{engine: engine, catalog: catalog}
}

// Transcribe runs one inference. May take seconds; honors ctx cancellation
// where the engine does.
func (s *Service) Transcribe(ctx context.Context, audio recorder.Buffer, modelID string) (Result, error) {
	if audio.Empty() || audio.Seconds() < minSeconds {
		return Result{}, nil
	}

	model := Model{ID: modelID}
	if s.engine.Local() {
		resolved, err := s.catalog.Resolve(modelID)
		if err != nil {
			return Result{}, fmt.Errorf("resolve model %q: %w", modelID, err)
		}
		model = resolved
	}

	result, err := s.engine.Transcribe(ctx, audio, model)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", s.engine.Name(), err)
	}
	return result, nil
}
