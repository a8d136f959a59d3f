package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/ayumu-t/kikitori/recorder"
)

const defaultTranscriptionURL = "https://api.openai.com/v1/audio/transcriptions"

// API transcribes via an OpenAI-compatible transcription endpoint.
type API struct {
	apiKey  string
	baseURL string
	model   string
	http    *http.Client
}

// APIConfig holds configuration for the API engine.
type APIConfig struct {
	APIKey  string
	BaseURL string // optional, defaults to OpenAI's endpoint
	Model   string // optional, defaults to "whisper-1"
}

// NewAPI creates a new API engine.
func NewAPI(cfg APIConfig) *API {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultTranscriptionURL
	}

	model := cfg.Model
	if model == "" {
		model = "whisper-1"
	}

	return &API{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		model:   model,
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

func (a *API) Name() string { return "api" }
func (a *API) Local() bool  { return false }

// Transcribe sends the buffer as a WAV attachment to the transcription API.
// The quality tier is passed through as a prompt-less model hint only when
// the endpoint exposes multiple models.
func (a *API) Transcribe(ctx context.Context, audio recorder.Buffer, _ Model) (Result, error) {
	if a.apiKey == "" {
		return Result{}, fmt.Errorf("API key required")
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", "audio.wav")
	if err != nil {
		return Result{}, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(audio.WAV()); err != nil {
		return Result{}, fmt.Errorf("write audio data: %w", err)
	}

	if err := writer.WriteField("model", a.model); err != nil {
		return Result{}, fmt.Errorf("write model field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return Result{}, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL, &buf)
	if err != nil {
		return Result{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := a.http.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
	}

	var apiResp apiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return Result{}, fmt.Errorf("parse response: %w", err)
	}

	return Result{
		Text:       apiResp.Text,
		Language:   apiResp.Language,
		Confidence: 1.0, // API doesn't return confidence
	}, nil
}

// apiResponse represents the transcription API response.
type apiResponse struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}
