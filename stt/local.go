package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/google/uuid"

	"github.com/ayumu-t/kikitori/recorder"
)

// Local runs on-device inference by shelling out to a whisper.cpp style CLI
// on a temporary WAV file.
type Local struct {
	binPath string
}

// LocalConfig holds configuration for the Local engine.
type LocalConfig struct {
	BinPath string // path to the inference binary; looked up on PATH if empty
}

// NewLocal creates the local engine. The binary is resolved lazily when not
// found at construction, so a missing install is a per-inference error, not
// a startup failure.
func NewLocal(cfg LocalConfig) *Local {
	binPath := cfg.BinPath
	if binPath == "" {
		binPath = findInferenceBinary()
	}
	return &Local{binPath: binPath}
}

func (l *Local) Name() string { return "local" }
func (l *Local) Local() bool  { return true }

// Transcribe writes the buffer to a temp WAV file and runs the CLI on it.
func (l *Local) Transcribe(ctx context.Context, audio recorder.Buffer, model Model) (Result, error) {
	binPath := l.binPath
	if binPath == "" {
		binPath = findInferenceBinary()
	}
	if binPath == "" {
		return Result{}, fmt.Errorf("inference binary not found, install whisper.cpp")
	}

	audioPath := filepath.Join(os.TempDir(), fmt.Sprintf("kikitori_%s.wav", uuid.New().String()[:8]))
	if err := writeWAVFile(audioPath, audio); err != nil {
		return Result{}, fmt.Errorf("write audio file: %w", err)
	}
	defer os.Remove(audioPath)

	args := []string{
		"-m", model.Path,
		"-f", audioPath,
		"-oj", // JSON on stdout
		"--no-prints",
	}

	cmd := exec.CommandContext(ctx, binPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return Result{}, fmt.Errorf("inference failed: %w, stderr: %s", err, stderr.String())
	}

	return parseCLIOutput(stdout.Bytes())
}

// parseCLIOutput decodes the CLI's JSON output, falling back to plain text.
func parseCLIOutput(out []byte) (Result, error) {
	var decoded cliOutput
	if err := json.Unmarshal(out, &decoded); err != nil {
		return Result{Text: string(bytes.TrimSpace(out)), Confidence: 0.8}, nil
	}

	result := Result{
		Language:   decoded.Result.Language,
		Confidence: 0.9,
	}
	for _, seg := range decoded.Transcription {
		result.Text += seg.Text
	}
	return result, nil
}

// cliOutput represents the JSON output of the inference CLI.
type cliOutput struct {
	Result struct {
		Language string `json:"language"`
	} `json:"result"`
	Transcription []struct {
		Text string `json:"text"`
	} `json:"transcription"`
}

func writeWAVFile(path string, audio recorder.Buffer) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer f.Close()

	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: audio.SampleRate},
		Data:           make([]int, len(audio.Samples)),
		SourceBitDepth: 16,
	}
	for i, s := range audio.Samples {
		buf.Data[i] = int(s)
	}

	enc := wav.NewEncoder(f, audio.SampleRate, 16, 1, 1)
	if err := enc.Write(buf); err != nil {
		enc.Close()
		return fmt.Errorf("write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("close wav encoder: %w", err)
	}
	return nil
}

func findInferenceBinary() string {
	// whisper-cli is the Homebrew name.
	names := []string{"whisper-cli", "whisper-cpp", "whisper", "main"}

	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	homeDir, _ := os.UserHomeDir()
	locations := []string{
		"/opt/homebrew/bin",
		"/usr/local/bin",
		filepath.Join(homeDir, ".local", "bin"),
	}
	for _, loc := range locations {
		for _, name := range names {
			path := filepath.Join(loc, name)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}
