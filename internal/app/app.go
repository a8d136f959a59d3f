// Package app provides the core application service for Wails bindings.
package app

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gen2brain/beeep"
	"github.com/wailsapp/wails/v3/pkg/application"

	"github.com/ayumu-t/kikitori/config"
	"github.com/ayumu-t/kikitori/devices"
	"github.com/ayumu-t/kikitori/history"
	"github.com/ayumu-t/kikitori/hotkey"
	"github.com/ayumu-t/kikitori/injector"
	"github.com/ayumu-t/kikitori/internal/types"
	"github.com/ayumu-t/kikitori/langdetect"
	"github.com/ayumu-t/kikitori/recorder"
	"github.com/ayumu-t/kikitori/session"
	"github.com/ayumu-t/kikitori/stt"
)

// Service provides application functionality bound to Wails.
// This struct focuses on orchestration; the session state machine and the
// capture, inference and injection components own the business logic.
type Service struct {
	cfg        *config.Config
	controller *session.Controller
	catalog    *devices.Catalog
	models     *stt.Catalog
	hotkey     *hotkey.Manager
	store      *history.Store
	detector   *langdetect.Detector

	// UI references - set via Init
	app    *application.App
	window application.Window

	done chan struct{}

	// Version info (set by caller)
	version string
}

// Settings is the user-facing configuration snapshot.
type Settings struct {
	Microphone  int                 `json:"microphone"`
	Hotkey      types.HotKeyBinding `json:"hotkey"`
	Model       string              `json:"model"`
	FocusFollow bool                `json:"focusFollow"`
	ModelDir    string              `json:"modelDir"`
}

// New creates a new Service. Call Init() after the Wails app is created.
func New(version string) *Service {
	return &Service{version: version, done: make(chan struct{})}
}

// GetVersion returns the application version.
func (s *Service) GetVersion() string {
	return s.version
}

// Init initializes the service with app and window references.
// Must be called after the Wails application is created.
func (s *Service) Init(app *application.App, window application.Window) {
	s.app = app
	s.window = window

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		cfg = &config.Config{}
	}
	s.cfg = cfg

	s.catalog = devices.NewCatalog()
	s.models = stt.NewCatalog(cfg.ModelsDir())
	s.detector = langdetect.New()

	s.setupHistory()
	s.setupController()
	s.setupHotkey()
}

// Shutdown cleans up resources.
func (s *Service) Shutdown() {
	close(s.done)
	if s.hotkey != nil {
		s.hotkey.Stop()
	}
	if s.controller != nil {
		if s.controller.Snapshot().State == types.StateRecording {
			if err := s.controller.RequestStop(); err != nil {
				slog.Error("stop recording on shutdown", "error", err)
			}
		}
		s.controller.Close()
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			slog.Error("close history store", "error", err)
		}
	}
}

func (s *Service) setupHistory() {
	configDir, err := os.UserConfigDir()
	if err != nil {
		slog.Error("get config dir for history", "error", err)
		return
	}

	historyPath := filepath.Join(configDir, "kikitori", "history")
	store, err := history.Open(historyPath)
	if err != nil {
		slog.Error("open history store", "error", err)
		return
	}
	s.store = store
	slog.Info("history store opened", "path", historyPath)
}

func (s *Service) setupController() {
	engine := s.buildEngine()
	service := stt.NewService(engine, s.models)
	slog.Info("transcription engine ready", "engine", engine.Name(), "local", engine.Local())

	s.controller = session.New(recorder.New(), service, injector.New())
	s.controller.SetDefaults(s.cfg.Microphone, s.cfg.Model)

	go s.pumpSnapshots(s.controller.Subscribe())
}

// buildEngine selects the transcription backend: remote when an API key is
// configured, on-device otherwise.
func (s *Service) buildEngine() stt.Engine {
	if s.cfg.APIKey != "" {
		return stt.NewAPI(stt.APIConfig{APIKey: s.cfg.APIKey, BaseURL: s.cfg.BaseURL})
	}
	return stt.NewLocal(stt.LocalConfig{})
}

func (s *Service) setupHotkey() {
	s.hotkey = hotkey.NewManager()
	if !s.hotkey.Rebind(s.cfg.Hotkey) {
		slog.Error("register hotkey", "binding", s.cfg.Hotkey)
	}

	go func() {
		for {
			select {
			case <-s.done:
				return
			case <-s.hotkey.Activations():
				s.controller.OnHotkeyActivated()
			case err := <-s.hotkey.Errors():
				slog.Error("hotkey", "error", err)
				s.emit(EventHotkeyError, err.Error())
			}
		}
	}()
}

// pumpSnapshots forwards every session transition to the frontend and
// raises desktop notifications at the milestones a user waits on.
func (s *Service) pumpSnapshots(sub <-chan types.Snapshot) {
	for snap := range sub {
		s.emit(EventSessionState, snap)

		switch snap.State {
		case types.StateReviewReady:
			s.notify("Transcript ready", "Review and submit your dictation")
			if s.cfg.FocusFollow {
				s.showWindow()
			}
		case types.StateFailed:
			s.notify("Dictation failed", snap.Error)
		}
	}
}

func (s *Service) emit(name string, data any) {
	if s.app != nil {
		s.app.Event.Emit(name, data)
	}
}

func (s *Service) notify(title, body string) {
	if err := beeep.Notify(title, body, ""); err != nil {
		slog.Warn("desktop notification", "error", err)
	}
}

func (s *Service) showWindow() {
	if s.window != nil {
		s.window.Show()
		s.window.Focus()
	}
}

// ShowWindow brings the main window to front.
func (s *Service) ShowWindow() {
	s.showWindow()
}

// GetState returns the current session snapshot.
func (s *Service) GetState() types.Snapshot {
	return s.controller.Snapshot()
}

// StartRecording begins a dictation session with the configured device and
// model.
func (s *Service) StartRecording() error {
	return s.controller.RequestStart(s.cfg.Microphone, s.cfg.Model)
}

// StopRecording finalizes the capture and starts transcription.
func (s *Service) StopRecording() error {
	return s.controller.RequestStop()
}

// ToggleRecording behaves exactly like a hotkey press.
func (s *Service) ToggleRecording() {
	s.controller.OnHotkeyActivated()
}

// SubmitTranscript injects the (possibly edited) transcript into the focused
// application and records it in history.
func (s *Service) SubmitTranscript(text string) error {
	snap := s.controller.Snapshot()
	if err := s.controller.Submit(text); err != nil {
		return err
	}
	s.appendHistory(text, snap)
	return nil
}

// ClearTranscript discards the pending transcript.
func (s *Service) ClearTranscript() error {
	return s.controller.Clear()
}

// AcknowledgeError dismisses a failure and returns to idle.
func (s *Service) AcknowledgeError() {
	s.controller.Acknowledge()
}

func (s *Service) appendHistory(text string, snap types.Snapshot) {
	if s.store == nil || text == "" {
		return
	}
	detected := s.detector.Detect(text)
	_, err := s.store.Append(history.Entry{
		Text:     text,
		ModelID:  snap.ModelID,
		Language: detected.Code,
		Duration: snap.Duration,
	})
	if err != nil {
		slog.Warn("append history", "error", err)
	}
}

// GetHistory returns recent dictations, newest first.
func (s *Service) GetHistory(limit int) ([]history.Entry, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.Recent(limit)
}

// DeleteHistoryEntry removes one history entry.
func (s *Service) DeleteHistoryEntry(id string) error {
	if s.store == nil {
		return nil
	}
	return s.store.Delete(id)
}

// DetectLanguage classifies transcript text.
func (s *Service) DetectLanguage(text string) types.DetectResult {
	return s.detector.Detect(text)
}

// ListDevices enumerates the available capture devices.
func (s *Service) ListDevices() ([]types.DeviceDescriptor, error) {
	return s.catalog.List()
}

// ListModels returns the model tiers present in the model directory.
func (s *Service) ListModels() ([]string, error) {
	return s.models.List()
}

// GetSettings returns the current settings.
func (s *Service) GetSettings() Settings {
	return Settings{
		Microphone:  s.cfg.Microphone,
		Hotkey:      s.cfg.Hotkey,
		Model:       s.cfg.Model,
		FocusFollow: s.cfg.FocusFollow,
		ModelDir:    s.cfg.ModelsDir(),
	}
}

// SetMicrophone selects the capture device. Takes effect on the next session.
func (s *Service) SetMicrophone(id int) error {
	if err := s.cfg.SetMicrophone(id); err != nil {
		return err
	}
	s.controller.SetDefaults(s.cfg.Microphone, s.cfg.Model)
	return nil
}

// SetModel selects the transcription model. Takes effect on the next session.
func (s *Service) SetModel(id string) error {
	if err := s.cfg.SetModel(id); err != nil {
		return err
	}
	s.controller.SetDefaults(s.cfg.Microphone, s.cfg.Model)
	return nil
}

// SetHotkey replaces the global toggle binding. On a registration conflict
// the previous binding stays active and the conflict is returned.
func (s *Service) SetHotkey(b types.HotKeyBinding) error {
	if !s.hotkey.Rebind(b) {
		return fmt.Errorf("%w: %v", hotkey.ErrConflict, b)
	}
	return s.cfg.SetHotkey(b)
}

// SetFocusFollow toggles bringing the window to front when a transcript is
// ready.
func (s *Service) SetFocusFollow(v bool) error {
	return s.cfg.SetFocusFollow(v)
}
