package main

import (
	"embed"
	"log/slog"

	"github.com/wailsapp/wails/v3/pkg/application"
	"github.com/wailsapp/wails/v3/pkg/events"

	"github.com/ayumu-t/kikitori/internal/app"
)

//go:embed all:frontend/dist
var assets embed.FS

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	slog.Info("starting app", "version", version, "commit", commit, "date", date)
	appService := app.New(version)

	wailsApp := application.New(application.Options{
		Name:        "Kikitori",
		Description: "Voice dictation for any application",
		Services: []application.Service{
			application.NewService(appService),
		},
		Assets: application.AssetOptions{
			Handler: application.BundledAssetFileServer(assets),
		},
		Mac: application.MacOptions{
			// Don't quit when all windows are closed (we have a system tray)
			ApplicationShouldTerminateAfterLastWindowClosed: false,
		},
	})

	// Create main window
	mainWindow := wailsApp.Window.NewWithOptions(application.WebviewWindowOptions{
		Title:  "Kikitori",
		Width:  720,
		Height: 480,
		URL:    "/",
		Mac: application.MacWindow{
			TitleBar:                application.MacTitleBarHiddenInsetUnified,
			InvisibleTitleBarHeight: 38,
		},
		DevToolsEnabled: true,
	})

	// Intercept window close: hide instead of destroy so tray can reopen
	mainWindow.RegisterHook(events.Common.WindowClosing, func(e *application.WindowEvent) {
		e.Cancel() // Prevent actual close
		mainWindow.Hide()
	})

	// Initialize service with app and window references
	appService.Init(wailsApp, mainWindow)

	// Setup system tray
	systemTray := wailsApp.SystemTray.New()
	systemTray.SetLabel("Kikitori")

	trayMenu := wailsApp.NewMenu()
	trayMenu.Add("Show Window").OnClick(func(ctx *application.Context) {
		appService.ShowWindow()
	})
	trayMenu.Add("Toggle Recording").OnClick(func(ctx *application.Context) {
		appService.ToggleRecording()
	})

	trayMenu.AddSeparator()
	trayMenu.Add("Quit").
		SetAccelerator("CmdOrCtrl+Q").
		OnClick(func(ctx *application.Context) {
			appService.Shutdown()
			wailsApp.Quit()
		})

	systemTray.SetMenu(trayMenu)

	if err := wailsApp.Run(); err != nil {
		slog.Error("run app", "error", err)
	}
}
