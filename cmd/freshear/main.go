// Command freshear is the live storefront menu: it subscribes to the
// tenant's product collection on the hosted document service and renders
// the menu in the terminal, regrouping on every change.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/helloservices00-blip/fresh-ear-client-ui/cmd/freshear/ui"
	"github.com/helloservices00-blip/fresh-ear-client-ui/internal/config"
	"github.com/helloservices00-blip/fresh-ear-client-ui/internal/store"
	"github.com/helloservices00-blip/fresh-ear-client-ui/internal/watch"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "freshear:", err)
		os.Exit(1)
	}
}

func run() error {
	appCfg, err := config.LoadApp()
	if err != nil {
		return err
	}

	// The terminal belongs to the UI; logs go to a file.
	lg, err := newLogger(appCfg.LogFile)
	if err != nil {
		return errors.Wrap(err, "open log")
	}
	defer func() { _ = lg.Sync() }()

	resolved := config.Resolve(appCfg.Connection, appCfg.AppID)
	if resolved.Fallback {
		lg.Warn("no valid connection configuration, using built-in fallback",
			zap.String("app_id", resolved.AppID))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	client, err := store.NewClient(resolved.Connection.Endpoint, resolved.Connection.APIKey, lg)
	if err != nil {
		// A bad endpoint still gets a screen: show the sticky error state
		// instead of dying before the UI exists.
		return runErrorScreen(resolved, errors.Wrap(err, "connect to document service"))
	}

	ctrl := watch.New(client, resolved, lg)
	go func() {
		if err := ctrl.Run(ctx); err != nil {
			lg.Error("watch pipeline stopped", zap.Error(err))
		}
	}()

	p := tea.NewProgram(ui.New(ctrl.Updates(), ctrl.SetCategory), tea.WithAltScreen())
	_, err = p.Run()
	return err
}

// runErrorScreen renders the error display state for failures that happen
// before the pipeline can start.
func runErrorScreen(resolved config.Resolved, cause error) error {
	updates := make(chan watch.Update, 1)
	updates <- watch.Update{
		Conn:     watch.ConnFailed,
		Err:      cause,
		Fallback: resolved.Fallback,
	}

	p := tea.NewProgram(ui.New(updates, nil), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func newLogger(path string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{path}
	return cfg.Build()
}
