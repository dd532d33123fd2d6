package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"minitodo/app"
	"minitodo/logging"
	"minitodo/render"
	"minitodo/store"
)

const defaultWatchDebounce = 150 * time.Millisecond

var errWatchBackend = errors.New("watch needs the file or sqlite backend")

func newWatchCmd(a *App) *cobra.Command {
	var (
		vf       viewFlags
		debounce time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print the list again whenever another process saves it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, dataDir, err := a.resolveConfig()
			if err != nil {
				return writeErr(cmd, err)
			}
			if cfg.Storage.Backend != store.BackendFile && cfg.Storage.Backend != store.BackendSQLite {
				return writeErr(cmd, fmt.Errorf("%w (have %s)", errWatchBackend, cfg.Storage.Backend))
			}
			path, err := filepath.Abs(cfg.StoragePath(dataDir))
			if err != nil {
				return writeErr(cmd, err)
			}
			logger := logging.New(cmd.ErrOrStderr(), cfg.Log.Level)

			slot, err := store.Open(cfg.Storage.Backend, path, logger)
			if err != nil {
				return writeErr(cmd, err)
			}
			adapter := store.New(slot, logger)
			defer adapter.Close()

			show := func() { showSnapshot(cmd.OutOrStdout(), adapter, vf, logger) }

			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return writeErr(cmd, err)
			}
			w, err := fsnotify.NewWatcher()
			if err != nil {
				return writeErr(cmd, fmt.Errorf("failed to create file watcher: %w", err))
			}
			defer w.Close()
			if err := w.Add(filepath.Dir(path)); err != nil {
				return writeErr(cmd, err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			show()
			logger.Info("watching", "path", path)
			return watchLoop(ctx, w, path, debounce, logger, show)
		},
	}

	vf.register(cmd)
	cmd.Flags().DurationVar(&debounce, "debounce", defaultWatchDebounce, "Quiet period before re-printing")
	return cmd
}

// showSnapshot prints the stored list without saving or moving anything.
func showSnapshot(out io.Writer, adapter *store.Adapter, vf viewFlags, logger *slog.Logger) {
	svc := app.NewService(adapter.Peek(), app.WithLogger(logger))
	if err := vf.apply(svc); err != nil {
		logger.Warn("bad view flags", "err", err)
	}
	fmt.Fprintln(out, headerStyle.Sprintf("── %s ──", time.Now().Format(time.Kitchen)))
	writeList(out, render.Render(svc.Visible()), svc.Counts())
}

// watchLoop calls onChange once per burst of events touching target.
func watchLoop(ctx context.Context, w *fsnotify.Watcher, target string, debounce time.Duration, logger *slog.Logger, onChange func()) error {
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !touches(event, target) {
				continue
			}
			logger.Debug("storage changed", "op", event.Op.String(), "file", event.Name)
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("file watcher error", "err", err)
		case <-fire:
			fire = nil
			onChange()
		}
	}
}

// touches reports whether event changes target or its SQLite write-ahead log.
func touches(event fsnotify.Event, target string) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	name := filepath.Clean(event.Name)
	return name == target || name == target+"-wal"
}
