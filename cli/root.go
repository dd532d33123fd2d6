// Package cli wires the command line and the interactive list to the shared service.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"minitodo/app"
	"minitodo/config"
	"minitodo/logging"
	"minitodo/store"
	"minitodo/tui"
)

type App struct {
	ConfigPath string
	Backend    string
	Path       string
	LogLevel   string
}

// session is one opened list: config resolved, slot loaded, service ready.
type session struct {
	cfg     config.Config
	dataDir string
	path    string
	adapter *store.Adapter
	svc     *app.Service
	logger  *slog.Logger
	logFile io.Closer
}

func (s *session) Close() error {
	err := s.adapter.Close()
	if s.logFile != nil {
		_ = s.logFile.Close()
	}
	return err
}

func (s *session) exportDir(override string) string {
	switch {
	case override != "":
		return override
	case s.cfg.Export.Dir != "":
		return s.cfg.Export.Dir
	default:
		return "."
	}
}

func NewRootCmd() *cobra.Command {
	a := &App{}

	cmd := &cobra.Command{
		Use:           "minitodo",
		Short:         "A minimal to-do list for the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: strings.TrimSpace(`
  # Start the interactive list
  minitodo

  # Scriptable commands
  minitodo add "buy milk"
  minitodo ls --filter active
  minitodo toggle 3f2a
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			return runTUI(cmd, a)
		},
	}

	cmd.PersistentFlags().StringVar(&a.ConfigPath, "config", envOr("MINITODO_CONFIG", ""), "Path to config.yaml (default: user config dir)")
	cmd.PersistentFlags().StringVar(&a.Backend, "backend", envOr("MINITODO_BACKEND", ""), "Storage backend (file|sqlite|badger|memory)")
	cmd.PersistentFlags().StringVar(&a.Path, "path", envOr("MINITODO_PATH", ""), "Storage file or directory")
	cmd.PersistentFlags().StringVar(&a.LogLevel, "log-level", envOr("MINITODO_LOG_LEVEL", ""), "Log level (debug|info|warn|error)")

	cmd.AddCommand(newAddCmd(a))
	cmd.AddCommand(newListCmd(a))
	cmd.AddCommand(newToggleCmd(a))
	cmd.AddCommand(newRemoveCmd(a))
	cmd.AddCommand(newEditCmd(a))
	cmd.AddCommand(newClearDoneCmd(a))
	cmd.AddCommand(newResetCmd(a))
	cmd.AddCommand(newExportCmd(a))
	cmd.AddCommand(newHTMLCmd(a))
	cmd.AddCommand(newWatchCmd(a))

	return cmd
}

func runTUI(cmd *cobra.Command, a *App) error {
	s, err := a.open(cmd, true)
	if err != nil {
		return writeErr(cmd, err)
	}
	defer s.Close()

	m := tui.NewModel(s.svc, s.exportDir(""), s.logger)
	if err := tui.Run(m); err != nil {
		return writeErr(cmd, err)
	}
	return nil
}

// resolveConfig applies flag and env overrides on top of the config file.
func (a *App) resolveConfig() (config.Config, string, error) {
	path := a.ConfigPath
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return config.Config{}, "", err
		}
		path = p
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, "", err
	}
	if a.Backend != "" {
		cfg.Storage.Backend = a.Backend
	}
	if a.Path != "" {
		cfg.Storage.Path = a.Path
	}
	if a.LogLevel != "" {
		cfg.Log.Level = a.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, "", fmt.Errorf("invalid settings: %w", err)
	}

	dataDir, err := config.DataDir()
	if err != nil {
		dataDir = "."
	}
	return cfg, dataDir, nil
}

// open loads the list. interactive sends logs to the log file instead of stderr so they
// do not tear the alternate screen.
func (a *App) open(cmd *cobra.Command, interactive bool) (*session, error) {
	cfg, dataDir, err := a.resolveConfig()
	if err != nil {
		return nil, err
	}

	s := &session{cfg: cfg, dataDir: dataDir, path: cfg.StoragePath(dataDir)}
	if interactive {
		logger, closer, err := logging.OpenFile(cfg.LogPath(dataDir), cfg.Log.Level)
		if err != nil {
			return nil, err
		}
		s.logger, s.logFile = logger, closer
	} else {
		s.logger = logging.New(cmd.ErrOrStderr(), cfg.Log.Level)
	}

	slot, err := store.Open(cfg.Storage.Backend, s.path, s.logger)
	if err != nil {
		if s.logFile != nil {
			_ = s.logFile.Close()
		}
		return nil, err
	}
	s.adapter = store.New(slot, s.logger)
	s.svc = app.NewService(s.adapter.Load(),
		app.WithPersister(s.adapter),
		app.WithLogger(s.logger),
	)
	s.logger.Debug("list opened", "backend", cfg.Storage.Backend, "path", s.path, "items", s.svc.Counts().Total)
	return s, nil
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), errorStyle.Sprint("Error: "+err.Error()))
	return err
}
