package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/trf/internal/config"
	"github.com/sandeepkv93/trf/internal/logging"
	"github.com/sandeepkv93/trf/internal/manager"
	"github.com/sandeepkv93/trf/internal/storage"
)

type rootOptions struct {
	Home     string
	LogLevel string
	Restore  bool
	Storage  string
}

func New() *cobra.Command {
	o := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "trf [home]",
		Short: "Track recurring events and forecast when they are due next.",
		Long: `trf records completions of recurring events and forecasts the next one
from the intervals between them. Without a subcommand it opens the
interactive listing.`,
		Example: `
trf
trf ~/trackers --log-level debug
trf add "water plants, 2026-02-01 08:00, 7d"
trf list --sort latest
`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 && o.Home == "" {
				o.Home = args[0]
			}
			return runTUI(cmd, o)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&o.Home, "home", "", "Data directory (default $TRFHOME or the working directory).")
	flags.StringVar(&o.LogLevel, "log-level", "", "Log level: debug, info, warn, error or 10/20/30/40.")
	flags.BoolVar(&o.Restore, "restore", false, "Reset settings to their defaults before starting.")
	flags.StringVar(&o.Storage, "storage", "", "Storage backend: sqlite or diskv.")

	addList(cmd, o)
	addAdd(cmd, o)
	addComplete(cmd, o)
	return cmd
}

// session is the opened runtime shared by every subcommand.
type session struct {
	cfg     config.RuntimeConfig
	log     *slog.Logger
	mgr     *manager.Manager
	logFile io.Closer
	// loadErr is set when the store could not be read. The manager then
	// starts empty and refuses every write.
	loadErr error
}

func openSession(ctx context.Context, cmd *cobra.Command, o *rootOptions) (*session, error) {
	home, err := config.ResolveHome(o.Home)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(home)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = o.LogLevel
	}
	if flags.Changed("storage") {
		cfg.StorageDriver = o.Storage
	}
	cfg.Restore = o.Restore

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.Home, 0o755); err != nil {
		return nil, fmt.Errorf("create home: %w", err)
	}
	logger, logFile, err := logging.Open(cfg.LogPath(), level)
	if err != nil {
		return nil, err
	}

	store, err := storage.Open(cfg.StorageDriver, cfg.DatabasePath())
	if err != nil {
		_ = logFile.Close()
		return nil, err
	}
	logger.Info("session starting", "home", cfg.Home, "storage", cfg.StorageDriver)

	s := &session{cfg: cfg, log: logger, logFile: logFile}
	s.mgr = manager.New(store, manager.WithLogger(logger))
	s.loadErr = s.mgr.Load(ctx)
	if cfg.Restore && s.loadErr != nil {
		logger.Warn("restore skipped, store not loaded", "error", s.loadErr)
	} else if cfg.Restore {
		if err := s.mgr.RestoreDefaults(ctx); err != nil {
			s.Close()
			return nil, err
		}
	}
	return s, nil
}

func (s *session) Close() {
	if err := s.mgr.Close(); err != nil {
		s.log.Error("close store failed", "error", err)
	}
	_ = s.logFile.Close()
}
