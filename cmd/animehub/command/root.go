package command

// root.go defines the root command and the application lifecycle shared by
// every subcommand: load config, open storage, restore state, and close it
// all again when the command finishes.

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"animehub/internal/apperr"
	"animehub/internal/app"
	"animehub/internal/config"
	"animehub/internal/logging"
)

// cli carries the running App from PersistentPreRunE to the subcommands.
type cli struct {
	logLevel string
	app      *app.App
	logger   *zap.Logger
}

// NewRootCmd builds the animehub command tree. The returned func closes the
// App and must be called once Execute returns, since cobra skips
// PersistentPostRunE when a command fails.
func NewRootCmd() (*cobra.Command, func()) {
	c := &cli{}
	return c.rootCmd(), c.stop
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "animehub",
		Short: "animehub - browse trending anime and keep your lists",
		Long: `animehub browses trending anime from AniList and keeps three personal
lists (favorites, watching, completed) on this device.

The session is kept in the OS keyring; lists are kept in a local SQLite
database by default. Use "animehub serve" to expose the same state to a UI
shell over HTTP.`,
		SilenceUsage:       true,
		PersistentPreRunE:  c.start,
		PersistentPostRunE: func(*cobra.Command, []string) error {
			c.stop()
			return nil
		},
	}
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "override LOG_LEVEL (debug, info, warn, error)")

	root.AddCommand(
		newServeCmd(c),
		newTrendingCmd(c),
		newSearchCmd(c),
		newBrowseCmd(c),
		newAuthCmd(c),
		newListCmd(c),
		newMoveCmd(c, "watch", "Move an anime to your watching list"),
		newMoveCmd(c, "complete", "Move an anime to your completed list"),
		newFavCmd(c),
		newStatsCmd(c),
	)
	return root
}

func (c *cli) start(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	if c.logLevel != "" {
		cfg.LogLevel = c.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	c.logger = logger

	ctx := cmd.Context()
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	c.app = a
	a.Restore(ctx)
	return nil
}

// stop flushes pending writes and closes storage. Calling it again is a
// no-op.
func (c *cli) stop() {
	if c.app == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.app.Config.ShutdownTimeout)
	defer cancel()
	if err := c.app.Close(ctx); err != nil {
		c.logger.Error("shutdown_failed", zap.Error(err))
	}
	c.app = nil
	_ = c.logger.Sync()
}

// requireAuth mirrors the app-screen gate: list commands need a session.
func (c *cli) requireAuth() error {
	if !c.app.Store.IsAuthenticated() {
		return fmt.Errorf("%w: run \"animehub auth login\" first", apperr.ErrNotAuthenticated)
	}
	return nil
}

// userError turns an auth failure into the message a form would show.
func userError(err error) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return errors.New(appErr.Message)
	}
	return err
}
