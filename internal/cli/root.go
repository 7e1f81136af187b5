package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"trade-journal/internal/api"
	"trade-journal/internal/config"
	apperrors "trade-journal/internal/errors"
	"trade-journal/internal/logging"
	"trade-journal/internal/models"
	"trade-journal/internal/store"
)

// Version information
const (
	Version   = "0.3.0"
	BuildDate = "2026-10-01"
)

// commandTimeout bounds a single command's backend work.
const commandTimeout = 30 * time.Second

// App holds the application dependencies.
type App struct {
	Config   *config.Config
	Logger   zerolog.Logger
	API      *api.Client
	Store    store.DataStore
	Location *time.Location
	Now      func() time.Time
}

// NewApp wires the backend client and the local cache for cfg. The saved
// session, if any, is loaded into the client's cookie jar.
func NewApp(cfg *config.Config, logger zerolog.Logger) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %v", apperrors.ErrConfigInvalid, cfg.Journal.Timezone, err)
	}

	client, err := api.NewClient(api.Config{
		BaseURL:    cfg.API.BaseURL,
		CSRFPath:   cfg.API.CSRFPath,
		CSRFCookie: cfg.API.CSRFCookie,
		CSRFHeader: cfg.API.CSRFHeader,
		Timeout:    cfg.API.Timeout,
	}, api.WithLocation(loc), api.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:   cfg,
		Logger:   logger,
		API:      client,
		Location: loc,
		Now:      time.Now,
	}

	dataStore, err := store.NewSQLiteStore(cfg.DatabasePath())
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize store, offline views unavailable")
		return app, nil
	}
	app.Store = dataStore
	logger.Debug().Str("path", cfg.DatabasePath()).Msg("SQLite store initialized")

	cookies, err := dataStore.LoadSession(context.Background())
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to restore session")
	} else if len(cookies) > 0 {
		client.SetCookies(cookies)
		logger.Debug().Int("cookies", len(cookies)).Msg("Session restored")
	}
	return app, nil
}

// Close releases the local cache.
func (app *App) Close() error {
	if app.Store == nil {
		return nil
	}
	return app.Store.Close()
}

// NewRootCmd creates the root command for the CLI around a wired App.
func NewRootCmd(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tradejournal",
		Short: "Trading journal - calendar, heatmap and daily reflections",
		Long: `tradejournal keeps a daily trading journal next to your trades.

It syncs trades and journal entries from your journal server, caches them
locally, and renders a month calendar, a weekly P&L heatmap and reports.

Use 'tradejournal login' to sign in and 'tradejournal sync' to fetch data.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/trade-journal)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	addCoreCommands(rootCmd, app)
	addAuthCommands(rootCmd, app)
	addDataCommands(rootCmd, app)
	addViewCommands(rootCmd, app)
	addJournalCommands(rootCmd, app)
	addReportCommands(rootCmd, app)
	addHelpCommands(rootCmd, app)

	return rootCmd
}

// output returns an Output styled with the configured UI settings and the
// locally chosen theme.
func (app *App) output(cmd *cobra.Command) *Output {
	out := NewOutput(cmd).
		WithColor(app.Config.UI.ColorEnabled).
		WithCurrency(app.Config.UI.CurrencySymbol)
	if app.Store != nil {
		if theme, ok, err := app.Store.GetPreference(cmd.Context(), store.PrefTheme); err == nil && ok {
			out.WithTheme(theme)
		}
	}
	return out
}

// commandContext returns a context that ends on timeout or Ctrl-C.
func (app *App) commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt)
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	ctx = logging.WithLogger(ctx, logging.WithOperation(app.Logger, cmd.CommandPath()))
	return ctx, func() {
		cancel()
		stop()
	}
}

func (app *App) now() time.Time {
	return app.Now().In(app.Location)
}

func (app *App) today() models.DateKey {
	return models.Today(app.Now(), app.Location)
}

func (app *App) requireStore() error {
	if app.Store == nil {
		return apperrors.Wrap(apperrors.ErrDataNotFound, "local cache unavailable")
	}
	return nil
}

// persistSession saves the client's cookies so the next invocation stays
// signed in.
func (app *App) persistSession(ctx context.Context) {
	if app.Store == nil {
		return
	}
	if err := app.Store.SaveSession(ctx, app.API.Cookies()); err != nil {
		app.Logger.Warn().Err(err).Msg("Failed to save session")
	}
}

// ErrorHint suggests a next step for errors a user can act on.
func ErrorHint(err error) string {
	switch {
	case apperrors.Is(err, apperrors.ErrNotAuthenticated):
		return "Run `tradejournal login` to sign in."
	case apperrors.Is(err, apperrors.ErrEmailNotVerified):
		return "Open the verification link sent to your email, then try again."
	case apperrors.Is(err, apperrors.ErrCSRFMismatch):
		return "The session token expired. Run the command again."
	case apperrors.Is(err, apperrors.ErrConnectionFailed):
		return "Check api.base_url with `tradejournal config show`."
	case apperrors.Is(err, apperrors.ErrConfigInvalid):
		return "Fix the file reported by `tradejournal config path`."
	case apperrors.Is(err, apperrors.ErrDatabaseError):
		return "Remove journal.db from `tradejournal config path`, then run `tradejournal sync`."
	}
	return ""
}

func addCoreCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			} else {
				output.Printf("tradejournal v%s\n", Version)
				output.Dim("Build date: %s", BuildDate)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and validate application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := app.output(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": app.Config.Dir})
			} else {
				output.Println(app.Config.Dir)
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]bool{"valid": true})
			}
			output.Success("✓ Configuration is valid")
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) {
	output.Bold("Server")
	output.Printf("  Base URL:        %s\n", cfg.API.BaseURL)
	output.Printf("  CSRF path:       %s\n", cfg.API.CSRFPath)
	output.Printf("  Timeout:         %s\n", cfg.API.Timeout)
	output.Println()

	output.Bold("Journal")
	output.Printf("  Timezone:        %s\n", cfg.Journal.Timezone)
	output.Printf("  Heatmap weeks:   %d\n", cfg.Journal.HeatmapWeeks)
	output.Println()

	output.Bold("Display")
	output.Printf("  Color:           %v\n", cfg.UI.ColorEnabled)
	output.Printf("  Date format:     %s\n", cfg.UI.DateFormat)
	output.Printf("  Currency:        %s\n", cfg.UI.CurrencySymbol)
	output.Println()

	output.Bold("Logging")
	output.Printf("  Level:           %s\n", cfg.Logging.Level)
	output.Printf("  File:            %v\n", cfg.Logging.File)
	output.Println()

	output.Dim("Cache: %s", cfg.DatabasePath())
}
