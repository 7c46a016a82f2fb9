package cli

import (
	"fmt"
	"io"
	"slices"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds command defaults read from the environment. Flags override
// every value.
type Config struct {
	Rules   string `env:"ROTA_RULES"`
	Format  string `env:"ROTA_FORMAT"  envDefault:"text"`
	Journal string `env:"ROTA_JOURNAL"`
	Workers int    `env:"ROTA_WORKERS"`
	Verbose bool   `env:"ROTA_VERBOSE"`
}

// LoadConfig parses the ROTA_* environment variables.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Journal string // optional run journal (SQLite)

	// Env holds the environment defaults subcommands seed their flags
	// from.
	Env Config

	// Logger receives diagnostics. Built in PersistentPreRunE when nil.
	Logger *zap.Logger
}

// logger returns the configured logger, or a no-op logger for commands
// constructed without the root command.
func (o *RootOptions) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the rota CLI.
func NewRootCommand() *cobra.Command {
	cfg, envErr := LoadConfig()
	opts := &RootOptions{Env: cfg}

	cmd := &cobra.Command{
		Use:   "rota",
		Short: "rota - shift rotation rule checker",
		Long: `Check shift schedules against position rotation rules.

A rules document limits how many consecutive slots one person may hold a
position (or any of a group of interchangeable positions), optionally only
within a time window, and can require runs to start on the hour. rota
compiles the document and validates solver schedules against it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if envErr != nil {
				return WrapExitError(ExitCommandError, "invalid environment", envErr)
			}
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if opts.Logger == nil {
				opts.Logger = newLogger(cmd.ErrOrStderr(), opts.Verbose)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.Logger != nil {
				_ = opts.Logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", cfg.Verbose, "verbose output (debug logging)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", cfg.Format, "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Journal, "journal", cfg.Journal, "path to the SQLite run journal")

	cmd.AddCommand(NewRulesCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))

	return cmd
}

// newLogger builds a production JSON logger on w. Verbose lowers the level
// to debug.
func newLogger(w io.Writer, verbose bool) *zap.Logger {
	config := zap.NewProductionConfig()
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(config.EncoderConfig),
		zapcore.AddSync(w),
		config.Level,
	)
	return zap.New(core)
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
