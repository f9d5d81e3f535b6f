package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/juev/ledger-api/internal/buildinfo"
	"github.com/juev/ledger-api/internal/config"
	"github.com/juev/ledger-api/internal/journal"
	"github.com/juev/ledger-api/internal/logging"
)

type globalOptions struct {
	file      string
	logLevel  string
	logFormat string
}

// NewRootCommand creates the root CLI command. Run without a subcommand it
// behaves like "serve".
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}
	serve := &serveOptions{global: opts}

	rootCmd := &cobra.Command{
		Use:     "ledger-api [journal]",
		Short:   "Read-only HTTP API over a ledger journal",
		Version: buildinfo.String(),
		Args:    cobra.MaximumNArgs(1),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve.run(cmd, args)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.file, "file", "f", "", "journal file (default: $LEDGER_FILE, $HLEDGER_JOURNAL or "+config.DefaultJournalPath+")")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error (default: $LOG_LEVEL or info)")
	flags.StringVar(&opts.logFormat, "log-format", "", "log format: json or console (default: $LOG_FORMAT or json)")

	rootCmd.AddCommand(newServeCommand(serve))
	rootCmd.AddCommand(newBalanceCommand(opts))

	return rootCmd
}

// config merges environment configuration with command line overrides. A
// positional argument names the journal when --file is not given.
func (o *globalOptions) config(args []string) (*config.Config, error) {
	cfg := config.Load()

	path := o.file
	if path == "" && len(args) > 0 {
		path = args[0]
	}
	if path != "" {
		cfg.JournalPath = config.JournalPath(path)
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if o.logFormat != "" {
		cfg.LogFormat = o.logFormat
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadJournal(cfg *config.Config, logger *zap.Logger) (*journal.Journal, error) {
	j, err := journal.Load(cfg.JournalPath, cfg.Limits)
	if err != nil {
		return nil, fmt.Errorf("loading journal: %w", err)
	}

	logger.Info("journal loaded",
		zap.String("path", j.Path()),
		zap.Int("files", len(j.Files())),
		zap.Int("transactions", j.Transactions()),
		zap.Int("postings", j.PostingCount()),
		zap.Int("accounts", j.AccountCount()))

	return j, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	return logger, nil
}
