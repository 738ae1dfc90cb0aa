package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/stamper/internal/config"
	"github.com/jackzampolin/stamper/internal/home"
	"github.com/jackzampolin/stamper/internal/report"
	"github.com/jackzampolin/stamper/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
	logLevel     string
)

var rootCmd = &cobra.Command{
	Use:   "stamper",
	Short: "Stamp voucher numbers onto invoice PDFs",
	Long: `Stamper annotates invoice PDFs with voucher numbers.

A manifest (xlsx, csv or json) lists, per invoice, the source PDF file,
the invoice number and the voucher number. For every row the first page
of the source PDF is stamped with "Voucher Num: {voucher}" in a box near
the top-left corner and the result is written to {dest}/{invoice}.pdf.

Typical workflow:
  stamper manifest generate ./invoices       # writes ./invoices/pdf_list.xlsx
  # fill in the Voucher Num column
  stamper process --source ./invoices --dest ./stamped`,
	Version:      version.GitRelease,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.stamper/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "stamper home directory (default: ~/.stamper)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)
	rootCmd.PersistentFlags().StringVar(
		&logLevel, "log-level", "", "log level: debug, info, warn or error (overrides log.level)",
	)

	rootCmd.AddCommand(versionCmd)
}

// env is the per-invocation state shared by commands.
type env struct {
	home   *home.Dir
	cfg    *config.Manager
	logger *slog.Logger
	format report.Format
}

// setup resolves the home directory, loads configuration and builds the
// logger. Flags win over config values.
func setup(cmd *cobra.Command) (*env, error) {
	format, err := report.ParseFormat(outputFormat)
	if err != nil {
		return nil, err
	}

	h, err := home.New(homeDir)
	if err != nil {
		return nil, err
	}

	file := cfgFile
	if file == "" && h.ConfigExists() {
		file = h.ConfigPath()
	}
	mgr, err := config.NewManager(file)
	if err != nil {
		return nil, err
	}
	cfg := mgr.Get()

	levelName := cfg.Log.Level
	if cmd.Flags().Changed("log-level") {
		levelName = logLevel
	}
	level, err := config.ParseLevel(levelName)
	if err != nil {
		return nil, err
	}

	logger := newLogger(cmd, cfg.Log.Format, level)
	slog.SetDefault(logger)
	mgr.SetLogger(logger)

	if used := mgr.ConfigFile(); used != "" {
		logger.Debug("loaded config", "file", used)
	}

	return &env{home: h, cfg: mgr, logger: logger, format: format}, nil
}

// newLogger writes to stderr so stdout stays parseable.
func newLogger(cmd *cobra.Command, format string, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), opts))
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), opts))
}

// output writes data to stdout in the selected format.
func (e *env) output(cmd *cobra.Command, data any) error {
	if err := report.OutputTo(cmd.OutOrStdout(), e.format, data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
