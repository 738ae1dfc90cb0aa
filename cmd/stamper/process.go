package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/stamper/internal/batch"
	"github.com/jackzampolin/stamper/internal/manifest"
	"github.com/jackzampolin/stamper/internal/pdfdoc"
	"github.com/jackzampolin/stamper/internal/report"
)

// batchFlags are shared by process and watch.
type batchFlags struct {
	source    string
	dest      string
	manifest  string
	collision string
}

func (f *batchFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.source, "source", "", "folder holding the source PDFs (required)")
	cmd.Flags().StringVar(&f.dest, "dest", "", "folder receiving the stamped PDFs (required)")
	cmd.Flags().StringVar(&f.manifest, "manifest", "", "manifest file (default: {source}/{manifest.file_name})")
	cmd.Flags().StringVar(&f.collision, "collision", "", "duplicate output names: overwrite, skip or fail (overrides output.collision)")
	cmd.MarkFlagRequired("source")
	cmd.MarkFlagRequired("dest")
}

// manifestPath returns the manifest to read, defaulting to the configured
// file name inside the source folder.
func (f *batchFlags) manifestPath(e *env) string {
	if f.manifest != "" {
		return f.manifest
	}
	return filepath.Join(f.source, e.cfg.Get().Manifest.FileName)
}

// validate checks that both folders exist before any record is touched.
func (f *batchFlags) validate() error {
	for _, dir := range []struct{ flag, path string }{
		{"--source", f.source},
		{"--dest", f.dest},
	} {
		info, err := os.Stat(dir.path)
		if err != nil {
			return fmt.Errorf("%s %s: %w", dir.flag, dir.path, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("%s %s: not a directory", dir.flag, dir.path)
		}
	}
	return nil
}

// runBatch reads the manifest and processes it with the current config.
// The summary is also saved under the home directory.
func runBatch(ctx context.Context, cmd *cobra.Command, e *env, f *batchFlags) (*batch.Summary, error) {
	cfg := e.cfg.Get()

	policyName := cfg.Output.Collision
	if cmd.Flags().Changed("collision") {
		policyName = f.collision
	}
	policy, err := batch.ParseCollisionPolicy(policyName)
	if err != nil {
		return nil, err
	}

	path := f.manifestPath(e)
	records, err := manifest.Read(path, manifest.Options{Sheet: cfg.Manifest.Sheet})
	if err != nil {
		return nil, fmt.Errorf("failed to load manifest %s: %w", path, err)
	}
	e.logger.Info("loaded manifest", "file", path, "records", len(records))

	stderr := cmd.ErrOrStderr()
	p := batch.New(batch.Options{
		SourceDir:     f.source,
		DestDir:       f.dest,
		Collision:     policy,
		WriteAttempts: cfg.Output.WriteAttempts,
		RetryDelay:    cfg.Output.RetryDelay,
		PDFConfig:     pdfdoc.NewConfiguration(cfg.PDF.Validation),
		Logger:        e.logger,
		OnProgress: func(pr batch.Progress) {
			fmt.Fprintln(stderr, report.ProgressLine(pr))
		},
	})

	sum, err := p.Run(ctx, records)
	if sum != nil {
		saveSummary(e, sum)
	}
	return sum, err
}

func saveSummary(e *env, sum *batch.Summary) {
	if err := e.home.EnsureExists(); err != nil {
		e.logger.Warn("failed to save run summary", "error", err)
		return
	}
	path := e.home.RunSummaryPath(sum.RunID)
	if err := report.Save(path, sum); err != nil {
		e.logger.Warn("failed to save run summary", "error", err)
		return
	}
	e.logger.Debug("saved run summary", "file", path)
}

var processFlags batchFlags

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Stamp every invoice listed in a manifest",
	Long: `Process reads the manifest and, for each row in order, stamps the first
page of the source PDF with its voucher number and writes {invoice}.pdf
to the destination folder.

Rows whose source file is missing are skipped. Unreadable PDFs and write
failures mark the row as failed without stopping the batch. Progress is
printed to stderr and the summary to stdout. The command exits non-zero
if any row failed.

Examples:
  stamper process --source ./invoices --dest ./stamped
  stamper process --source ./in --dest ./out --manifest vouchers.csv -o json
  stamper process --source ./in --dest ./out --collision fail`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		if err := processFlags.validate(); err != nil {
			return err
		}

		sum, runErr := runBatch(cmd.Context(), cmd, e, &processFlags)
		if sum == nil {
			return runErr
		}
		if err := e.output(cmd, sum); err != nil {
			return err
		}

		switch {
		case errors.Is(runErr, context.Canceled):
			return fmt.Errorf("interrupted after %d of %d records", sum.Processed(), sum.Total)
		case runErr != nil:
			return runErr
		case !sum.OK():
			return fmt.Errorf("%d of %d records failed", sum.Failed, sum.Total)
		}
		return nil
	},
}

func init() {
	processFlags.register(processCmd)
	rootCmd.AddCommand(processCmd)
}
