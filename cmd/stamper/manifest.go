package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/stamper/internal/manifest"
)

var manifestCmd = &cobra.Command{
	Use:   "manifest",
	Short: "Create and inspect manifests",
}

var manifestOut string

var manifestGenerateCmd = &cobra.Command{
	Use:   "generate <source-dir>",
	Short: "Generate a manifest listing the PDFs in a folder",
	Long: `Generate writes a manifest with one row per PDF file in the folder,
sorted by name. The invoice number defaults to the file name without its
extension and the voucher number is left empty for you to fill in.

The format follows the output file extension: .xlsx, .csv or .json.

Examples:
  stamper manifest generate ./invoices
  stamper manifest generate ./invoices --out ./invoices/vouchers.csv`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		cfg := e.cfg.Get()

		source := args[0]
		records, err := manifest.Generate(source)
		if err != nil {
			return err
		}

		out := manifestOut
		if out == "" {
			out = filepath.Join(source, cfg.Manifest.FileName)
		}
		if err := manifest.Write(out, records, manifest.Options{Sheet: cfg.Manifest.Sheet}); err != nil {
			return fmt.Errorf("failed to write manifest %s: %w", out, err)
		}
		e.logger.Info("manifest written", "file", out, "records", len(records))

		return e.output(cmd, records)
	},
}

var manifestShowCmd = &cobra.Command{
	Use:   "show <file>",
	Short: "Print the normalized records of a manifest",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}

		records, err := manifest.Read(args[0], manifest.Options{Sheet: e.cfg.Get().Manifest.Sheet})
		if err != nil {
			return err
		}
		for _, r := range records {
			if err := r.Validate(); err != nil {
				e.logger.Warn("record will fail", "error", err)
			}
		}
		return e.output(cmd, records)
	},
}

func init() {
	manifestGenerateCmd.Flags().StringVar(&manifestOut, "out", "", "manifest path (default: {source-dir}/{manifest.file_name})")

	manifestCmd.AddCommand(manifestGenerateCmd)
	manifestCmd.AddCommand(manifestShowCmd)
	rootCmd.AddCommand(manifestCmd)
}
