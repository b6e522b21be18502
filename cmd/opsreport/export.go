package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"opsdash/internal/services"
)

type exportOptions struct {
	input   inputOptions
	outDir  string
	formats []string
}

func newExportCmd(root *rootOptions) *cobra.Command {
	opts := &exportOptions{}

	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Write the workbook and CSV exports of a dataset",
		Long: `Loads a CSV or XLSX file and writes the full dataset as an .xlsx workbook
(Data, KPIs and Department Summary sheets) and as a .csv file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, args, root, opts)
		},
	}

	opts.input.register(cmd)
	cmd.Flags().StringVarP(&opts.outDir, "out", "o", ".", "output directory")
	cmd.Flags().StringSliceVar(&opts.formats, "format", []string{"xlsx", "csv"}, "export formats")
	return cmd
}

func runExport(cmd *cobra.Command, args []string, root *rootOptions, opts *exportOptions) error {
	formats := make([]services.ExportFormat, 0, len(opts.formats))
	for _, s := range opts.formats {
		f, err := services.ParseExportFormat(s)
		if err != nil {
			return err
		}
		formats = append(formats, f)
	}

	ctx := cmd.Context()
	r, err := newRunner(root, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if err := r.load(ctx, cmd, args, opts.input); err != nil {
		return err
	}

	if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	for _, format := range formats {
		res, err := r.svc.Export(ctx, cliSession, format, opts.input.sample)
		if err != nil {
			return err
		}
		path := filepath.Join(opts.outDir, res.Filename)
		if err := os.WriteFile(path, res.Data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s export: %w", strings.ToUpper(string(format)), err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
	}
	return nil
}
