package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"cdrflow/internal/adapters/operators"
	"cdrflow/internal/core/csvparse"
	"cdrflow/internal/platform/logger"
	enrich "cdrflow/internal/services/enrich/service"

	"github.com/spf13/cobra"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// errDiagnostics makes validate exit non-zero without printing usage
var errDiagnostics = errors.New("batch has diagnostics")

func main() {
	if err := newRootCmd(os.Stdin, os.Stdout, os.Stderr).Execute(); err != nil {
		if !errors.Is(err, errDiagnostics) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	var verbose bool
	root := &cobra.Command{
		Use:           "cdrflow",
		Short:         "Validate and enrich call detail record batches offline",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			opt := logger.FromEnv()
			opt.Writer, opt.Component = stderr, "cli"
			if verbose {
				opt.Level = "debug"
			}
			logger.Init(opt)
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging on stderr")
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.AddCommand(newValidateCmd(), newEnrichCmd())
	return root
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file|->",
		Short: "Parse a batch and print records and diagnostics as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := readPayload(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			res := csvparse.Parse(payload)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(res); err != nil {
				return err
			}
			if len(res.Diagnostics) > 0 {
				return errDiagnostics
			}
			return nil
		},
	}
}

func newEnrichCmd() *cobra.Command {
	var (
		directory   string
		maxInFlight int
	)
	cmd := &cobra.Command{
		Use:   "enrich <file|->",
		Short: "Parse a batch and enrich its valid records against a YAML operator directory",
		Long: `Parse a batch, enrich every valid record against a YAML operator directory
and print one enriched record per line as JSON. Rejected rows are logged to
stderr and skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := operators.LoadDirectory(directory)
			if err != nil {
				return err
			}
			payload, err := readPayload(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			res := csvparse.Parse(payload)
			for _, d := range res.Diagnostics {
				logger.C(ctx).Warn().Int("row", d.Row).Str("problem", d.Message).Msg("row rejected")
			}

			out, stats := enrich.New(operators.NewLimited(dir, maxInFlight)).EnrichAllWithStats(ctx, res.Records)
			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, r := range out {
				if err := enc.Encode(r); err != nil {
					return err
				}
			}
			logger.C(ctx).Info().
				Int("records", stats.Records).
				Int("from_failed", stats.FromFailed).
				Int("to_failed", stats.ToFailed).
				Int("rejected", len(res.Diagnostics)).
				Msg("enrich done")
			return nil
		},
	}
	cmd.Flags().StringVar(&directory, "directory", "operators.yaml", "operator directory YAML file")
	cmd.Flags().IntVar(&maxInFlight, "max-inflight", 32, "concurrent directory lookups, 0 for unlimited")
	return cmd
}

// readPayload reads name, or stdin for "-", dropping a UTF-8 byte order mark
func readPayload(stdin io.Reader, name string) (string, error) {
	var r io.Reader = stdin
	if name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return "", err
		}
		defer func() { _ = f.Close() }()
		r = f
	}
	b, err := io.ReadAll(transform.NewReader(r, unicode.BOMOverride(transform.Nop)))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	return string(b), nil
}
