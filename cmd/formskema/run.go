package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/reoring/formskema/adapters/fs"
)

var runSchema string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Extract every document in the input directory",
	Long: `Extract every document in the input directory once.

Valid records are written to the output directory, issue reports for
invalid documents to the error directory. When done_dir is configured the
source files are moved to done_dir or error_dir afterwards.

Examples:
  formskema run --config formskema.yaml
  formskema run --schema ld1 --config formskema.yaml`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&runSchema, "schema", "s", "", "schema file or built-in name (overrides config)")
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := loadSchema(runSchema)
	if err != nil {
		return err
	}
	opts, err := sourceOptions()
	if err != nil {
		return err
	}
	src, err := fs.NewDirSource(cfg.Input.Dir, opts...)
	if err != nil {
		return err
	}
	p, err := newPipeline(ctx, s)
	if err != nil {
		return err
	}
	defer p.close()
	p.serveMetrics(ctx)

	logger.Info().Str("schema", s.Title).Str("dir", cfg.Input.Dir).Int("files", src.Len()).Msg("run started")
	tally, err := p.runner.Run(ctx, src, p.sink)
	p.finish(tally)
	fmt.Fprintln(cmd.OutOrStdout(), tally)

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if tally.Invalid > 0 || tally.SinkErrors > 0 {
		return fmt.Errorf("%d invalid documents, %d sink errors", tally.Invalid, tally.SinkErrors)
	}
	return nil
}
