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

var watchSchema string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Extract documents as they arrive in the input directory",
	Long: `Watch the input directory and extract every document that appears in it,
including those already present. Runs until interrupted; documents in
flight are finished before exit.

Examples:
  formskema watch --config formskema.yaml`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVarP(&watchSchema, "schema", "s", "", "schema file or built-in name (overrides config)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := loadSchema(watchSchema)
	if err != nil {
		return err
	}
	opts, err := sourceOptions()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.Input.Dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", cfg.Input.Dir, err)
	}
	src, err := fs.Watch(cfg.Input.Dir, opts...)
	if err != nil {
		return err
	}
	defer src.Close()

	p, err := newPipeline(ctx, s)
	if err != nil {
		return err
	}
	defer p.close()
	p.serveMetrics(ctx)

	logger.Info().Str("schema", s.Title).Str("dir", cfg.Input.Dir).Msg("watching")
	tally, err := p.runner.Run(ctx, src, p.sink)
	p.finish(tally)
	fmt.Fprintln(cmd.OutOrStdout(), tally)

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
