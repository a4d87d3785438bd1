package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/reoring/formskema/adapters/fs"
	"github.com/reoring/formskema/adapters/metrics"
	"github.com/reoring/formskema/adapters/sqlite"
	"github.com/reoring/formskema/batch"
	"github.com/reoring/formskema/document"
	"github.com/reoring/formskema/extract"
	"github.com/reoring/formskema/jsonschema"
	"github.com/reoring/formskema/parsers"
	"github.com/reoring/formskema/schema"
	"github.com/reoring/formskema/schemas"
)

// loadSchema resolves ref (a file or a built-in name), falling back to the
// configured schema.
func loadSchema(ref string) (*schema.Schema, error) {
	if ref == "" {
		ref = cfg.Schema
	}
	if ref == "" {
		return nil, errors.New("no schema: pass --schema or set schema in the config")
	}
	reg := parsers.Default(parsers.WithLocation(cfg.Location()))
	return schemas.Resolve(ref, schema.WithParsers(reg))
}

func newExtractor(s *schema.Schema) *extract.Extractor {
	return extract.New(s,
		extract.WithMode(cfg.ParsedMode()),
		extract.WithFailFast(cfg.FailFast),
		extract.WithBlankRows(cfg.BlankRowPolicy()),
		extract.WithLogger(logger),
	)
}

func documentFormat() (document.Format, error) {
	if cfg.Format == "" {
		return "", nil
	}
	return document.ParseFormat(cfg.Format)
}

func sourceOptions() ([]fs.SourceOption, error) {
	format, err := documentFormat()
	if err != nil {
		return nil, err
	}
	ids := fs.IDFromStem
	if cfg.Input.IDs == "uuid" {
		ids = fs.RandomID
	}
	return []fs.SourceOption{
		fs.WithFormat(format),
		fs.WithIDFunc(ids),
		fs.WithSettle(cfg.Input.Settle),
		fs.WithLogger(logger),
	}, nil
}

// pipeline is everything downstream of the extractor: the record sink, the
// optional ledger and metrics, and the source file stager.
type pipeline struct {
	runner  *batch.Runner
	sink    batch.Sink
	db      *sqlite.DB
	run     *sqlite.Run
	metrics *metrics.Collector
	reg     *prometheus.Registry
}

func newPipeline(ctx context.Context, s *schema.Schema) (*pipeline, error) {
	p := &pipeline{}

	var sinkOpts []fs.SinkOption
	if cfg.Output.Check {
		c, err := jsonschema.Compile(s.JSONSchema())
		if err != nil {
			return nil, fmt.Errorf("compile record schema: %w", err)
		}
		sinkOpts = append(sinkOpts, fs.WithChecker(c))
	}
	out, err := fs.NewJSONSink(cfg.Output.Dir, cfg.Output.ErrorDir, sinkOpts...)
	if err != nil {
		return nil, err
	}
	sinks := []batch.Sink{out}

	if cfg.Ledger.Path != "" {
		db, err := sqlite.Open(cfg.Ledger.Path)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate ledger: %w", err)
		}
		run, err := sqlite.NewLedger(db).StartRun(ctx, s.Title, cfg.ParsedMode())
		if err != nil {
			db.Close()
			return nil, err
		}
		p.db, p.run = db, run
		sinks = append(sinks, run)
		logger.Info().Str("run_id", run.ID).Str("ledger", cfg.Ledger.Path).Msg("ledger run started")
	}
	p.sink = batch.Tee(sinks...)

	var observers []batch.Observer
	if cfg.Metrics.Addr != "" {
		p.reg = prometheus.NewRegistry()
		p.reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		p.metrics = metrics.NewWithRegistry(p.reg)
		observers = append(observers, p.metrics)
	}
	if cfg.Output.DoneDir != "" {
		stager, err := fs.NewStager(cfg.Output.DoneDir, cfg.Output.ErrorDir, logger)
		if err != nil {
			p.close()
			return nil, err
		}
		observers = append(observers, stager)
	}

	opts := batch.Options{Workers: cfg.Workers, Logger: &logger, Observers: observers}
	p.runner = batch.New(newExtractor(s), opts)
	return p, nil
}

// finish records the tally in the ledger and the metrics.
func (p *pipeline) finish(t batch.Tally) {
	if p.metrics != nil {
		p.metrics.RecordRun(t)
	}
	if p.run != nil {
		if err := p.run.Finish(context.Background(), t); err != nil {
			logger.Error().Err(err).Msg("finish ledger run")
		}
	}
}

func (p *pipeline) close() {
	if p.db != nil {
		p.db.Close()
	}
}

// serveMetrics serves the metrics endpoint until ctx is done.
func (p *pipeline) serveMetrics(ctx context.Context) {
	if p.reg == nil {
		return
	}
	srv := &http.Server{
		Addr:              cfg.Metrics.Addr,
		Handler:           metrics.Handler(p.reg),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("metrics listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics server")
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}
