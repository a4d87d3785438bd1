// Package batch runs many documents through an Extractor on a bounded worker
// pool. One failing document never aborts the batch.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	formskema "github.com/reoring/formskema"
	"github.com/reoring/formskema/extract"
)

// ErrSkip is returned (possibly wrapped) by a Source for an entry it passed
// over. Skipped entries are counted and the run continues.
var ErrSkip = errors.New("skip")

// Source yields documents. Next returns io.EOF once exhausted.
type Source interface {
	Next(ctx context.Context) (extract.Input, error)
}

// Sink receives every Outcome, valid or not. It is only called from the
// collector goroutine.
type Sink interface {
	Put(ctx context.Context, out formskema.Outcome) error
}

// Observer is notified of every Outcome after the sink.
type Observer interface {
	Observe(out formskema.Outcome)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(formskema.Outcome)

func (f ObserverFunc) Observe(out formskema.Outcome) { f(out) }

// Tally is the aggregate of one run.
type Tally struct {
	Valid      int
	Invalid    int
	Skipped    int
	SinkErrors int
	// Codes counts the issues of invalid documents by code.
	Codes map[string]int
	Start time.Time
	End   time.Time
}

// Total is the number of documents that went through the pipeline.
func (t Tally) Total() int { return t.Valid + t.Invalid }

// CodeNames returns the codes seen, in ascending order.
func (t Tally) CodeNames() []string {
	out := make([]string, 0, len(t.Codes))
	for k := range t.Codes {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (t Tally) String() string {
	return fmt.Sprintf("%d valid, %d invalid, %d skipped, %d sink errors in %s",
		t.Valid, t.Invalid, t.Skipped, t.SinkErrors, t.End.Sub(t.Start).Round(time.Millisecond))
}

func (t *Tally) add(out formskema.Outcome) {
	if out.Valid() {
		t.Valid++
		return
	}
	t.Invalid++
	for _, it := range out.Issues {
		t.Codes[it.Code]++
	}
}

// Options configure a Runner.
type Options struct {
	// Workers bounds concurrent documents. Zero means runtime.NumCPU().
	Workers   int
	Logger    *zerolog.Logger
	Observers []Observer
}

// Runner dispatches documents to an Extractor.
type Runner struct {
	ex        *extract.Extractor
	workers   int
	logger    zerolog.Logger
	observers []Observer
}

// New returns a Runner over ex.
func New(ex *extract.Extractor, opts Options) *Runner {
	r := &Runner{ex: ex, workers: opts.Workers, logger: zerolog.Nop(), observers: opts.Observers}
	if r.workers <= 0 {
		r.workers = runtime.NumCPU()
	}
	if opts.Logger != nil {
		r.logger = *opts.Logger
	}
	return r
}

type event struct {
	out    formskema.Outcome
	skip   bool
	origin string
	err    error
}

// Run pulls documents from src until it is exhausted, fails or ctx is
// cancelled. Cancellation stops scheduling; documents already started run to
// completion and reach the sink. The returned error is the source failure or
// the context error.
func (r *Runner) Run(ctx context.Context, src Source, sink Sink) (Tally, error) {
	tally := Tally{Codes: map[string]int{}, Start: time.Now()}
	events := make(chan event, r.workers)
	var srcErr error

	go func() {
		defer close(events)
		var g errgroup.Group
		g.SetLimit(r.workers)
		for ctx.Err() == nil {
			in, err := src.Next(ctx)
			if errors.Is(err, io.EOF) {
				break
			}
			if errors.Is(err, ErrSkip) {
				events <- event{skip: true, origin: in.Origin, err: err}
				continue
			}
			if err != nil {
				srcErr = err
				break
			}
			g.Go(func() error {
				events <- event{out: r.ex.Extract(ctx, in)}
				return nil
			})
		}
		_ = g.Wait()
	}()

	// Sinks finish in-flight documents even after cancellation.
	sinkCtx := context.WithoutCancel(ctx)
	for ev := range events {
		if ev.skip {
			tally.Skipped++
			r.logger.Debug().Str("origin", ev.origin).Err(ev.err).Msg("document skipped")
			continue
		}
		tally.add(ev.out)
		if sink != nil {
			if err := sink.Put(sinkCtx, ev.out); err != nil {
				tally.SinkErrors++
				r.logger.Error().Err(err).Str("document_id", ev.out.DocumentID).Msg("sink failed")
			}
		}
		for _, o := range r.observers {
			o.Observe(ev.out)
		}
	}
	tally.End = time.Now()

	r.logger.Info().
		Int("valid", tally.Valid).
		Int("invalid", tally.Invalid).
		Int("skipped", tally.Skipped).
		Int("sink_errors", tally.SinkErrors).
		Dur("took", tally.End.Sub(tally.Start)).
		Msg("batch finished")

	if srcErr != nil {
		return tally, fmt.Errorf("source: %w", srcErr)
	}
	return tally, ctx.Err()
}

// RunAll runs a fixed set of documents and returns their outcomes in
// completion order. Documents not started because ctx was cancelled are
// counted as skipped.
func (r *Runner) RunAll(ctx context.Context, inputs []extract.Input) ([]formskema.Outcome, Tally) {
	src := &sliceSource{inputs: inputs}
	sink := &collectSink{}
	tally, _ := r.Run(ctx, src, sink)
	tally.Skipped += len(inputs) - src.next
	return sink.outs, tally
}

type sliceSource struct {
	inputs []extract.Input
	next   int
}

func (s *sliceSource) Next(context.Context) (extract.Input, error) {
	if s.next >= len(s.inputs) {
		return extract.Input{}, io.EOF
	}
	in := s.inputs[s.next]
	s.next++
	return in, nil
}

type collectSink struct{ outs []formskema.Outcome }

func (c *collectSink) Put(_ context.Context, out formskema.Outcome) error {
	c.outs = append(c.outs, out)
	return nil
}

// Tee fans one Outcome out to several sinks. Every sink is called; the
// failures are joined.
func Tee(sinks ...Sink) Sink { return tee(sinks) }

type tee []Sink

func (t tee) Put(ctx context.Context, out formskema.Outcome) error {
	var errs []error
	for _, s := range t {
		if err := s.Put(ctx, out); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
