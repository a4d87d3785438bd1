// Package extract runs one document through the pipeline: parse the bytes
// into a tree, walk the schema over it, validate the record and apply the
// strictness mode.
package extract

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	formskema "github.com/reoring/formskema"
	"github.com/reoring/formskema/document"
	"github.com/reoring/formskema/internal/walk"
	"github.com/reoring/formskema/schema"
	"github.com/reoring/formskema/validate"
)

// Input is one document to extract.
type Input struct {
	// ID becomes _meta.document_id. It is supplied by the caller and never
	// derived from the document.
	ID string
	// Format of Body. Empty falls back to the schema's format.
	Format document.Format
	Body   []byte
	// Origin is carried to the Outcome untouched.
	Origin string
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithMode sets the strictness mode. The default is Strict.
func WithMode(m formskema.Mode) Option { return func(e *Extractor) { e.mode = m } }

// WithFailFast stops each document at its first error.
func WithFailFast(on bool) Option { return func(e *Extractor) { e.failFast = on } }

// WithBlankRows sets the engine-wide blank row policy for arrays that do not
// declare one.
func WithBlankRows(p schema.BlankRowPolicy) Option {
	return func(e *Extractor) { e.blankRows = p }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option { return func(e *Extractor) { e.logger = l } }

// Extractor converts documents into Outcomes for one schema. It holds no
// per-document state and is safe for concurrent use.
type Extractor struct {
	schema    *schema.Schema
	mode      formskema.Mode
	failFast  bool
	blankRows schema.BlankRowPolicy
	logger    zerolog.Logger
}

// New returns an Extractor for s.
func New(s *schema.Schema, opts ...Option) *Extractor {
	e := &Extractor{schema: s, mode: formskema.Strict, logger: zerolog.Nop()}
	for _, fn := range opts {
		fn(e)
	}
	return e
}

// Schema returns the compiled schema the Extractor evaluates.
func (e *Extractor) Schema() *schema.Schema { return e.schema }

// Mode returns the strictness mode.
func (e *Extractor) Mode() formskema.Mode { return e.mode }

// Extract runs one document end to end. It never panics on bad input and
// never returns an error: every failure is part of the Outcome.
func (e *Extractor) Extract(ctx context.Context, in Input) formskema.Outcome {
	start := time.Now()
	out := e.extract(ctx, in)
	out.DocumentID = in.ID
	out.Origin = in.Origin
	out.Duration = time.Since(start)

	log := e.logger.With().Str("document_id", in.ID).Str("origin", in.Origin).Logger()
	for _, w := range out.Warnings {
		log.Warn().Str("path", w.Path).Str("code", w.Code).Msg(w.Message)
	}
	ev := log.Debug().Str("status", out.Status()).Dur("took", out.Duration)
	if !out.Valid() {
		ev = ev.Strs("codes", out.Issues.Codes()).Int("issues", len(out.Issues))
	}
	ev.Msg("document extracted")
	return out
}

func (e *Extractor) extract(ctx context.Context, in Input) formskema.Outcome {
	if in.ID == "" {
		return formskema.Invalid(in.ID, formskema.Issues{
			formskema.Root().Field(formskema.MetaKey).Field("document_id").Issue(formskema.CodeRequired, ""),
		})
	}
	format := in.Format
	if format == "" {
		format = e.schema.Format
	}
	tree, err := document.Parse(format, in.Body)
	if err != nil {
		return formskema.Invalid(in.ID, formskema.ParseFailure(err))
	}

	if e.failFast {
		ctx = formskema.WithFailFast(ctx, true)
	}
	res := walk.Document(ctx, e.schema, tree.Root(), walk.Options{BlankRows: e.blankRows})
	rec := formskema.NewRecord(in.ID, res.Fields)

	var violations formskema.Issues
	if len(res.Errors) == 0 || !e.failFast {
		violations = dedupe(validate.Record(ctx, e.schema, rec), res.Errors)
	}

	out := formskema.Outcome{Presence: res.Presence, Warnings: res.Warnings}
	if e.mode == formskema.Lenient {
		out.Warnings = append(out.Warnings, violations...)
		violations = nil
	}
	if len(res.Errors) > 0 || len(violations) > 0 {
		out.Issues = append(append(formskema.Issues{}, res.Errors...), violations...)
		out.Partial = rec
		return out
	}
	out.Record = rec
	return out
}

// dedupe drops violations at or below paths that already carry an extraction
// error; a missing required field is not reported a second time as a null.
func dedupe(violations, extraction formskema.Issues) formskema.Issues {
	if len(extraction) == 0 {
		return violations
	}
	out := violations[:0:0]
	for _, it := range violations {
		if !covered(it.Path, extraction) {
			out = append(out, it)
		}
	}
	return out
}

func covered(path string, extraction formskema.Issues) bool {
	for _, x := range extraction {
		if x.Path == "/" || x.Path == path || strings.HasPrefix(path, x.Path+"/") {
			return true
		}
	}
	return false
}
