package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	formskema "github.com/reoring/formskema"
	"github.com/reoring/formskema/jsonschema"
)

// JSONSink writes valid records to one directory and error reports for
// invalid documents to another. Files are named after the document id.
type JSONSink struct {
	outDir  string
	errDir  string
	checker *jsonschema.Checker
}

// SinkOption configures a JSONSink.
type SinkOption func(*JSONSink)

// WithChecker validates every record against a JSON Schema before it is
// written. A record that fails goes to the error directory instead.
func WithChecker(c *jsonschema.Checker) SinkOption {
	return func(s *JSONSink) { s.checker = c }
}

// NewJSONSink creates both directories if needed.
func NewJSONSink(outDir, errDir string, opts ...SinkOption) (*JSONSink, error) {
	for _, d := range []string{outDir, errDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", d, err)
		}
	}
	s := &JSONSink{outDir: outDir, errDir: errDir}
	for _, fn := range opts {
		fn(s)
	}
	return s, nil
}

// Report is the error-directory form of an invalid outcome.
type Report struct {
	DocumentID string            `json:"document_id"`
	Origin     string            `json:"origin,omitempty"`
	Status     string            `json:"status"`
	Issues     []ReportIssue     `json:"issues"`
	Warnings   []ReportIssue     `json:"warnings,omitempty"`
	Partial    *formskema.Record `json:"partial,omitempty"`
	WrittenAt  time.Time         `json:"written_at"`
}

// ReportIssue is the serialized form of one Issue.
type ReportIssue struct {
	Path    string         `json:"path"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Hint    string         `json:"hint,omitempty"`
	Params  map[string]any `json:"params,omitempty"`
}

func reportIssues(iss formskema.Issues) []ReportIssue {
	out := make([]ReportIssue, 0, len(iss))
	for _, it := range iss {
		out = append(out, ReportIssue{Path: it.Path, Code: it.Code, Message: it.Message, Hint: it.Hint, Params: it.Params})
	}
	return out
}

// Put writes out. Records failing the checker are reported and cause an
// error so the run counts them.
func (s *JSONSink) Put(_ context.Context, out formskema.Outcome) error {
	if !out.Valid() {
		return s.writeReport(out, out.Issues)
	}
	b, err := json.MarshalIndent(out.Record, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", out.DocumentID, err)
	}
	if s.checker != nil {
		if err := s.checker.Check(b); err != nil {
			iss, ok := formskema.AsIssues(err)
			if !ok {
				return fmt.Errorf("check %s: %w", out.DocumentID, err)
			}
			out.Partial = out.Record
			if werr := s.writeReport(out, iss); werr != nil {
				return werr
			}
			return fmt.Errorf("record %s does not match its JSON Schema: %w", out.DocumentID, err)
		}
	}
	return writeAtomic(filepath.Join(s.outDir, FileName(out.DocumentID)), b)
}

func (s *JSONSink) writeReport(out formskema.Outcome, iss formskema.Issues) error {
	r := Report{
		DocumentID: out.DocumentID,
		Origin:     out.Origin,
		Status:     "invalid",
		Issues:     reportIssues(iss),
		Partial:    out.Partial,
		WrittenAt:  time.Now().UTC(),
	}
	if len(out.Warnings) > 0 {
		r.Warnings = reportIssues(out.Warnings)
	}
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report %s: %w", out.DocumentID, err)
	}
	return writeAtomic(filepath.Join(s.errDir, FileName(out.DocumentID)), b)
}

var nameReplacer = strings.NewReplacer("/", "_", `\`, "_", ":", "_", "\x00", "_")

// FileName is the output file name for a document id.
func FileName(documentID string) string {
	name := nameReplacer.Replace(documentID)
	if name == "" || name == "." || name == ".." {
		name = "_"
	}
	return name + ".json"
}

func writeAtomic(path string, b []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(append(b, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
