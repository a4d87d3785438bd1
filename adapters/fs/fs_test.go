package fs_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	formskema "github.com/reoring/formskema"
	"github.com/reoring/formskema/adapters/fs"
	"github.com/reoring/formskema/batch"
	"github.com/reoring/formskema/document"
	"github.com/reoring/formskema/extract"
	"github.com/reoring/formskema/jsonschema"
	"github.com/reoring/formskema/schema"
)

func write(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestDirSource(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "b.xml"), "<a/>")
	write(t, filepath.Join(dir, "a.html"), "<p>x</p>")
	write(t, filepath.Join(dir, "notes.txt"), "ignore me")
	write(t, filepath.Join(dir, ".hidden.html"), "")

	src, err := fs.NewDirSource(dir)
	if err != nil {
		t.Fatalf("source: %v", err)
	}
	if src.Len() != 3 {
		t.Fatalf("want 3 files, got %d", src.Len())
	}
	in, err := src.Next(context.Background())
	if err != nil || in.ID != "a" || in.Format != document.HTML || string(in.Body) != "<p>x</p>" {
		t.Fatalf("first input: %+v %v", in, err)
	}
	in, err = src.Next(context.Background())
	if err != nil || in.ID != "b" || in.Format != document.XML {
		t.Fatalf("second input: %+v %v", in, err)
	}
	if _, err = src.Next(context.Background()); !errors.Is(err, batch.ErrSkip) {
		t.Fatalf("txt file should be skipped, got %v", err)
	}
	if _, err = src.Next(context.Background()); err != io.EOF {
		t.Fatalf("want EOF, got %v", err)
	}
}

func TestDirSource_UnreadableFilesDoNotAbortRun(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "a.html"), "<b>A</b>")
	write(t, filepath.Join(dir, "b.html"), "<b>B</b>")
	write(t, filepath.Join(dir, "c.html"), "<b>C</b>")

	src, err := fs.NewDirSource(dir)
	if err != nil {
		t.Fatalf("source: %v", err)
	}
	if err := os.Remove(filepath.Join(dir, "a.html")); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := os.Chmod(filepath.Join(dir, "b.html"), 0); err != nil {
		t.Fatalf("chmod: %v", err)
	}

	tally, err := batch.New(extract.New(testSchema(t)), batch.Options{Workers: 1}).Run(context.Background(), src, nil)
	if err != nil {
		t.Fatalf("an unreadable file must not abort the run: %v", err)
	}
	// b.html stays readable when the tests run as root.
	if tally.Skipped < 1 || tally.Total()+tally.Skipped != 3 || tally.Valid < 1 {
		t.Fatalf("unexpected tally: %+v", tally)
	}
}

func testSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.Compile(&schema.DocumentSpec{Root: schema.Obj(
		schema.Prop("name", schema.Leaf("//b", "clean_text")),
	)})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return s
}

func TestJSONSink_ValidAndInvalid(t *testing.T) {
	root := t.TempDir()
	out, errDir := filepath.Join(root, "OUT"), filepath.Join(root, "ERROR")
	s := testSchema(t)
	checker, err := jsonschema.Compile(s.JSONSchema())
	if err != nil {
		t.Fatalf("checker: %v", err)
	}
	sink, err := fs.NewJSONSink(out, errDir, fs.WithChecker(checker))
	if err != nil {
		t.Fatalf("sink: %v", err)
	}
	ex := extract.New(s)

	good := ex.Extract(context.Background(), extract.Input{ID: "good", Format: document.HTML, Body: []byte("<b>Acme</b>")})
	if err := sink.Put(context.Background(), good); err != nil {
		t.Fatalf("put valid: %v", err)
	}
	b, err := os.ReadFile(filepath.Join(out, "good.json"))
	if err != nil {
		t.Fatalf("read record: %v", err)
	}
	var rec map[string]any
	if err := json.Unmarshal(b, &rec); err != nil || rec["name"] != "Acme" {
		t.Fatalf("unexpected record %s (%v)", b, err)
	}

	bad := ex.Extract(context.Background(), extract.Input{ID: "bad/1", Format: document.HTML, Body: []byte("<i>nothing</i>")})
	if err := sink.Put(context.Background(), bad); err != nil {
		t.Fatalf("put invalid: %v", err)
	}
	b, err = os.ReadFile(filepath.Join(errDir, "bad_1.json"))
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	var rep fs.Report
	if err := json.Unmarshal(b, &rep); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if rep.DocumentID != "bad/1" || len(rep.Issues) != 1 || rep.Issues[0].Code != formskema.CodeMissingRequired {
		t.Fatalf("unexpected report: %+v", rep)
	}
	if !strings.Contains(string(b), `"partial"`) {
		t.Fatalf("report should carry the partial record: %s", b)
	}
}

func TestJSONSink_CheckerRejects(t *testing.T) {
	root := t.TempDir()
	s := testSchema(t)
	checker, err := jsonschema.Compile(s.JSONSchema())
	if err != nil {
		t.Fatalf("checker: %v", err)
	}
	sink, err := fs.NewJSONSink(filepath.Join(root, "OUT"), filepath.Join(root, "ERROR"), fs.WithChecker(checker))
	if err != nil {
		t.Fatalf("sink: %v", err)
	}
	m := formskema.NewMap(2)
	m.Set("name", "Acme")
	m.Set("extra", 1)
	out := formskema.Valid(formskema.NewRecord("x", m), nil)
	if err := sink.Put(context.Background(), out); err == nil {
		t.Fatalf("record with an undeclared key must be rejected")
	}
	if _, err := os.Stat(filepath.Join(root, "ERROR", "x.json")); err != nil {
		t.Fatalf("rejected record should be reported: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "OUT", "x.json")); !os.IsNotExist(err) {
		t.Fatalf("rejected record must not be written to OUT")
	}
}

func TestStager(t *testing.T) {
	root := t.TempDir()
	in := filepath.Join(root, "IN")
	if err := os.MkdirAll(in, 0o755); err != nil {
		t.Fatal(err)
	}
	write(t, filepath.Join(in, "ok.html"), "")
	write(t, filepath.Join(in, "bad.html"), "")
	st, err := fs.NewStager(filepath.Join(root, "DONE"), filepath.Join(root, "ERROR"), zerolog.Nop())
	if err != nil {
		t.Fatalf("stager: %v", err)
	}
	st.Observe(formskema.Outcome{Origin: filepath.Join(in, "ok.html"), Record: formskema.NewRecord("ok", nil)})
	st.Observe(formskema.Invalid("bad", formskema.Issues{{Path: "/", Code: formskema.CodeParseError}}))
	if err := st.Move(formskema.Outcome{Origin: filepath.Join(in, "bad.html"), Issues: formskema.Issues{{Code: formskema.CodeParseError}}}); err != nil {
		t.Fatalf("move: %v", err)
	}
	for _, p := range []string{filepath.Join(root, "DONE", "ok.html"), filepath.Join(root, "ERROR", "bad.html")} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("expected %s: %v", p, err)
		}
	}
}

func TestWatchSource_PicksUpNewFiles(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "first.html"), "<b>1</b>")
	src, err := fs.Watch(dir, fs.WithSettle(10*time.Millisecond))
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	defer src.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	in, err := src.Next(ctx)
	if err != nil || in.ID != "first" {
		t.Fatalf("existing file: %+v %v", in, err)
	}

	write(t, filepath.Join(dir, "second.html"), "<b>2</b>")
	in, err = src.Next(ctx)
	if err != nil || in.ID != "second" || string(in.Body) != "<b>2</b>" {
		t.Fatalf("new file: %+v %v", in, err)
	}

	short, stop := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer stop()
	if _, err := src.Next(short); err != io.EOF {
		t.Fatalf("want EOF after cancellation, got %v", err)
	}
}
