package formskema_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	formskema "github.com/reoring/formskema"
)

func TestIssues_ErrorSummary(t *testing.T) {
	iss := formskema.Issues{
		formskema.Root().Field("registrant").Field("registrant_city").Issue(formskema.CodeMissingRequired, ""),
		formskema.Root().Field("lobbyists").Index(2).Issue(formskema.CodeBlank, ""),
		formskema.Root().Issue(formskema.CodeParseError, ""),
		formskema.Root().Field("x").Issue(formskema.CodePattern, ""),
	}
	want := "missing_required_field at /registrant/registrant_city; blank at /lobbyists/2; parse_error at /; ... (total 4)"
	if got := iss.Error(); got != want {
		t.Fatalf("summary:\n got %q\nwant %q", got, want)
	}
	if got := iss.Codes(); len(got) != 4 || got[0] != formskema.CodeMissingRequired {
		t.Fatalf("codes: %v", got)
	}
}

func TestAsIssues_ThroughWrapping(t *testing.T) {
	base := formskema.Issues{formskema.Root().Field("a").Issue(formskema.CodeRequired, "")}
	err := fmt.Errorf("document 7: %w", base)

	iss, ok := formskema.AsIssues(err)
	if !ok || len(iss) != 1 || iss[0].Path != "/a" {
		t.Fatalf("AsIssues: %v %v", ok, iss)
	}
	var target formskema.Issues
	if !errors.As(err, &target) {
		t.Fatalf("errors.As should find Issues")
	}
	if _, ok := formskema.AsIssues(errors.New("plain")); ok {
		t.Fatalf("a plain error carries no issues")
	}
}

func TestPathRef_Escaping(t *testing.T) {
	p := formskema.Root().Field("a/b").Field("c~d").Index(0)
	if got := p.Pointer(); got != "/a~1b/c~0d/0" {
		t.Fatalf("pointer = %q", got)
	}
	it := p.Issue(formskema.CodeTooSmall, "", "minimum", 1)
	if it.Message == "" || it.Params["minimum"] != 1 {
		t.Fatalf("unexpected issue %+v", it)
	}
	if got := formskema.At("/x/1").Field("y").Pointer(); got != "/x/1/y" {
		t.Fatalf("At: %q", got)
	}
}

func TestFailFastContext(t *testing.T) {
	ctx := context.Background()
	if formskema.IsFailFast(ctx) {
		t.Fatalf("collect mode is the default")
	}
	if !formskema.IsFailFast(formskema.WithFailFast(ctx, true)) {
		t.Fatalf("fail-fast flag lost")
	}
}

func TestRecord_JSONOrder(t *testing.T) {
	m := formskema.NewMap(3)
	m.Set("zeta", "z")
	m.Set("alpha", []any{int64(1), nil})
	m.Set("when", formskema.Date{Year: 2024, Month: time.March, Day: 9})
	m.Set("zeta", "again")

	b, err := json.Marshal(formskema.NewRecord("doc-1", m))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"_meta":{"document_id":"doc-1"},"zeta":"again","alpha":[1,null],"when":"2024-03-09"}`
	if string(b) != want {
		t.Fatalf("record json:\n got %s\nwant %s", b, want)
	}

	empty, _ := json.Marshal(formskema.NewRecord("e", nil))
	if string(empty) != `{"_meta":{"document_id":"e"}}` {
		t.Fatalf("empty record json: %s", empty)
	}
}

func TestRecord_Value(t *testing.T) {
	m := formskema.NewMap(1)
	m.Set("n", int64(3))
	v, err := formskema.NewRecord("d", m).Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}
	meta, _ := v[formskema.MetaKey].(map[string]any)
	if meta["document_id"] != "d" || v["n"] != float64(3) {
		t.Fatalf("unexpected value %#v", v)
	}
}

func TestDate_RoundTrip(t *testing.T) {
	d, err := formskema.ParseDate("2016-01-03")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var back formskema.Date
	text, _ := d.MarshalText()
	if err := back.UnmarshalText(text); err != nil || back != d {
		t.Fatalf("round trip: %v %v", back, err)
	}
	if _, err := formskema.ParseDate("01/03/2016"); err == nil {
		t.Fatalf("only YYYY-MM-DD is the wire layout")
	}
}

func TestPresenceMap(t *testing.T) {
	pm := formskema.PresenceMap{}
	pm.Mark("/a", formskema.PresenceMatched)
	pm.Mark("/a", formskema.PresenceAmbiguous)
	pm.Mark("/b/0", formskema.PresenceDropped)
	if !pm.Has("/a", formskema.PresenceMatched|formskema.PresenceAmbiguous) {
		t.Fatalf("flags not merged: %v", pm)
	}
	if f := pm.Filter([]string{"/b"}, nil); len(f) != 1 {
		t.Fatalf("filter: %v", f)
	}
	merged := pm.Merge(formskema.PresenceMap{"/c": formskema.PresenceMissing})
	if len(merged) != 3 || len(pm) != 2 {
		t.Fatalf("merge must not mutate: %v %v", merged, pm)
	}
}

func TestOutcome(t *testing.T) {
	ok := formskema.Valid(formskema.NewRecord("a", nil), nil)
	if !ok.Valid() || ok.Err() != nil || ok.Status() != "valid" || ok.DocumentID != "a" {
		t.Fatalf("valid outcome: %+v", ok)
	}
	bad := formskema.Invalid("b", formskema.Issues{formskema.Root().Issue(formskema.CodeParseError, "")})
	if bad.Valid() || bad.Status() != "invalid" {
		t.Fatalf("invalid outcome: %+v", bad)
	}
	if iss, isIssues := formskema.AsIssues(bad.Err()); !isIssues || !iss.Has(formskema.CodeParseError) {
		t.Fatalf("Err should carry the issues: %v", bad.Err())
	}
	if !formskema.IsSchemaViolation(formskema.CodePattern) || formskema.IsSchemaViolation(formskema.CodeMissingRequired) {
		t.Fatalf("schema violation classification")
	}
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]formskema.Mode{"": formskema.Strict, "strict": formskema.Strict, "lenient": formskema.Lenient} {
		got, err := formskema.ParseMode(in)
		if err != nil || got != want {
			t.Fatalf("ParseMode(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := formskema.ParseMode("loose"); err == nil {
		t.Fatalf("unknown mode must fail")
	}
}
