package parsers_test

import (
	"testing"
	"time"

	formskema "github.com/reoring/formskema"
	"github.com/reoring/formskema/document"
	"github.com/reoring/formskema/parsers"
)

type fakeNode struct {
	text  string
	attrs map[string]string
}

func (f fakeNode) Select(*document.Path) []document.Node { return nil }
func (f fakeNode) Text() string                          { return f.text }
func (f fakeNode) Attr(name string) (string, bool)       { v, ok := f.attrs[name]; return v, ok }
func (f fakeNode) Name() string                          { return "div" }
func (f fakeNode) Blank() bool                           { return f.text == "" }

func parse(t *testing.T, name string, n document.Node) any {
	t.Helper()
	p, ok := parsers.Default().Lookup(name)
	if !ok {
		t.Fatalf("parser %q not registered", name)
	}
	v, err := p.Parse(n)
	if err != nil {
		t.Fatalf("%s(%v): %v", name, n, err)
	}
	return v
}

func TestCleanText(t *testing.T) {
	cases := map[string]string{
		"  Acme \n\t Corp  ":      "Acme Corp",
		"A B":                "A B",
		"Smith &amp; Sons":        "Smith & Sons",
		"":                        "",
		"  \n":               "",
		"already clean":           "already clean",
	}
	for in, want := range cases {
		if got := parsers.CleanText(in); got != want {
			t.Fatalf("CleanText(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTextParsers_BlankValues(t *testing.T) {
	if v := parse(t, "clean_text", nil); v != "" {
		t.Fatalf("clean_text(nil) = %v", v)
	}
	if v := parse(t, "date", nil); v != nil {
		t.Fatalf("date(nil) = %v", v)
	}
	if v := parse(t, "number", nil); v != nil {
		t.Fatalf("number(nil) = %v", v)
	}
	if v := parse(t, "upper_text", fakeNode{text: " il "}); v != "IL" {
		t.Fatalf("upper_text = %v", v)
	}
}

func TestCheckbox_NeverFails(t *testing.T) {
	cases := []struct {
		name string
		n    document.Node
		want bool
	}{
		{"absent", nil, false},
		{"checked attr", fakeNode{attrs: map[string]string{"checked": ""}}, true},
		{"unchecked", fakeNode{}, false},
		{"x marker", fakeNode{text: " X "}, true},
		{"garbage", fakeNode{text: "maybe?"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := parse(t, "checkbox", tc.n); got != tc.want {
				t.Fatalf("checkbox = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestDate_SourceLayouts(t *testing.T) {
	want := formskema.Date{Year: 2014, Month: time.March, Day: 7}
	for _, in := range []string{"03/07/2014", "3/7/2014", "2014-03-07", "March 7, 2014", "03/07/2014 04:05:06 PM"} {
		got := parse(t, "date", fakeNode{text: in})
		if got != want {
			t.Fatalf("date(%q) = %v, want %v", in, got, want)
		}
	}
	if v := parse(t, "date", fakeNode{text: "   "}); v != nil {
		t.Fatalf("blank date should be nil, got %v", v)
	}
}

func TestDate_Unparsable(t *testing.T) {
	p, _ := parsers.Default().Lookup("date")
	if _, err := p.Parse(fakeNode{text: "sometime in spring"}); err == nil {
		t.Fatalf("expected error for unparsable date")
	}
}

func TestDateTime_ZoneAware(t *testing.T) {
	ny := parsers.DefaultLocation()
	got := parse(t, "datetime", fakeNode{text: "01/15/2015 10:30:00 am"})
	ts, ok := got.(time.Time)
	if !ok {
		t.Fatalf("expected time.Time, got %T", got)
	}
	if want := time.Date(2015, 1, 15, 10, 30, 0, 0, ny); !ts.Equal(want) {
		t.Fatalf("datetime = %v, want %v", ts, want)
	}
	if ts.Location().String() != parsers.DefaultZone {
		t.Fatalf("expected %s, got %s", parsers.DefaultZone, ts.Location())
	}

	// explicit offsets are kept
	got = parse(t, "datetime", fakeNode{text: "2015-01-15T10:30:00Z"})
	if ts := got.(time.Time); !ts.Equal(time.Date(2015, 1, 15, 10, 30, 0, 0, time.UTC)) {
		t.Fatalf("unexpected zoned datetime %v", ts)
	}

	// a date without time of day stays a date
	got = parse(t, "datetime", fakeNode{text: "01/15/2015"})
	if _, ok := got.(formskema.Date); !ok {
		t.Fatalf("expected Date for date-only input, got %T", got)
	}
}

func TestDateTime_CustomLocation(t *testing.T) {
	r := parsers.Default(parsers.WithLocation(time.UTC))
	p, _ := r.Lookup("datetime")
	v, err := p.Parse(fakeNode{text: "2015-01-15 10:30"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if ts := v.(time.Time); ts.Location() != time.UTC {
		t.Fatalf("expected UTC, got %v", ts.Location())
	}
}

func TestNumbers(t *testing.T) {
	if v := parse(t, "number", fakeNode{text: "$12,500.50"}); v != 12500.5 {
		t.Fatalf("number = %v", v)
	}
	if v := parse(t, "integer", fakeNode{text: "1,024"}); v != int64(1024) {
		t.Fatalf("integer = %v", v)
	}
	p, _ := parsers.Default().Lookup("integer")
	if _, err := p.Parse(fakeNode{text: "12.5"}); err == nil {
		t.Fatalf("expected integer parse error")
	}
}

func TestNumber_RejectsNonFinite(t *testing.T) {
	p, _ := parsers.Default().Lookup("number")
	for _, in := range []string{"NaN", "Inf", "-Inf", "Infinity", "1e400"} {
		if v, err := p.Parse(fakeNode{text: in}); err == nil {
			t.Fatalf("number(%q) = %v, want an error", in, v)
		}
	}
}

func TestRegistry(t *testing.T) {
	r := parsers.Default()
	if _, ok := r.Lookup("no_such_parser"); ok {
		t.Fatalf("unexpected lookup hit")
	}
	ext, err := r.With(parsers.Parser{Name: "yes", Type: formskema.TypeBoolean, Parse: func(document.Node) (any, error) { return true, nil }})
	if err != nil {
		t.Fatalf("With: %v", err)
	}
	if _, ok := ext.Lookup("yes"); !ok {
		t.Fatalf("expected extended registry to resolve new parser")
	}
	if _, ok := r.Lookup("yes"); ok {
		t.Fatalf("With must not modify the receiver")
	}
	if _, err := r.With(parsers.Parser{Name: "clean_text", Type: formskema.TypeString, Parse: func(document.Node) (any, error) { return "", nil }}); err == nil {
		t.Fatalf("expected duplicate name error")
	}
}
