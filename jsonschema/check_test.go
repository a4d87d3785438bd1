package jsonschema_test

import (
	"testing"

	formskema "github.com/reoring/formskema"
	"github.com/reoring/formskema/jsonschema"
)

func checker(t *testing.T) *jsonschema.Checker {
	t.Helper()
	zero := 0.0
	s := &jsonschema.Schema{
		SchemaURI: jsonschema.Draft,
		Type:      "object",
		Properties: map[string]*jsonschema.Schema{
			"state": {Type: "string", Pattern: `^[A-Z]{2}$`},
			"count": {Type: jsonschema.Nullable("integer"), Minimum: &zero},
		},
		Required:             []string{"state", "count"},
		AdditionalProperties: false,
	}
	c, err := jsonschema.Compile(s)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return c
}

func TestCheck_Valid(t *testing.T) {
	c := checker(t)
	for _, doc := range []string{`{"state":"IL","count":null}`, `{"state":"NY","count":4}`} {
		if err := c.Check([]byte(doc)); err != nil {
			t.Fatalf("%s: unexpected error %v", doc, err)
		}
	}
}

func TestCheck_Violations(t *testing.T) {
	err := checker(t).Check([]byte(`{"state":"Illinois","count":-1}`))
	iss, ok := formskema.AsIssues(err)
	if !ok {
		t.Fatalf("want Issues, got %v", err)
	}
	if len(iss.At("/state")) == 0 || len(iss.At("/count")) == 0 {
		t.Fatalf("want mismatches at /state and /count, got %v", iss)
	}
	for _, it := range iss {
		if it.Code != formskema.CodeSchemaMismatch || it.Rule == "" {
			t.Fatalf("unexpected issue %+v", it)
		}
	}
}

func TestCheck_MissingPropertyAtRoot(t *testing.T) {
	iss, _ := formskema.AsIssues(checker(t).Check([]byte(`{"state":"IL"}`)))
	if len(iss.At("/")) != 1 {
		t.Fatalf("want one root-level mismatch, got %v", iss)
	}
}

func TestCheck_MalformedJSON(t *testing.T) {
	iss, _ := formskema.AsIssues(checker(t).Check([]byte(`{"state":`)))
	if !iss.Has(formskema.CodeParseError) {
		t.Fatalf("want parse_error, got %v", iss)
	}
}
