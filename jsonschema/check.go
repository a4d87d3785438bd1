package jsonschema

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	json "github.com/goccy/go-json"
	santhosh "github.com/santhosh-tekuri/jsonschema/v5"

	formskema "github.com/reoring/formskema"
)

const resourceURL = "formskema://record.schema.json"

// Checker validates serialized records against a compiled JSON Schema. It is
// safe for concurrent use.
type Checker struct {
	schema *santhosh.Schema
}

// Compile prepares s for validation. Formats are asserted.
func Compile(s *Schema) (*Checker, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	return CompileBytes(b)
}

// CompileBytes prepares a JSON Schema document given as raw JSON.
func CompileBytes(b []byte) (*Checker, error) {
	c := santhosh.NewCompiler()
	c.Draft = santhosh.Draft2020
	c.AssertFormat = true
	if err := c.AddResource(resourceURL, bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	sch, err := c.Compile(resourceURL)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Checker{schema: sch}, nil
}

// Check validates a serialized record. Violations are returned as Issues
// keyed by the instance location.
func (c *Checker) Check(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return formskema.ParseFailure(err)
	}
	return c.CheckValue(v)
}

// CheckValue validates an already decoded JSON value.
func (c *Checker) CheckValue(v any) error {
	err := c.schema.Validate(v)
	if err == nil {
		return nil
	}
	var ve *santhosh.ValidationError
	if !errors.As(err, &ve) {
		return fmt.Errorf("json schema: %w", err)
	}
	var iss formskema.Issues
	collect(ve, &iss)
	sort.SliceStable(iss, func(i, j int) bool { return iss[i].Path < iss[j].Path })
	return iss
}

// collect flattens the cause tree into one Issue per failing leaf.
func collect(ve *santhosh.ValidationError, iss *formskema.Issues) {
	if len(ve.Causes) == 0 {
		path := ve.InstanceLocation
		if path == "" {
			path = "/"
		}
		*iss = append(*iss, formskema.Issue{
			Path:    path,
			Code:    formskema.CodeSchemaMismatch,
			Message: ve.Message,
			Rule:    ve.KeywordLocation,
		})
		return
	}
	for _, c := range ve.Causes {
		collect(c, iss)
	}
}
