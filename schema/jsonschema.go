package schema

import (
	formskema "github.com/reoring/formskema"
	"github.com/reoring/formskema/jsonschema"
)

// Patterns for formats JSON Schema has no keyword for.
const (
	uuidHexPattern = `^\{?[0-9A-Fa-f]{8}-?[0-9A-Fa-f]{4}-?[0-9A-Fa-f]{4}-?[0-9A-Fa-f]{4}-?[0-9A-Fa-f]{12}\}?$`
	urlHTTPPattern = `^https?://[^\s]+$`
)

// JSONSchema projects the record shape produced by s onto JSON Schema
// (draft 2020-12). Records that pass the validator also pass the projection.
func (s *Schema) JSONSchema() *jsonschema.Schema {
	root := objectSchema(s.Root)
	root.SchemaURI = jsonschema.Draft
	root.Title = s.Title
	root.Description = s.Description

	id := &jsonschema.Schema{Type: "string"}
	applyFormat(id, s.DocumentIDFormat, false)
	meta := &jsonschema.Schema{
		Type:                 "object",
		Properties:           map[string]*jsonschema.Schema{"document_id": id},
		Required:             []string{"document_id"},
		AdditionalProperties: false,
	}
	root.Properties[formskema.MetaKey] = meta
	root.Required = append([]string{formskema.MetaKey}, root.Required...)
	return root
}

func nodeSchema(n Node) *jsonschema.Schema {
	switch n := n.(type) {
	case *Leaf:
		return leafSchema(n)
	case *Object:
		js := objectSchema(n)
		if acceptsNull(n) {
			js.Type = jsonschema.Nullable("object")
		}
		return js
	case *Array:
		js := &jsonschema.Schema{Type: "array", Description: n.Description, Items: nodeSchema(n.Item)}
		if n.Optional {
			js.Type = jsonschema.Nullable("array")
		}
		return js
	}
	return &jsonschema.Schema{}
}

// acceptsNull reports whether a null value passes for n.
func acceptsNull(n Node) bool {
	switch n := n.(type) {
	case *Leaf:
		return !n.Required || n.AllowBlank
	case *Array:
		return n.Optional
	case *Object:
		for _, p := range n.Properties {
			if !acceptsNull(p.Node) {
				return false
			}
		}
		return true
	}
	return false
}

func objectSchema(o *Object) *jsonschema.Schema {
	js := &jsonschema.Schema{
		Type:                 "object",
		Description:          o.Description,
		Properties:           make(map[string]*jsonschema.Schema, len(o.Properties)+1),
		AdditionalProperties: false,
	}
	for _, p := range o.Properties {
		js.Properties[p.Name] = nodeSchema(p.Node)
		js.Required = append(js.Required, p.Name)
	}
	return js
}

func leafSchema(l *Leaf) *jsonschema.Schema {
	nullable := !l.Required || l.AllowBlank
	js := &jsonschema.Schema{Description: l.Description}

	base := "string"
	switch l.Value {
	case formskema.TypeNumber:
		base = "number"
	case formskema.TypeInteger:
		base = "integer"
	case formskema.TypeBoolean:
		base = "boolean"
	case formskema.TypeDate:
		js.Format = "date"
	case formskema.TypeDateTime:
		// a date-only source yields a date
		js.AnyOf = []*jsonschema.Schema{{Format: "date-time"}, {Format: "date"}}
	}
	if l.Value == formskema.TypeString && !l.AllowBlank {
		one := 1
		js.MinLength = &one
	}
	if nullable {
		js.Type = jsonschema.Nullable(base)
	} else {
		js.Type = base
	}

	if l.HasEnum() {
		for _, v := range l.Enum {
			js.Enum = append(js.Enum, v)
		}
		if l.AllowBlank {
			js.Enum = append(js.Enum, "")
		}
		if nullable {
			js.Enum = append(js.Enum, nil)
		}
	}
	if l.Pattern != nil {
		js.Pattern = l.Pattern.String()
		if l.AllowBlank {
			js.Pattern = "^$|(?:" + js.Pattern + ")"
		}
	}
	applyFormat(js, l.Format, l.AllowBlank)
	js.Minimum = l.Minimum
	js.ExclusiveMinimum = l.ExclusiveMinimum
	return js
}

// applyFormat adds the check for f. Blank strings stay acceptable when blank
// is set.
func applyFormat(js *jsonschema.Schema, f Format, blank bool) {
	var check *jsonschema.Schema
	switch f {
	case FormatNone:
		return
	case FormatDate, FormatDateTime, FormatEmail:
		check = &jsonschema.Schema{Format: string(f)}
	case FormatUUIDHex:
		check = &jsonschema.Schema{Pattern: uuidHexPattern}
	case FormatURLHTTP:
		check = &jsonschema.Schema{Pattern: urlHTTPPattern}
	}
	if blank {
		zero := 0
		check = &jsonschema.Schema{AnyOf: []*jsonschema.Schema{{MaxLength: &zero}, check}}
	}
	js.AllOf = append(js.AllOf, check)
}
