package schema

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DuplicateKeyError reports a key declared twice in one mapping, with the
// positions of both occurrences.
type DuplicateKeyError struct {
	Key       string
	FirstLine int
	FirstCol  int
	Line      int
	Col       int
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate key %q at %d:%d (first at %d:%d)", e.Key, e.Line, e.Col, e.FirstLine, e.FirstCol)
}

// LoadFile reads and compiles a schema document from disk.
func LoadFile(path string, opts ...Option) (*Schema, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema %s: %w", path, err)
	}
	s, err := Load(b, opts...)
	if err != nil {
		return nil, fmt.Errorf("schema %s: %w", path, err)
	}
	return s, nil
}

// LoadReader reads a whole schema document from r and compiles it.
func LoadReader(r io.Reader, opts ...Option) (*Schema, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	return Load(b, opts...)
}

// Load parses a YAML or JSON schema document and compiles it.
func Load(data []byte, opts ...Option) (*Schema, error) {
	doc, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return Compile(doc, opts...)
}

// Decode parses a schema document into its uncompiled form. Property order is
// kept; duplicate and unknown keys are reported as Problems.
func Decode(data []byte) (*DocumentSpec, error) {
	var root yaml.Node
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, Problems{{Path: "/", Msg: "empty schema document"}}
		}
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	if len(root.Content) == 0 {
		return nil, Problems{{Path: "/", Msg: "empty schema document"}}
	}
	d := &decoder{}
	doc := d.document(root.Content[0])
	if len(d.problems) > 0 {
		return nil, d.problems
	}
	return doc, nil
}

type decoder struct {
	problems Problems
}

func (d *decoder) addf(n *yaml.Node, ptr, format string, a ...any) {
	if ptr == "" {
		ptr = "/"
	}
	p := Problem{Path: ptr, Msg: fmt.Sprintf(format, a...)}
	if n != nil {
		p.Line, p.Col = n.Line, n.Column
	}
	d.problems = append(d.problems, p)
}

var documentKeys = map[string]bool{
	"title": true, "description": true, "format": true,
	"object_path": true, "document_id_format": true,
}

var nodeKeys = map[string]bool{
	"type": true, "path": true, "parser": true, "value": true, "description": true,
	"properties": true, "items": true, "pairing": true, "blank_rows": true,
	"required": true, "allow_blank": true, "optional": true, "parity": true,
	"enum": true, "enum_ref": true, "pattern": true, "format": true,
	"minimum": true, "exclusive_minimum": true,
}

type entry struct {
	key *yaml.Node
	val *yaml.Node
}

// entries returns the pairs of a mapping in order, reporting duplicates.
func (d *decoder) entries(n *yaml.Node, ptr string) []entry {
	if n.Kind != yaml.MappingNode {
		d.addf(n, ptr, "expected a mapping")
		return nil
	}
	out := make([]entry, 0, len(n.Content)/2)
	first := make(map[string]*yaml.Node, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if prev, dup := first[k.Value]; dup {
			err := &DuplicateKeyError{Key: k.Value, FirstLine: prev.Line, FirstCol: prev.Column, Line: k.Line, Col: k.Column}
			d.addf(k, ptr, "%v", err)
			continue
		}
		first[k.Value] = k
		out = append(out, entry{key: k, val: v})
	}
	return out
}

func (d *decoder) document(n *yaml.Node) *DocumentSpec {
	doc := &DocumentSpec{}
	root := &Spec{line: n.Line, col: n.Column}
	for _, e := range d.entries(n, "") {
		k := e.key.Value
		switch k {
		case "title":
			doc.Title = d.str(e.val, "/title")
		case "object_path":
			doc.ObjectPath = d.str(e.val, "/object_path")
		case "document_id_format":
			doc.DocumentIDFormat = d.str(e.val, "/document_id_format")
		case "description":
			doc.Description = d.str(e.val, "/description")
			root.Description = doc.Description
		case "format":
			// the document format (html, xml); leaves carry value formats
			doc.Format = d.str(e.val, "/format")
		default:
			if !nodeKeys[k] {
				d.addf(e.key, "/"+escape(k), "unknown key %q", k)
				continue
			}
			d.field(root, e, "")
		}
	}
	doc.Root = root
	return doc
}

func (d *decoder) node(n *yaml.Node, ptr string) *Spec {
	s := &Spec{line: n.Line, col: n.Column}
	for _, e := range d.entries(n, ptr) {
		if !nodeKeys[e.key.Value] {
			hint := ""
			if documentKeys[e.key.Value] {
				hint = " (only allowed at the top level)"
			}
			d.addf(e.key, ptr+"/"+escape(e.key.Value), "unknown key %q%s", e.key.Value, hint)
			continue
		}
		d.field(s, e, ptr)
	}
	return s
}

func (d *decoder) field(s *Spec, e entry, ptr string) {
	k, v := e.key.Value, e.val
	fptr := ptr + "/" + k
	switch k {
	case "type":
		s.Type = d.str(v, fptr)
	case "path":
		s.Path = d.str(v, fptr)
	case "parser":
		s.Parser = d.str(v, fptr)
	case "value":
		s.Value = d.str(v, fptr)
	case "description":
		s.Description = d.str(v, fptr)
	case "pairing":
		s.Pairing = d.str(v, fptr)
	case "blank_rows":
		s.BlankRows = d.str(v, fptr)
	case "parity":
		s.Parity = d.str(v, fptr)
	case "enum_ref":
		s.EnumRef = d.str(v, fptr)
	case "pattern":
		s.Pattern = d.str(v, fptr)
	case "format":
		s.Format = d.str(v, fptr)
	case "required":
		b := d.boolean(v, fptr)
		s.Required = &b
	case "allow_blank":
		s.AllowBlank = d.boolean(v, fptr)
	case "optional":
		s.Optional = d.boolean(v, fptr)
	case "minimum":
		s.Minimum = d.number(v, fptr)
	case "exclusive_minimum":
		s.ExclusiveMinimum = d.number(v, fptr)
	case "enum":
		s.Enum = d.strings(v, fptr)
	case "items":
		s.Items = d.node(v, fptr)
	case "properties":
		for _, pe := range d.entries(v, fptr) {
			name := pe.key.Value
			s.Properties = append(s.Properties, PropSpec{Name: name, Spec: d.node(pe.val, fptr+"/"+escape(name))})
		}
	}
}

func (d *decoder) str(n *yaml.Node, ptr string) string {
	if n.Kind != yaml.ScalarNode || n.Tag == "!!null" {
		d.addf(n, ptr, "expected a string")
		return ""
	}
	return n.Value
}

func (d *decoder) boolean(n *yaml.Node, ptr string) bool {
	var b bool
	if n.Kind != yaml.ScalarNode || n.Decode(&b) != nil {
		d.addf(n, ptr, "expected true or false, got %q", n.Value)
	}
	return b
}

func (d *decoder) number(n *yaml.Node, ptr string) *float64 {
	var f float64
	if n.Kind != yaml.ScalarNode || n.Decode(&f) != nil {
		d.addf(n, ptr, "expected a number, got %q", n.Value)
		return nil
	}
	return &f
}

func (d *decoder) strings(n *yaml.Node, ptr string) []string {
	if n.Kind != yaml.SequenceNode {
		d.addf(n, ptr, "expected a list of strings")
		return nil
	}
	out := make([]string, 0, len(n.Content))
	for i, c := range n.Content {
		out = append(out, d.str(c, fmt.Sprintf("%s/%d", ptr, i)))
	}
	return out
}

func escape(s string) string {
	s = strings.ReplaceAll(s, "~", "~0")
	return strings.ReplaceAll(s, "/", "~1")
}
