package schema

import (
	"fmt"
	"regexp"

	formskema "github.com/reoring/formskema"
	"github.com/reoring/formskema/document"
	"github.com/reoring/formskema/parsers"
	"github.com/reoring/formskema/ref"
)

// EnumResolver resolves enum_ref names to value lists.
type EnumResolver interface {
	Enum(name string) ([]string, bool)
}

// Option configures compilation.
type Option func(*compiler)

// WithParsers sets the parser registry leaves are resolved against.
func WithParsers(r *parsers.Registry) Option {
	return func(c *compiler) {
		if r != nil {
			c.parsers = r
		}
	}
}

// WithEnums sets the resolver for enum_ref.
func WithEnums(r EnumResolver) Option {
	return func(c *compiler) {
		if r != nil {
			c.enums = r
		}
	}
}

type compiler struct {
	parsers  *parsers.Registry
	enums    EnumResolver
	problems Problems
}

func newCompiler(opts []Option) *compiler {
	c := &compiler{parsers: parsers.Default(), enums: ref.Tables()}
	for _, fn := range opts {
		fn(c)
	}
	return c
}

var selfPath = document.MustCompile(".")

// Compile checks doc against every structural invariant and returns the
// immutable Schema. All problems are reported together.
func Compile(doc *DocumentSpec, opts ...Option) (*Schema, error) {
	c := newCompiler(opts)
	return c.document(doc)
}

func (c *compiler) document(doc *DocumentSpec) (*Schema, error) {
	if doc == nil || doc.Root == nil {
		return nil, Problems{{Path: "/", Msg: "schema has no root object"}}
	}
	s := &Schema{Title: doc.Title, Description: doc.Description}
	if doc.Format != "" {
		f, err := document.ParseFormat(doc.Format)
		if err != nil {
			c.addf(doc.Root, "/format", "%v", err)
		}
		s.Format = f
	}
	if doc.ObjectPath != "" {
		p, err := document.Compile(doc.ObjectPath)
		if err != nil {
			c.addf(doc.Root, "/object_path", "%v", err)
		} else {
			s.ObjectPath = &Locate{Path: p, Property: "object_path"}
		}
	}
	s.DocumentIDFormat = Format(doc.DocumentIDFormat)
	if !s.DocumentIDFormat.valid() {
		c.addf(doc.Root, "/document_id_format", "unknown format %q", doc.DocumentIDFormat)
	}
	if doc.Root.Type != "object" {
		c.addf(doc.Root, "/type", "root node must be an object, got %q", doc.Root.Type)
	} else {
		root, _ := c.object(doc.Root, "", nodeCtx{root: true}).(*Object)
		s.Root = root
	}
	if len(c.problems) > 0 {
		return nil, c.problems
	}
	return s, nil
}

type nodeCtx struct {
	root      bool
	arrayItem bool // the node is the item of an array; its path is the item path
	evenOdd   bool // the node is a leaf below an even_odd item
}

func (c *compiler) addf(s *Spec, ptr, format string, a ...any) {
	if ptr == "" {
		ptr = "/"
	}
	p := Problem{Path: ptr, Msg: fmt.Sprintf(format, a...)}
	if s != nil {
		p.Line, p.Col = s.line, s.col
	}
	c.problems = append(c.problems, p)
}

func (c *compiler) node(s *Spec, ptr, name string, ctx nodeCtx) Node {
	if s == nil {
		c.addf(nil, ptr, "missing node")
		return nil
	}
	switch s.Type {
	case "leaf":
		return c.leaf(s, ptr, name, ctx)
	case "object":
		return c.object(s, ptr, ctx)
	case "array":
		if ctx.arrayItem {
			c.addf(s, ptr+"/type", "array items cannot be arrays")
			return nil
		}
		return c.array(s, ptr, name)
	case "":
		c.addf(s, ptr+"/type", "missing type (want leaf, object or array)")
	default:
		c.addf(s, ptr+"/type", "unknown type %q (want leaf, object or array)", s.Type)
	}
	return nil
}

func (c *compiler) leaf(s *Spec, ptr, name string, ctx nodeCtx) Node {
	l := &Leaf{Required: true, AllowBlank: s.AllowBlank, Description: s.Description}
	if s.Required != nil {
		l.Required = *s.Required
	}

	switch {
	case ctx.arrayItem:
		// the item path selects the rows; a leaf item reads each row itself
		l.Locate = Locate{Path: selfPath, Property: name}
	case s.Path == "":
		c.addf(s, ptr+"/path", "leaf needs a path")
	default:
		p, err := document.Compile(s.Path)
		if err != nil {
			c.addf(s, ptr+"/path", "%v", err)
		}
		l.Locate = Locate{Path: p, Property: name}
	}

	if s.Parser == "" {
		c.addf(s, ptr+"/parser", "leaf needs a parser")
	} else if p, ok := c.parsers.Lookup(s.Parser); !ok {
		c.addf(s, ptr+"/parser", "unknown parser %q (known: %v)", s.Parser, c.parsers.Names())
	} else {
		l.Parser = p
		l.Value = p.Type
	}
	if s.Value != "" {
		vt := formskema.ValueType(s.Value)
		if !vt.Valid() {
			c.addf(s, ptr+"/value", "unknown value type %q", s.Value)
		}
		l.Value = vt
	}

	switch s.Parity {
	case "":
		if ctx.evenOdd {
			c.addf(s, ptr+"/parity", "fields of an even_odd item need parity even or odd")
		}
	case "even", "odd":
		if !ctx.evenOdd {
			c.addf(s, ptr+"/parity", "parity is only allowed on fields of an even_odd item")
		}
		l.Parity = ParityEven
		if s.Parity == "odd" {
			l.Parity = ParityOdd
		}
	default:
		c.addf(s, ptr+"/parity", "unknown parity %q", s.Parity)
	}

	if len(s.Properties) > 0 || s.Items != nil || s.Pairing != "" || s.Optional || s.BlankRows != "" {
		c.addf(s, ptr, "leaf cannot declare properties, items, pairing, blank_rows or optional")
	}
	c.constraints(s, ptr, l)
	return l
}

func (c *compiler) constraints(s *Spec, ptr string, l *Leaf) {
	isString := l.Value == formskema.TypeString
	isNumber := l.Value == formskema.TypeNumber || l.Value == formskema.TypeInteger

	if len(s.Enum) > 0 && s.EnumRef != "" {
		c.addf(s, ptr+"/enum", "enum and enum_ref are mutually exclusive")
	}
	values := s.Enum
	if s.EnumRef != "" {
		vs, ok := c.enums.Enum(s.EnumRef)
		if !ok {
			c.addf(s, ptr+"/enum_ref", "unknown reference table %q", s.EnumRef)
		}
		values = vs
		l.EnumRef = s.EnumRef
	}
	if len(values) > 0 || s.EnumRef != "" {
		if !isString {
			c.addf(s, ptr+"/enum", "enum requires a string leaf, got %s", l.Value)
		}
		l.Enum = append([]string(nil), values...)
		l.enumSet = make(map[string]struct{}, len(values))
		for _, v := range values {
			l.enumSet[v] = struct{}{}
		}
	}

	if s.Pattern != "" {
		if !isString {
			c.addf(s, ptr+"/pattern", "pattern requires a string leaf, got %s", l.Value)
		}
		re, err := regexp.Compile(s.Pattern)
		if err != nil {
			c.addf(s, ptr+"/pattern", "%v", err)
		}
		l.Pattern = re
	}

	l.Format = Format(s.Format)
	if !l.Format.valid() {
		c.addf(s, ptr+"/format", "unknown format %q", s.Format)
	}

	if (s.Minimum != nil || s.ExclusiveMinimum != nil) && !isNumber {
		c.addf(s, ptr+"/minimum", "bounds require a number or integer leaf, got %s", l.Value)
	}
	l.Minimum, l.ExclusiveMinimum = s.Minimum, s.ExclusiveMinimum
}

func (c *compiler) object(s *Spec, ptr string, ctx nodeCtx) Node {
	o := &Object{Description: s.Description, index: make(map[string]int, len(s.Properties))}
	if s.Path != "" && !ctx.arrayItem {
		c.addf(s, ptr+"/path", "objects do not narrow the context; put paths on their fields")
	}
	if s.Parser != "" || s.Items != nil || s.Pairing != "" || s.Parity != "" {
		c.addf(s, ptr, "object cannot declare parser, items, pairing or parity")
	}
	if len(s.Properties) == 0 {
		c.addf(s, ptr+"/properties", "object needs at least one property")
	}
	for _, p := range s.Properties {
		pptr := ptr + "/properties/" + p.Name
		switch {
		case p.Name == "":
			c.addf(p.Spec, pptr, "empty property name")
			continue
		case ctx.root && p.Name == formskema.MetaKey:
			c.addf(p.Spec, pptr, "%s is reserved for record metadata", formskema.MetaKey)
			continue
		}
		if _, dup := o.index[p.Name]; dup {
			c.addf(p.Spec, pptr, "duplicate property %q", p.Name)
			continue
		}
		child := nodeCtx{}
		if ctx.evenOdd {
			child.evenOdd = true
			if p.Spec != nil && p.Spec.Type != "leaf" {
				c.addf(p.Spec, pptr+"/type", "fields of an even_odd item must be leaves")
				continue
			}
		}
		n := c.node(p.Spec, pptr, p.Name, child)
		if n == nil {
			continue
		}
		o.index[p.Name] = len(o.Properties)
		o.Properties = append(o.Properties, Property{Name: p.Name, Node: n})
	}
	return o
}

func (c *compiler) array(s *Spec, ptr, name string) Node {
	a := &Array{Optional: s.Optional, Description: s.Description}
	if s.Path == "" {
		c.addf(s, ptr+"/path", "array needs a container path")
	} else if p, err := document.Compile(s.Path); err != nil {
		c.addf(s, ptr+"/path", "%v", err)
	} else {
		a.Locate = Locate{Path: p, Property: name}
	}
	if s.Parser != "" || s.Parity != "" || s.Required != nil || s.AllowBlank {
		c.addf(s, ptr, "array cannot declare parser, parity, required or allow_blank")
	}

	switch s.Pairing {
	case "", "none":
		a.Pairing = PairingNone
	case "even_odd":
		a.Pairing = PairingEvenOdd
	default:
		c.addf(s, ptr+"/pairing", "unknown pairing %q (want none or even_odd)", s.Pairing)
	}
	if p, err := ParseBlankRowPolicy(s.BlankRows); err != nil {
		c.addf(s, ptr+"/blank_rows", "%v", err)
	} else {
		a.BlankRows = p
	}

	iptr := ptr + "/items"
	if s.Items == nil {
		c.addf(s, iptr, "array needs items")
		return a
	}
	if s.Items.Path == "" {
		c.addf(s.Items, iptr+"/path", "array items need a row path")
	} else if p, err := document.Compile(s.Items.Path); err != nil {
		c.addf(s.Items, iptr+"/path", "%v", err)
	} else {
		a.ItemPath = p
	}
	if a.Pairing == PairingEvenOdd && s.Items.Type != "object" {
		c.addf(s.Items, iptr+"/type", "even_odd items must be objects")
		return a
	}
	a.Item = c.node(s.Items, iptr, name, nodeCtx{arrayItem: true, evenOdd: a.Pairing == PairingEvenOdd})
	return a
}
