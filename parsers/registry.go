// Package parsers holds the named field parsers leaves refer to from schema
// documents.
package parsers

import (
	"fmt"
	"sort"
	"time"

	formskema "github.com/reoring/formskema"
	"github.com/reoring/formskema/document"
)

// Func converts a matched node into a value. A nil node means the leaf had no
// match and tolerates blanks; the parser returns its blank value.
type Func func(n document.Node) (any, error)

// Parser is a named Func together with the value type it produces.
type Parser struct {
	Name  string
	Type  formskema.ValueType
	Parse Func
}

// Registry resolves parser names. It is read-only once built and safe for
// concurrent use.
type Registry struct {
	m map[string]Parser
}

// NewRegistry builds a registry from ps. Duplicate names are an error.
func NewRegistry(ps ...Parser) (*Registry, error) {
	r := &Registry{m: make(map[string]Parser, len(ps))}
	for _, p := range ps {
		if err := r.add(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// With returns a copy of r extended with ps.
func (r *Registry) With(ps ...Parser) (*Registry, error) {
	out := &Registry{m: make(map[string]Parser, len(r.m)+len(ps))}
	for k, v := range r.m {
		out.m[k] = v
	}
	for _, p := range ps {
		if err := out.add(p); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *Registry) add(p Parser) error {
	if p.Name == "" || p.Parse == nil {
		return fmt.Errorf("parser needs a name and a func")
	}
	if !p.Type.Valid() {
		return fmt.Errorf("parser %q: unknown value type %q", p.Name, p.Type)
	}
	if _, dup := r.m[p.Name]; dup {
		return fmt.Errorf("parser %q registered twice", p.Name)
	}
	r.m[p.Name] = p
	return nil
}

// Lookup returns the parser registered under name.
func (r *Registry) Lookup(name string) (Parser, bool) {
	p, ok := r.m[name]
	return p, ok
}

// Names lists registered parser names in ascending order.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.m))
	for k := range r.m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Option configures the default registry.
type Option func(*options)

type options struct {
	loc *time.Location
}

// WithLocation sets the zone assumed for datetimes that carry none.
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		if loc != nil {
			o.loc = loc
		}
	}
}

// Default returns the built-in parsers.
func Default(opts ...Option) *Registry {
	o := options{loc: DefaultLocation()}
	for _, fn := range opts {
		fn(&o)
	}
	r, err := NewRegistry(
		Parser{Name: "clean_text", Type: formskema.TypeString, Parse: cleanTextFunc},
		Parser{Name: "enum", Type: formskema.TypeString, Parse: cleanTextFunc},
		Parser{Name: "text", Type: formskema.TypeString, Parse: rawTextFunc},
		Parser{Name: "upper_text", Type: formskema.TypeString, Parse: upperTextFunc},
		Parser{Name: "date", Type: formskema.TypeDate, Parse: dateFunc(o.loc)},
		Parser{Name: "datetime", Type: formskema.TypeDateTime, Parse: dateTimeFunc(o.loc)},
		Parser{Name: "checkbox", Type: formskema.TypeBoolean, Parse: checkboxFunc},
		Parser{Name: "checkbox_boolean", Type: formskema.TypeBoolean, Parse: checkboxFunc},
		Parser{Name: "number", Type: formskema.TypeNumber, Parse: numberFunc},
		Parser{Name: "integer", Type: formskema.TypeInteger, Parse: integerFunc},
	)
	if err != nil {
		panic(err)
	}
	return r
}
