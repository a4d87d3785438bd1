package schema

// Spec is the uncompiled form of a schema node. The YAML loader produces
// Specs; programs can build them directly with Leaf, Obj and ArrayOf.
type Spec struct {
	Type        string
	Path        string
	Parser      string
	Value       string
	Description string

	Properties []PropSpec
	Items      *Spec
	Pairing    string
	BlankRows  string

	Required   *bool
	AllowBlank bool
	Optional   bool
	Parity     string

	Enum             []string
	EnumRef          string
	Pattern          string
	Format           string
	Minimum          *float64
	ExclusiveMinimum *float64

	line, col int
}

// PropSpec is one named property of an object Spec.
type PropSpec struct {
	Name string
	Spec *Spec
}

// DocumentSpec is the uncompiled top level of a schema document.
type DocumentSpec struct {
	Title            string
	Description      string
	Format           string
	ObjectPath       string
	DocumentIDFormat string
	Root             *Spec
}

// Leaf starts a leaf spec reading path with the named parser.
func Leaf(path, parser string) *Spec {
	return &Spec{Type: "leaf", Path: path, Parser: parser}
}

// Obj starts an object spec with properties in the given order.
func Obj(props ...PropSpec) *Spec {
	return &Spec{Type: "object", Properties: props}
}

// Prop pairs a property name with its spec.
func Prop(name string, s *Spec) PropSpec { return PropSpec{Name: name, Spec: s} }

// ArrayOf starts an array spec: path selects the container, itemPath the rows
// below it and item describes one row.
func ArrayOf(path, itemPath string, item *Spec) *Spec {
	item.Path = itemPath
	return &Spec{Type: "array", Path: path, Items: item}
}

// NotRequired lets a leaf resolve to null when nothing matches.
func (s *Spec) NotRequired() *Spec {
	f := false
	s.Required = &f
	return s
}

// Blank lets a leaf fall back to its parser's blank value.
func (s *Spec) Blank() *Spec { s.AllowBlank = true; return s }

// Opt marks an array whose container may be absent.
func (s *Spec) Opt() *Spec { s.Optional = true; return s }

// EvenOdd switches an array to paired-row extraction.
func (s *Spec) EvenOdd() *Spec { s.Pairing = "even_odd"; return s }

// DropBlankRows removes fully blank rows before pairing.
func (s *Spec) DropBlankRows() *Spec { s.BlankRows = "drop"; return s }

// Even tags a leaf as read from the first row of a pair.
func (s *Spec) Even() *Spec { s.Parity = "even"; return s }

// Odd tags a leaf as read from the second row of a pair.
func (s *Spec) Odd() *Spec { s.Parity = "odd"; return s }

// OneOf constrains a leaf to the given values.
func (s *Spec) OneOf(values ...string) *Spec { s.Enum = values; return s }

// EnumFrom constrains a leaf to a named reference table.
func (s *Spec) EnumFrom(name string) *Spec { s.EnumRef = name; return s }

// Match constrains a leaf to strings matching pattern.
func (s *Spec) Match(pattern string) *Spec { s.Pattern = pattern; return s }

// As sets the format checked by the validator.
func (s *Spec) As(format string) *Spec { s.Format = format; return s }

// Typed overrides the value type inferred from the parser.
func (s *Spec) Typed(v string) *Spec { s.Value = v; return s }

// Above sets an exclusive lower bound for numbers.
func (s *Spec) Above(v float64) *Spec { s.ExclusiveMinimum = &v; return s }

// AtLeast sets an inclusive lower bound for numbers.
func (s *Spec) AtLeast(v float64) *Spec { s.Minimum = &v; return s }
