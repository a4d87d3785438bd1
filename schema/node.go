// Package schema holds the compiled, immutable form of extraction schemas and
// the loader that builds it from YAML or JSON schema documents.
package schema

import (
	"fmt"
	"regexp"

	formskema "github.com/reoring/formskema"
	"github.com/reoring/formskema/document"
	"github.com/reoring/formskema/parsers"
)

// Kind tags the variant of a Node.
type Kind int

const (
	KindLeaf Kind = iota
	KindObject
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	}
	return "leaf"
}

// Node is one of *Leaf, *Object or *Array.
type Node interface {
	Kind() Kind
	sealed()
}

// Locate is a compiled location expression plus the property name it was
// declared under, kept for diagnostics.
type Locate struct {
	Path     *document.Path
	Property string
}

func (l Locate) String() string { return l.Property + " <" + l.Path.String() + ">" }

// Parity marks which row of an even/odd pair a leaf reads from.
type Parity int

const (
	ParityNone Parity = iota
	ParityEven
	ParityOdd
)

func (p Parity) String() string {
	switch p {
	case ParityEven:
		return "even"
	case ParityOdd:
		return "odd"
	}
	return "none"
}

// Pairing is the row model of an array.
type Pairing int

const (
	PairingNone Pairing = iota
	PairingEvenOdd
)

func (p Pairing) String() string {
	if p == PairingEvenOdd {
		return "even_odd"
	}
	return "none"
}

// BlankRowPolicy decides whether fully blank rows are removed before even/odd
// pairing. BlankRowsDefault defers to the engine setting.
type BlankRowPolicy int

const (
	BlankRowsDefault BlankRowPolicy = iota
	BlankRowsKeep
	BlankRowsDrop
)

func (p BlankRowPolicy) String() string {
	switch p {
	case BlankRowsKeep:
		return "keep"
	case BlankRowsDrop:
		return "drop"
	}
	return "default"
}

// ParseBlankRowPolicy maps "keep" / "drop" to a policy; empty is
// BlankRowsDefault.
func ParseBlankRowPolicy(s string) (BlankRowPolicy, error) {
	switch s {
	case "":
		return BlankRowsDefault, nil
	case "keep":
		return BlankRowsKeep, nil
	case "drop":
		return BlankRowsDrop, nil
	}
	return BlankRowsDefault, fmt.Errorf("unknown blank_rows %q (want keep or drop)", s)
}

// Format names a string format checked by the validator.
type Format string

const (
	FormatNone     Format = ""
	FormatDate     Format = "date"
	FormatDateTime Format = "date-time"
	FormatEmail    Format = "email"
	FormatURLHTTP  Format = "url_http"
	FormatUUIDHex  Format = "uuid_hex"
)

func (f Format) valid() bool {
	switch f {
	case FormatNone, FormatDate, FormatDateTime, FormatEmail, FormatURLHTTP, FormatUUIDHex:
		return true
	}
	return false
}

// Constraints are the value-level rules of a leaf.
type Constraints struct {
	Enum             []string
	EnumRef          string
	Pattern          *regexp.Regexp
	Format           Format
	Minimum          *float64
	ExclusiveMinimum *float64

	enumSet map[string]struct{}
}

// InEnum reports whether s belongs to the leaf's enumeration. Leaves without
// an enumeration accept everything.
func (c *Constraints) InEnum(s string) bool {
	if c.enumSet == nil {
		return true
	}
	_, ok := c.enumSet[s]
	return ok
}

// HasEnum reports whether the leaf is enum-constrained.
func (c *Constraints) HasEnum() bool { return c.enumSet != nil }

// Leaf extracts one scalar value.
type Leaf struct {
	Locate      Locate
	Parser      parsers.Parser
	Value       formskema.ValueType
	Required    bool
	AllowBlank  bool
	Parity      Parity
	Description string
	Constraints
}

// Object groups named properties. Objects never narrow the context node.
type Object struct {
	Properties  []Property
	Description string

	index map[string]int
}

// Property is one named entry of an Object, in declaration order.
type Property struct {
	Name string
	Node Node
}

// Lookup returns the property declared under name.
func (o *Object) Lookup(name string) (Node, bool) {
	i, ok := o.index[name]
	if !ok {
		return nil, false
	}
	return o.Properties[i].Node, true
}

// Array extracts a repeated group. Locate selects the container, ItemPath the
// rows below it.
type Array struct {
	Locate      Locate
	ItemPath    *document.Path
	Item        Node
	Pairing     Pairing
	Optional    bool
	BlankRows   BlankRowPolicy
	Description string
}

func (*Leaf) Kind() Kind   { return KindLeaf }
func (*Object) Kind() Kind { return KindObject }
func (*Array) Kind() Kind  { return KindArray }

func (*Leaf) sealed()   {}
func (*Object) sealed() {}
func (*Array) sealed()  {}

// Schema is a compiled schema document. It is immutable and safe to share
// across goroutines.
type Schema struct {
	Title       string
	Description string
	// Format is the document format the paths are written for; empty means
	// either.
	Format document.Format
	// ObjectPath narrows the root context before the properties are evaluated.
	ObjectPath       *Locate
	DocumentIDFormat Format
	Root             *Object
}
