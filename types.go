package formskema

import "fmt"

// Mode decides what happens to schema violations found after a complete
// extraction.
type Mode int

const (
	Strict  Mode = iota // Violations invalidate the document.
	Lenient             // Violations are recorded as warnings and the record is emitted.
)

func (m Mode) String() string {
	if m == Lenient {
		return "lenient"
	}
	return "strict"
}

// ParseMode maps "strict" / "lenient" to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "strict":
		return Strict, nil
	case "lenient":
		return Lenient, nil
	}
	return Strict, fmt.Errorf("unknown mode %q (want strict or lenient)", s)
}

// ValueType is the value-level type a leaf promises to produce.
type ValueType string

const (
	TypeString   ValueType = "string"
	TypeNumber   ValueType = "number"
	TypeInteger  ValueType = "integer"
	TypeBoolean  ValueType = "boolean"
	TypeDate     ValueType = "date"
	TypeDateTime ValueType = "datetime"
)

// Valid reports whether t is one of the known value types.
func (t ValueType) Valid() bool {
	switch t {
	case TypeString, TypeNumber, TypeInteger, TypeBoolean, TypeDate, TypeDateTime:
		return true
	}
	return false
}
