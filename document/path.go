package document

import (
	"fmt"

	"github.com/antchfx/xpath"
)

// Path is a compiled location expression (XPath 1.0). Compiled paths are
// immutable and safe to share across goroutines.
type Path struct {
	src  string
	expr *xpath.Expr
}

// Compile compiles an XPath location expression.
func Compile(expr string) (*Path, error) {
	if expr == "" {
		return nil, fmt.Errorf("empty location expression")
	}
	e, err := xpath.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", expr, err)
	}
	return &Path{src: expr, expr: e}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(expr string) *Path {
	p, err := Compile(expr)
	if err != nil {
		panic(err)
	}
	return p
}

func (p *Path) String() string {
	if p == nil {
		return ""
	}
	return p.src
}

// checkedControls selects checked form controls below a row.
var checkedControls = MustCompile(`.//input[@checked]`)
