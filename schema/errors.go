package schema

import (
	"fmt"
	"strings"
)

// Problem is one defect found while compiling a schema document.
type Problem struct {
	Path string // JSON Pointer into the schema document.
	Line int    // 1-based; 0 when the spec was built in code.
	Col  int
	Msg  string
}

func (p Problem) String() string {
	if p.Line > 0 {
		return fmt.Sprintf("%d:%d %s: %s", p.Line, p.Col, p.Path, p.Msg)
	}
	return fmt.Sprintf("%s: %s", p.Path, p.Msg)
}

// Problems collects every defect of a schema document. A schema with any
// problem is rejected as a whole.
type Problems []Problem

func (ps Problems) Error() string {
	if len(ps) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "invalid schema (%d problems):", len(ps))
	for _, p := range ps {
		b.WriteString("\n  - ")
		b.WriteString(p.String())
	}
	return b.String()
}
