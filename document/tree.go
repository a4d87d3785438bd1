package document

import (
	"fmt"
	"strings"
)

// Node is a read-only position in a parsed document.
type Node interface {
	// Select evaluates p with this node as the context node and returns the
	// matches in document order. It never fails on zero matches.
	Select(p *Path) []Node
	// Text returns the concatenated text content of the node.
	Text() string
	// Attr returns the value of the named attribute.
	Attr(name string) (string, bool)
	// Name returns the element name (empty for text and document nodes).
	Name() string
	// Blank reports whether the node carries no text and no checked controls.
	Blank() bool
}

// Tree is a parsed document. A Tree belongs to the call that parsed it.
type Tree interface {
	Format() Format
	Root() Node
}

// Parse builds a Tree from raw bytes. HTML is parsed leniently; XML must be
// well formed.
func Parse(format Format, body []byte) (Tree, error) {
	switch format {
	case HTML:
		return parseHTML(body)
	case XML:
		return parseXML(body)
	}
	return nil, fmt.Errorf("unsupported document format %q", format)
}

func isBlankText(s string) bool {
	return strings.TrimSpace(s) == ""
}
