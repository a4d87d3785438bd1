package document

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/antchfx/xmlquery"
)

var errNoRoot = errors.New("no root element")

type xmlTree struct{ root *xmlquery.Node }

func parseXML(body []byte) (Tree, error) {
	root, err := xmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse xml: %w", err)
	}
	if !hasElement(root) {
		return nil, fmt.Errorf("parse xml: %w", errNoRoot)
	}
	return &xmlTree{root: root}, nil
}

func hasElement(doc *xmlquery.Node) bool {
	for c := doc.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode {
			return true
		}
	}
	return false
}

func (t *xmlTree) Format() Format { return XML }
func (t *xmlTree) Root() Node     { return xmlNode{n: t.root} }

type xmlNode struct{ n *xmlquery.Node }

func (x xmlNode) Select(p *Path) []Node {
	if p == nil {
		return nil
	}
	found := xmlquery.QuerySelectorAll(x.n, p.expr)
	if len(found) == 0 {
		return nil
	}
	out := make([]Node, len(found))
	for i, n := range found {
		out[i] = xmlNode{n: n}
	}
	return out
}

func (x xmlNode) Text() string { return x.n.InnerText() }

func (x xmlNode) Attr(name string) (string, bool) {
	for _, a := range x.n.Attr {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

func (x xmlNode) Name() string {
	if x.n.Type != xmlquery.ElementNode {
		return ""
	}
	return x.n.Data
}

func (x xmlNode) Blank() bool { return isBlankText(x.Text()) }
