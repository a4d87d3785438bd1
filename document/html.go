package document

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

type htmlTree struct{ root *html.Node }

func parseHTML(body []byte) (Tree, error) {
	// The HTML5 algorithm repairs mismatched and unclosed tags; only reader
	// failures surface here.
	root, err := htmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &htmlTree{root: root}, nil
}

func (t *htmlTree) Format() Format { return HTML }
func (t *htmlTree) Root() Node     { return htmlNode{n: t.root} }

type htmlNode struct{ n *html.Node }

func (h htmlNode) Select(p *Path) []Node {
	if p == nil {
		return nil
	}
	found := htmlquery.QuerySelectorAll(h.n, p.expr)
	if len(found) == 0 {
		return nil
	}
	out := make([]Node, len(found))
	for i, n := range found {
		out[i] = htmlNode{n: n}
	}
	return out
}

func (h htmlNode) Text() string { return htmlquery.InnerText(h.n) }

func (h htmlNode) Attr(name string) (string, bool) {
	for _, a := range h.n.Attr {
		if strings.EqualFold(a.Key, name) {
			return a.Val, true
		}
	}
	return "", false
}

func (h htmlNode) Name() string {
	if h.n.Type != html.ElementNode {
		return ""
	}
	return h.n.Data
}

func (h htmlNode) Blank() bool {
	if !isBlankText(h.Text()) {
		return false
	}
	if _, ok := h.Attr("checked"); ok {
		return false
	}
	return len(htmlquery.QuerySelectorAll(h.n, checkedControls.expr)) == 0
}
