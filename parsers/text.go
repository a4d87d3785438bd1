package parsers

import (
	"strings"
	"unicode"

	"github.com/reoring/formskema/document"
	"golang.org/x/net/html"
)

// CleanText unescapes leftover entities, turns every run of whitespace
// (including non-breaking spaces) into one space and trims the result.
func CleanText(s string) string {
	if strings.ContainsRune(s, '&') {
		s = html.UnescapeString(s)
	}
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}

func cleanTextFunc(n document.Node) (any, error) {
	if n == nil {
		return "", nil
	}
	return CleanText(n.Text()), nil
}

func rawTextFunc(n document.Node) (any, error) {
	if n == nil {
		return "", nil
	}
	return n.Text(), nil
}

func upperTextFunc(n document.Node) (any, error) {
	if n == nil {
		return "", nil
	}
	return strings.ToUpper(CleanText(n.Text())), nil
}

// checkbox is true for a checked control or a truthy marker in the text.
func checkboxFunc(n document.Node) (any, error) {
	if n == nil {
		return false, nil
	}
	if _, ok := n.Attr("checked"); ok {
		return true, nil
	}
	switch strings.ToLower(CleanText(n.Text())) {
	case "x", "true", "yes", "y", "1", "checked", "on":
		return true, nil
	}
	return false, nil
}
