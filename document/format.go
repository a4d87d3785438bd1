package document

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format tags the markup language of a raw document.
type Format string

const (
	HTML Format = "html"
	XML  Format = "xml"
)

// ParseFormat maps a format tag to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "html", "htm":
		return HTML, nil
	case "xml":
		return XML, nil
	}
	return "", fmt.Errorf("unknown document format %q (want html or xml)", s)
}

// FormatFromPath guesses the format from a file extension.
func FormatFromPath(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return HTML, true
	case ".xml":
		return XML, true
	}
	return "", false
}
