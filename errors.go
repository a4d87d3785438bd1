package formskema

import (
	"errors"
	"fmt"
	"strings"
)

// Issue codes produced while extracting a document.
const (
	CodeMissingRequired  = "missing_required_field"
	CodeAmbiguousMatch   = "ambiguous_match"
	CodeUnparsableValue  = "unparsable_value"
	CodeMalformedPairing = "malformed_array_pairing"
	CodeParseError       = "parse_error"
)

// Issue codes produced by the value validator (schema violations).
const (
	CodeInvalidType   = "invalid_type"
	CodeRequired      = "required"
	CodeBlank         = "blank"
	CodeInvalidEnum   = "invalid_enum"
	CodePattern       = "pattern"
	CodeInvalidFormat = "invalid_format"
	CodeTooSmall      = "too_small"
	CodeUnknownKey    = "unknown_key"
	CodeDuplicateKey  = "duplicate_key"
)

// CodeSchemaMismatch is raised when a serialized record fails its exported
// JSON Schema.
const CodeSchemaMismatch = "schema_mismatch"

// IsSchemaViolation reports whether code is raised by the value validator
// rather than by extraction. Strictness mode only applies to these.
func IsSchemaViolation(code string) bool {
	switch code {
	case CodeInvalidType, CodeRequired, CodeBlank, CodeInvalidEnum,
		CodePattern, CodeInvalidFormat, CodeTooSmall, CodeUnknownKey, CodeDuplicateKey:
		return true
	}
	return false
}

// Issue represents a single diagnostic entry.
type Issue struct {
	Path    string // JSON Pointer into the record (for example: /lobbyists/2/lobbyist_last_name).
	Code    string // One of the codes listed above.
	Message string
	Hint    string // Optional: location expression, expected format, etc.
	Cause   error  // Optional: underlying error.
	// Params carries structured parameters (e.g., {"matches": 3})
	// for i18n and observability.
	Params map[string]any
	// Rule optionally records the schema keyword that produced this issue.
	Rule string
}

// Issues is a collection of diagnostics that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		// e.g. missing_required_field at /registrant/registrant_city
		fmt.Fprintf(b, "%s at %s", it.Code, it.Path)
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// Codes returns the distinct codes in first-seen order.
func (iss Issues) Codes() []string {
	seen := make(map[string]struct{}, len(iss))
	var out []string
	for _, it := range iss {
		if _, ok := seen[it.Code]; ok {
			continue
		}
		seen[it.Code] = struct{}{}
		out = append(out, it.Code)
	}
	return out
}

// Has reports whether any issue carries code.
func (iss Issues) Has(code string) bool {
	for _, it := range iss {
		if it.Code == code {
			return true
		}
	}
	return false
}

// At returns the issues whose path equals p.
func (iss Issues) At(p string) Issues {
	var out Issues
	for _, it := range iss {
		if it.Path == p {
			out = append(out, it)
		}
	}
	return out
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	dst = append(dst, more...)
	return dst
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

func singleIssue(code, msg string) Issues {
	return Issues{{Path: "/", Code: code, Message: msg}}
}
