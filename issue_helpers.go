package formskema

import "github.com/reoring/formskema/i18n"

// IssueAt creates an Issue at the given path with provided code, message and params map.
// When msg is empty the translated message for code is used.
func IssueAt(p PathRef, code, msg string, params map[string]any) Issue {
	if msg == "" {
		msg = i18n.T(code, nil)
	}
	return Issue{Path: p.Pointer(), Code: code, Message: msg, Params: params}
}

// ParseFailure builds the single-issue error returned when a document cannot
// be turned into a tree at all.
func ParseFailure(cause error) Issues {
	iss := singleIssue(CodeParseError, i18n.T(CodeParseError, nil))
	iss[0].Cause = cause
	if cause != nil {
		iss[0].Hint = cause.Error()
	}
	return iss
}
