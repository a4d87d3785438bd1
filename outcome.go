package formskema

import "time"

// Outcome is the result of running one document through the pipeline:
// Valid(Record) when Issues is empty, Invalid(Issues) otherwise.
type Outcome struct {
	DocumentID string
	// Origin locates the source document (a file path, a queue message id).
	// It is opaque to the pipeline.
	Origin string
	// Record is set only for valid documents.
	Record *Record
	// Partial keeps whatever the walker extracted from an invalid document so
	// sinks can write it out for inspection.
	Partial  *Record
	Issues   Issues
	Warnings Issues
	Presence PresenceMap
	Duration time.Duration
}

// Valid reports whether the document produced a record without errors.
func (o Outcome) Valid() bool { return len(o.Issues) == 0 && o.Record != nil }

// Err returns the Issues of an invalid outcome, nil otherwise.
func (o Outcome) Err() error {
	if o.Valid() {
		return nil
	}
	if len(o.Issues) == 0 {
		return singleIssue(CodeParseError, "no record produced")
	}
	return o.Issues
}

// Status is "valid" or "invalid".
func (o Outcome) Status() string {
	if o.Valid() {
		return "valid"
	}
	return "invalid"
}

// Valid builds a successful outcome.
func Valid(rec *Record, warnings Issues) Outcome {
	return Outcome{DocumentID: rec.Meta.DocumentID, Record: rec, Warnings: warnings}
}

// Invalid builds a failed outcome.
func Invalid(documentID string, iss Issues) Outcome {
	return Outcome{DocumentID: documentID, Issues: iss}
}
