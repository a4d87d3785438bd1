// Package formskema extracts structured, validated records from semi-structured
// disclosure forms (HTML and XML) using a declarative schema.
//
// The root package holds the shared model:
//
// - Issues (JSON Pointer, code, message) as the error model for every stage
// - Record, an ordered value tree plus the caller-supplied document id
// - Outcome, the Valid/Invalid result of one document
// - PresenceMap, per-field match metadata recorded by the walker
//
// Layout:
// - document/ parses bytes into a navigable tree (HTML lenient, XML strict)
// - schema/ loads and compiles schema documents; parsers/ holds field parsers
// - internal/walk evaluates a schema against a tree; validate/ re-checks values
// - extract/ runs one document end to end; batch/ runs many on a worker pool
// - jsonschema/ projects a schema to JSON Schema and checks records against it
// - schemas/ embeds the built-in forms; ref/ the reference tables enum_ref names
// - adapters/ holds filesystem, SQLite and Prometheus collaborators
// - config/ and cmd/formskema make up the CLI
//
// Typical usage:
//
//	s, err := schema.LoadFile("ld1.yaml")
//	ex := extract.New(s, extract.WithMode(formskema.Lenient))
//	out := ex.Extract(ctx, extract.Input{ID: id, Format: document.HTML, Body: body})
//	if !out.Valid() { log.Print(out.Issues) }
package formskema
