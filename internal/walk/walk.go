// Package walk evaluates a compiled schema against a parsed document tree and
// assembles the raw record.
package walk

import (
	"context"

	formskema "github.com/reoring/formskema"
	"github.com/reoring/formskema/document"
	"github.com/reoring/formskema/schema"
)

// Options tune one evaluation.
type Options struct {
	// BlankRows applies to arrays whose schema leaves the policy at default.
	// BlankRowsDefault means keep.
	BlankRows schema.BlankRowPolicy
}

// Result is the outcome of walking one document.
type Result struct {
	Fields   *formskema.Map
	Errors   formskema.Issues
	Warnings formskema.Issues
	Presence formskema.PresenceMap
}

// Document evaluates s against the root of a parsed document. Fail-fast is
// read from ctx.
func Document(ctx context.Context, s *schema.Schema, root document.Node, opts Options) Result {
	w := newWalker(ctx, opts)
	res := Result{Presence: w.presence}
	if s.ObjectPath != nil {
		nodes := root.Select(s.ObjectPath.Path)
		if len(nodes) == 0 {
			w.fail(formskema.Root().Issue(formskema.CodeMissingRequired, "", "property", "object_path", "locate", s.ObjectPath.Path.String()))
			res.Fields = formskema.NewMap(0)
			res.Errors, res.Warnings = w.errors, w.warnings
			return res
		}
		if len(nodes) > 1 {
			w.warn(formskema.Root().Issue(formskema.CodeAmbiguousMatch, "", "property", "object_path", "matches", len(nodes)))
		}
		root = nodes[0]
	}
	res.Fields = w.object(s.Root, root, formskema.Root())
	res.Errors, res.Warnings = w.errors, w.warnings
	return res
}

// Evaluate evaluates a single schema node against a context node. Diagnostics
// are appended to res; the extracted value is returned.
func Evaluate(ctx context.Context, n schema.Node, at document.Node, path formskema.PathRef, opts Options, res *Result) any {
	w := newWalker(ctx, opts)
	if res.Presence != nil {
		w.presence = res.Presence
	}
	v := w.node(n, at, path)
	res.Errors = append(res.Errors, w.errors...)
	res.Warnings = append(res.Warnings, w.warnings...)
	res.Presence = w.presence
	return v
}

type walker struct {
	opts     Options
	failFast bool

	errors   formskema.Issues
	warnings formskema.Issues
	presence formskema.PresenceMap
}

func newWalker(ctx context.Context, opts Options) *walker {
	return &walker{
		opts:     opts,
		failFast: formskema.IsFailFast(ctx),
		presence: formskema.PresenceMap{},
	}
}

// stopped reports whether the walk must not evaluate anything further.
func (w *walker) stopped() bool {
	return w.failFast && len(w.errors) > 0
}

func (w *walker) fail(it formskema.Issue) { w.errors = append(w.errors, it) }
func (w *walker) warn(it formskema.Issue) { w.warnings = append(w.warnings, it) }

func (w *walker) node(n schema.Node, at document.Node, p formskema.PathRef) any {
	switch n := n.(type) {
	case *schema.Leaf:
		return w.leaf(n, at, p)
	case *schema.Object:
		return w.object(n, at, p)
	case *schema.Array:
		return w.array(n, at, p)
	}
	return nil
}

func (w *walker) leaf(l *schema.Leaf, at document.Node, p formskema.PathRef) any {
	ptr := p.Pointer()
	matches := at.Select(l.Locate.Path)
	switch {
	case len(matches) == 0:
		if l.AllowBlank {
			w.presence.Mark(ptr, formskema.PresenceBlank)
			return w.parse(l, nil, p)
		}
		w.presence.Mark(ptr, formskema.PresenceMissing)
		if l.Required {
			w.fail(p.Issue(formskema.CodeMissingRequired, "", "property", l.Locate.Property, "locate", l.Locate.Path.String()))
		}
		return nil
	case len(matches) > 1:
		w.presence.Mark(ptr, formskema.PresenceAmbiguous)
		w.warn(p.Issue(formskema.CodeAmbiguousMatch, "", "property", l.Locate.Property, "locate", l.Locate.Path.String(), "matches", len(matches)))
	}
	w.presence.Mark(ptr, formskema.PresenceMatched)
	return w.parse(l, matches[0], p)
}

func (w *walker) parse(l *schema.Leaf, n document.Node, p formskema.PathRef) any {
	v, err := l.Parser.Parse(n)
	if err != nil {
		it := p.Issue(formskema.CodeUnparsableValue, "", "property", l.Locate.Property, "parser", l.Parser.Name)
		it.Cause = err
		it.Hint = err.Error()
		// Only a required field can fail the document; an optional one
		// degrades to null.
		if !l.Required {
			w.warn(it)
			return nil
		}
		w.fail(it)
		return nil
	}
	return v
}

func (w *walker) object(o *schema.Object, at document.Node, p formskema.PathRef) *formskema.Map {
	out := formskema.NewMap(len(o.Properties))
	for _, prop := range o.Properties {
		if w.stopped() {
			break
		}
		out.Set(prop.Name, w.node(prop.Node, at, p.Field(prop.Name)))
	}
	return out
}

func (w *walker) array(a *schema.Array, at document.Node, p formskema.PathRef) []any {
	ptr := p.Pointer()
	items := []any{}
	containers := at.Select(a.Locate.Path)
	switch {
	case len(containers) == 0:
		w.presence.Mark(ptr, formskema.PresenceMissing)
		if !a.Optional {
			w.fail(p.Issue(formskema.CodeMissingRequired, "", "property", a.Locate.Property, "locate", a.Locate.Path.String()))
		}
		return items
	case len(containers) > 1:
		w.presence.Mark(ptr, formskema.PresenceAmbiguous)
		w.warn(p.Issue(formskema.CodeAmbiguousMatch, "", "property", a.Locate.Property, "locate", a.Locate.Path.String(), "matches", len(containers)))
	}
	w.presence.Mark(ptr, formskema.PresenceMatched)

	rows := containers[0].Select(a.ItemPath)
	if w.blankRows(a) == schema.BlankRowsDrop {
		kept := rows[:0:0]
		for _, r := range rows {
			if r.Blank() {
				w.presence.Mark(ptr, formskema.PresenceDropped)
				continue
			}
			kept = append(kept, r)
		}
		rows = kept
	}

	if a.Pairing == schema.PairingEvenOdd {
		if len(rows)%2 != 0 {
			w.fail(p.Issue(formskema.CodeMalformedPairing, "", "property", a.Locate.Property, "rows", len(rows)))
			return items
		}
		item := a.Item.(*schema.Object)
		for i := 0; i+1 < len(rows); i += 2 {
			if w.stopped() {
				break
			}
			items = w.keep(items, ptr, p.Index(len(items)), func(sub *walker, ip formskema.PathRef) any {
				return sub.pair(item, rows[i], rows[i+1], ip)
			})
		}
		return items
	}

	for _, r := range rows {
		if w.stopped() {
			break
		}
		row := r
		items = w.keep(items, ptr, p.Index(len(items)), func(sub *walker, ip formskema.PathRef) any {
			return sub.node(a.Item, row, ip)
		})
	}
	return items
}

// keep evaluates one item with a scratch walker and appends it to items
// unless the item carries no value at all, in which case the item and its
// diagnostics are discarded. The item is always evaluated in full so a
// blank row is recognized even in fail-fast mode.
func (w *walker) keep(items []any, arrayPtr string, ip formskema.PathRef, eval func(*walker, formskema.PathRef) any) []any {
	sub := &walker{opts: w.opts, presence: formskema.PresenceMap{}}
	v := eval(sub, ip)
	if isBlank(v) {
		w.presence.Mark(arrayPtr, formskema.PresenceDropped)
		return items
	}
	w.errors = append(w.errors, sub.errors...)
	w.warnings = append(w.warnings, sub.warnings...)
	for k, f := range sub.presence {
		w.presence.Mark(k, f)
	}
	return append(items, v)
}

// pair merges the even-tagged fields read from even and the odd-tagged
// fields read from odd into one item, in declared property order.
func (w *walker) pair(o *schema.Object, even, odd document.Node, p formskema.PathRef) *formskema.Map {
	out := formskema.NewMap(len(o.Properties))
	for _, prop := range o.Properties {
		if w.stopped() {
			break
		}
		l := prop.Node.(*schema.Leaf)
		row := even
		if l.Parity == schema.ParityOdd {
			row = odd
		}
		out.Set(prop.Name, w.leaf(l, row, p.Field(prop.Name)))
	}
	return out
}

func (w *walker) blankRows(a *schema.Array) schema.BlankRowPolicy {
	if a.BlankRows != schema.BlankRowsDefault {
		return a.BlankRows
	}
	if w.opts.BlankRows == schema.BlankRowsDrop {
		return schema.BlankRowsDrop
	}
	return schema.BlankRowsKeep
}

// isBlank reports whether v holds no field value: null, "", false, or a
// container of nothing but blanks.
func isBlank(v any) bool {
	switch v := v.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case bool:
		return !v
	case *formskema.Map:
		for _, k := range v.Keys() {
			x, _ := v.Get(k)
			if !isBlank(x) {
				return false
			}
		}
		return true
	case []any:
		for _, x := range v {
			if !isBlank(x) {
				return false
			}
		}
		return true
	}
	return false
}
