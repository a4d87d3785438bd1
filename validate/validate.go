// Package validate re-checks an extracted value tree against its schema.
//
// The validator accepts both the walker's output (*formskema.Map, typed
// scalars) and the generic form obtained by decoding a serialized record
// (map[string]any, []any, json.Number or float64, strings for dates), so validating a
// record, serializing it and validating it again yields the same result.
package validate

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"math/big"
	"net/mail"
	"net/url"
	"sort"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	formskema "github.com/reoring/formskema"
	"github.com/reoring/formskema/codec"
	"github.com/reoring/formskema/schema"
)

var (
	dateCodec    = codec.CalendarDate()
	instantCodec = codec.TimeRFC3339()
)

// Record validates an extracted record, including its metadata.
func Record(ctx context.Context, s *schema.Schema, rec *formskema.Record) formskema.Issues {
	v := newValidator(ctx)
	if rec == nil {
		v.add(formskema.Root().Issue(formskema.CodeRequired, "", "expected", "record"))
		return v.issues
	}
	v.documentID(s, rec.Meta.DocumentID)
	v.object(s.Root, rec.Fields, formskema.Root(), false)
	return v.issues
}

// Value validates a decoded record: a JSON object holding _meta and the
// schema's fields.
func Value(ctx context.Context, s *schema.Schema, data any) formskema.Issues {
	v := newValidator(ctx)
	fields, ok := asObject(data)
	if !ok {
		v.add(formskema.Root().Issue(formskema.CodeInvalidType, "", "expected", "object", "got", typeName(data)))
		return v.issues
	}
	meta, present := fields.get(formskema.MetaKey)
	metaPath := formskema.Root().Field(formskema.MetaKey)
	switch m, isObj := asObject(meta); {
	case !present || meta == nil:
		v.add(metaPath.Issue(formskema.CodeRequired, ""))
	case !isObj:
		v.add(metaPath.Issue(formskema.CodeInvalidType, "", "expected", "object", "got", typeName(meta)))
	default:
		id, _ := m.get("document_id")
		str, isStr := id.(string)
		if id != nil && !isStr {
			v.add(metaPath.Field("document_id").Issue(formskema.CodeInvalidType, "", "expected", "string", "got", typeName(id)))
		} else {
			v.documentID(s, str)
		}
	}
	v.object(s.Root, data, formskema.Root(), true)
	return v.issues
}

// JSON decodes a serialized record and validates it. Repeated object keys are
// reported before the decoded value is checked.
func JSON(ctx context.Context, s *schema.Schema, b []byte) formskema.Issues {
	dups, err := DuplicateKeys(b)
	if err != nil {
		return formskema.ParseFailure(err)
	}
	if len(dups) > 0 && formskema.IsFailFast(ctx) {
		return dups[:1]
	}
	var data any
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&data); err != nil {
		return formskema.ParseFailure(err)
	}
	return append(dups, Value(ctx, s, data)...)
}

type validator struct {
	failFast bool
	issues   formskema.Issues
}

func newValidator(ctx context.Context) *validator {
	return &validator{failFast: formskema.IsFailFast(ctx)}
}

func (v *validator) add(it formskema.Issue) { v.issues = append(v.issues, it) }

func (v *validator) done() bool { return v.failFast && len(v.issues) > 0 }

func (v *validator) documentID(s *schema.Schema, id string) {
	p := formskema.Root().Field(formskema.MetaKey).Field("document_id")
	if id == "" {
		v.add(p.Issue(formskema.CodeRequired, ""))
		return
	}
	if msg := checkFormat(s.DocumentIDFormat, id); msg != "" {
		it := p.Issue(formskema.CodeInvalidFormat, "", "format", string(s.DocumentIDFormat))
		it.Hint = msg
		v.add(it)
	}
}

func (v *validator) node(n schema.Node, val any, p formskema.PathRef) {
	switch n := n.(type) {
	case *schema.Leaf:
		v.leaf(n, val, p)
	case *schema.Object:
		v.object(n, val, p, false)
	case *schema.Array:
		v.array(n, val, p)
	}
}

func (v *validator) object(o *schema.Object, val any, p formskema.PathRef, root bool) {
	obj, ok := asObject(val)
	if !ok && (val != nil || root) {
		v.add(p.Issue(formskema.CodeInvalidType, "", "expected", "object", "got", typeName(val)))
		return
	}
	// A null nested object is checked as an empty one: it passes when every
	// property below it accepts null.
	for _, prop := range o.Properties {
		if v.done() {
			return
		}
		pv, _ := obj.get(prop.Name)
		v.node(prop.Node, pv, p.Field(prop.Name))
	}
	for _, k := range obj.keys() {
		if v.done() {
			return
		}
		if root && k == formskema.MetaKey {
			continue
		}
		if _, known := o.Lookup(k); !known {
			v.add(p.Field(k).Issue(formskema.CodeUnknownKey, "", "key", k))
		}
	}
}

func (v *validator) array(a *schema.Array, val any, p formskema.PathRef) {
	if val == nil {
		if !a.Optional {
			v.add(p.Issue(formskema.CodeRequired, "", "property", a.Locate.Property))
		}
		return
	}
	items, ok := val.([]any)
	if !ok {
		v.add(p.Issue(formskema.CodeInvalidType, "", "expected", "array", "got", typeName(val)))
		return
	}
	for i, it := range items {
		if v.done() {
			return
		}
		v.node(a.Item, it, p.Index(i))
	}
}

func (v *validator) leaf(l *schema.Leaf, val any, p formskema.PathRef) {
	if val == nil {
		if l.Required && !l.AllowBlank {
			v.add(p.Issue(formskema.CodeRequired, "", "property", l.Locate.Property))
		}
		return
	}
	switch l.Value {
	case formskema.TypeString:
		s, ok := val.(string)
		if !ok {
			v.typeMismatch(l, val, p)
			return
		}
		v.str(l, s, p)
	case formskema.TypeBoolean:
		if _, ok := val.(bool); !ok {
			v.typeMismatch(l, val, p)
		}
	case formskema.TypeNumber, formskema.TypeInteger:
		f, ok := toFloat(val)
		if !ok || (l.Value == formskema.TypeInteger && !isInteger(val, f)) {
			v.typeMismatch(l, val, p)
			return
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			v.add(p.Issue(formskema.CodeInvalidType, "", "expected", string(l.Value), "got", "non-finite number"))
			return
		}
		v.bounds(l, f, p)
	case formskema.TypeDate:
		if !isDate(val) {
			v.typeMismatch(l, val, p)
		}
	case formskema.TypeDateTime:
		if !isDate(val) && !isDateTime(val) {
			v.typeMismatch(l, val, p)
		}
	}
}

func (v *validator) typeMismatch(l *schema.Leaf, val any, p formskema.PathRef) {
	v.add(p.Issue(formskema.CodeInvalidType, "", "expected", string(l.Value), "got", typeName(val)))
}

func (v *validator) str(l *schema.Leaf, s string, p formskema.PathRef) {
	if s == "" {
		if !l.AllowBlank {
			v.add(p.Issue(formskema.CodeBlank, "", "property", l.Locate.Property))
		}
		return
	}
	if l.HasEnum() && !l.InEnum(s) {
		it := p.Issue(formskema.CodeInvalidEnum, "", "value", s)
		if l.EnumRef != "" {
			it.Params["table"] = l.EnumRef
		} else {
			it.Params["allowed"] = l.Enum
		}
		it.Rule = "enum"
		v.add(it)
	}
	if l.Pattern != nil && !l.Pattern.MatchString(s) {
		it := p.Issue(formskema.CodePattern, "", "pattern", l.Pattern.String(), "value", s)
		it.Rule = "pattern"
		v.add(it)
	}
	if msg := checkFormat(l.Format, s); msg != "" {
		it := p.Issue(formskema.CodeInvalidFormat, "", "format", string(l.Format), "value", s)
		it.Hint = msg
		it.Rule = "format"
		v.add(it)
	}
}

func (v *validator) bounds(l *schema.Leaf, f float64, p formskema.PathRef) {
	if l.Minimum != nil && f < *l.Minimum {
		it := p.Issue(formskema.CodeTooSmall, "", "minimum", *l.Minimum, "value", f)
		it.Rule = "minimum"
		v.add(it)
	}
	if l.ExclusiveMinimum != nil && f <= *l.ExclusiveMinimum {
		it := p.Issue(formskema.CodeTooSmall, "", "exclusive_minimum", *l.ExclusiveMinimum, "value", f)
		it.Rule = "exclusive_minimum"
		v.add(it)
	}
}

// checkFormat returns a description of the problem, or "" when s conforms.
func checkFormat(f schema.Format, s string) string {
	switch f {
	case schema.FormatDate:
		if _, err := dateCodec.Decode(context.Background(), s); err != nil {
			return fmt.Sprintf("want %s", formskema.DateLayout)
		}
	case schema.FormatDateTime:
		if _, err := instantCodec.Decode(context.Background(), s); err != nil {
			return "want RFC 3339"
		}
	case schema.FormatEmail:
		a, err := mail.ParseAddress(s)
		if err != nil || a.Address != s {
			return "want a bare email address"
		}
	case schema.FormatURLHTTP:
		u, err := url.Parse(s)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return "want an http or https URL"
		}
	case schema.FormatUUIDHex:
		if _, err := uuid.Parse(s); err != nil {
			return "want a hex UUID"
		}
	}
	return ""
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// isInteger checks integrality on the exact digits when the value was decoded
// as a json.Number.
func isInteger(v any, f float64) bool {
	if n, ok := v.(json.Number); ok {
		r, ok := new(big.Rat).SetString(n.String())
		return ok && r.IsInt()
	}
	return f == math.Trunc(f)
}

func isDate(v any) bool {
	switch d := v.(type) {
	case formskema.Date:
		return true
	case string:
		_, err := dateCodec.Decode(context.Background(), d)
		return err == nil
	}
	return false
}

func isDateTime(v any) bool {
	switch t := v.(type) {
	case time.Time:
		_, err := instantCodec.Encode(context.Background(), t)
		return err == nil
	case string:
		_, err := instantCodec.Decode(context.Background(), t)
		return err == nil
	}
	return false
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, float32, int, int32, int64, json.Number:
		return "number"
	case []any:
		return "array"
	case map[string]any, *formskema.Map:
		return "object"
	case formskema.Date:
		return "date"
	case time.Time:
		return "datetime"
	}
	return fmt.Sprintf("%T", v)
}

// object abstracts over the two object representations.
type object struct {
	ordered *formskema.Map
	generic map[string]any
}

func asObject(v any) (object, bool) {
	switch m := v.(type) {
	case *formskema.Map:
		if m == nil {
			return object{}, false
		}
		return object{ordered: m}, true
	case map[string]any:
		return object{generic: m}, true
	}
	return object{}, false
}

func (o object) get(k string) (any, bool) {
	if o.ordered != nil {
		return o.ordered.Get(k)
	}
	v, ok := o.generic[k]
	return v, ok
}

// keys returns the object keys; generic maps are sorted so reports are
// deterministic.
func (o object) keys() []string {
	if o.ordered != nil {
		return o.ordered.Keys()
	}
	ks := make([]string, 0, len(o.generic))
	for k := range o.generic {
		ks = append(ks, k)
	}
	sort.Strings(ks)
	return ks
}
