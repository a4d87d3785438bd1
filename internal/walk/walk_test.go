package walk_test

import (
	"context"
	"testing"

	formskema "github.com/reoring/formskema"
	"github.com/reoring/formskema/document"
	"github.com/reoring/formskema/internal/walk"
	"github.com/reoring/formskema/schema"
)

func compile(t *testing.T, doc *schema.DocumentSpec) *schema.Schema {
	t.Helper()
	s, err := schema.Compile(doc)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return s
}

func run(t *testing.T, ctx context.Context, s *schema.Schema, format document.Format, body string, opts walk.Options) walk.Result {
	t.Helper()
	tree, err := document.Parse(format, []byte(body))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return walk.Document(ctx, s, tree.Root(), opts)
}

func field(t *testing.T, m *formskema.Map, k string) any {
	t.Helper()
	v, ok := m.Get(k)
	if !ok {
		t.Fatalf("field %q not set", k)
	}
	return v
}

func addressBook() *schema.Spec {
	return schema.Obj(schema.Prop("people", schema.ArrayOf(`//table[@id="people"]`, ".//tr", schema.Obj(
		schema.Prop("name", schema.Leaf("./td[1]", "clean_text").Even()),
		schema.Prop("address", schema.Leaf("./td[2]", "clean_text").Even()),
		schema.Prop("city", schema.Leaf("./td[1]", "clean_text").Odd()),
		schema.Prop("state", schema.Leaf("./td[2]", "clean_text").Odd()),
	)).EvenOdd()))
}

func TestEvenOdd_AcmeExample(t *testing.T) {
	s := compile(t, &schema.DocumentSpec{Root: addressBook()})
	body := `<table id="people">
<tr><td>Acme Corp</td><td>123 Main St</td></tr>
<tr><td>Springfield</td><td>IL</td></tr>
</table>`
	res := run(t, context.Background(), s, document.HTML, body, walk.Options{})
	if len(res.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	people := field(t, res.Fields, "people").([]any)
	if len(people) != 1 {
		t.Fatalf("want 1 item, got %d", len(people))
	}
	item := people[0].(*formskema.Map)
	want := map[string]string{"name": "Acme Corp", "address": "123 Main St", "city": "Springfield", "state": "IL"}
	for k, v := range want {
		if got := field(t, item, k); got != v {
			t.Fatalf("%s: want %q, got %v", k, v, got)
		}
	}
	if keys := item.Keys(); keys[0] != "name" || keys[3] != "state" {
		t.Fatalf("item keys out of declared order: %v", keys)
	}
}

func TestEvenOdd_RowCounts(t *testing.T) {
	s := compile(t, &schema.DocumentSpec{Root: addressBook()})
	row := `<tr><td>a</td><td>b</td></tr>`
	for _, tc := range []struct {
		rows      int
		wantItems int
		wantErr   bool
	}{
		{rows: 4, wantItems: 2},
		{rows: 6, wantItems: 3},
		{rows: 5, wantErr: true},
	} {
		body := `<table id="people">`
		for i := 0; i < tc.rows; i++ {
			body += row
		}
		body += `</table>`
		res := run(t, context.Background(), s, document.HTML, body, walk.Options{})
		if tc.wantErr {
			if got := res.Errors.At("/people"); len(got) != 1 || got[0].Code != formskema.CodeMalformedPairing {
				t.Fatalf("%d rows: want malformed_array_pairing at /people, got %v", tc.rows, res.Errors)
			}
			continue
		}
		if len(res.Errors) > 0 {
			t.Fatalf("%d rows: unexpected errors %v", tc.rows, res.Errors)
		}
		if got := len(field(t, res.Fields, "people").([]any)); got != tc.wantItems {
			t.Fatalf("%d rows: want %d items, got %d", tc.rows, tc.wantItems, got)
		}
	}
}

func TestEvenOdd_BlankRowPolicy(t *testing.T) {
	body := `<table id="people">
<tr><td>Acme Corp</td><td>123 Main St</td></tr>
<tr><td> </td><td></td></tr>
<tr><td>Springfield</td><td>IL</td></tr>
</table>`

	keep := compile(t, &schema.DocumentSpec{Root: addressBook()})
	res := run(t, context.Background(), keep, document.HTML, body, walk.Options{})
	if !res.Errors.Has(formskema.CodeMalformedPairing) {
		t.Fatalf("keep policy should pair the filler row, got %v", res.Errors)
	}

	res = run(t, context.Background(), keep, document.HTML, body, walk.Options{BlankRows: schema.BlankRowsDrop})
	if len(res.Errors) > 0 {
		t.Fatalf("engine drop policy: unexpected errors %v", res.Errors)
	}
	if !res.Presence.Has("/people", formskema.PresenceDropped) {
		t.Fatalf("dropped row not recorded in presence")
	}

	root := addressBook()
	root.Properties[0].Spec.DropBlankRows()
	drop := compile(t, &schema.DocumentSpec{Root: root})
	res = run(t, context.Background(), drop, document.HTML, body, walk.Options{})
	people := field(t, res.Fields, "people").([]any)
	if len(res.Errors) > 0 || len(people) != 1 {
		t.Fatalf("schema drop policy: errors %v, items %d", res.Errors, len(people))
	}
	if city := field(t, people[0].(*formskema.Map), "city"); city != "Springfield" {
		t.Fatalf("mis-paired after drop: %v", city)
	}
}

func TestLeaf_RequiredAndOptional(t *testing.T) {
	s := compile(t, &schema.DocumentSpec{Root: schema.Obj(
		schema.Prop("present", schema.Leaf(`//td[@id="a"]`, "clean_text")),
		schema.Prop("optional", schema.Leaf(`//td[@id="nope"]`, "clean_text").NotRequired()),
		schema.Prop("required", schema.Leaf(`//td[@id="nope"]`, "clean_text")),
	)})
	res := run(t, context.Background(), s, document.HTML, `<table><tr><td id="a"> x  y </td></tr></table>`, walk.Options{})

	if v := field(t, res.Fields, "present"); v != "x y" {
		t.Fatalf("present: got %v", v)
	}
	if v := field(t, res.Fields, "optional"); v != nil {
		t.Fatalf("optional: want nil, got %v", v)
	}
	if len(res.Errors.At("/optional")) != 0 {
		t.Fatalf("optional leaf must not error: %v", res.Errors)
	}
	if got := res.Errors.At("/required"); len(got) != 1 || got[0].Code != formskema.CodeMissingRequired {
		t.Fatalf("required: want missing_required_field, got %v", res.Errors)
	}
	if !res.Presence.Has("/required", formskema.PresenceMissing) {
		t.Fatalf("presence for /required not marked missing")
	}
}

func TestLeaf_CheckboxAllowBlank(t *testing.T) {
	s := compile(t, &schema.DocumentSpec{Root: schema.Obj(
		schema.Prop("foreign_entity", schema.Leaf(`//input[@name="foreign"]`, "checkbox").Blank()),
		schema.Prop("affiliated", schema.Leaf(`//input[@name="affiliated"]`, "checkbox").Blank()),
	)})
	res := run(t, context.Background(), s, document.HTML, `<form><input type="checkbox" name="affiliated" checked></form>`, walk.Options{})
	if len(res.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	if v := field(t, res.Fields, "foreign_entity"); v != false {
		t.Fatalf("missing checkbox: want false, got %v", v)
	}
	if v := field(t, res.Fields, "affiliated"); v != true {
		t.Fatalf("checked checkbox: want true, got %v", v)
	}
	if !res.Presence.Has("/foreign_entity", formskema.PresenceBlank) {
		t.Fatalf("blank presence not recorded")
	}
}

func TestLeaf_AmbiguousTakesFirst(t *testing.T) {
	s := compile(t, &schema.DocumentSpec{Root: schema.Obj(schema.Prop("v", schema.Leaf("//td", "clean_text")))})
	res := run(t, context.Background(), s, document.HTML, `<table><tr><td>first</td><td>second</td></tr></table>`, walk.Options{})
	if v := field(t, res.Fields, "v"); v != "first" {
		t.Fatalf("want first match, got %v", v)
	}
	if len(res.Errors) > 0 || !res.Warnings.Has(formskema.CodeAmbiguousMatch) {
		t.Fatalf("want ambiguous_match warning only, errors %v warnings %v", res.Errors, res.Warnings)
	}
}

func TestLeaf_Unparsable(t *testing.T) {
	s := compile(t, &schema.DocumentSpec{Root: schema.Obj(
		schema.Prop("when", schema.Leaf(`//td[@id="d"]`, "date")),
		schema.Prop("who", schema.Leaf(`//td[@id="w"]`, "clean_text")),
	)})
	res := run(t, context.Background(), s, document.HTML, `<table><tr><td id="d">not a date</td><td id="w">Ann</td></tr></table>`, walk.Options{})
	if got := res.Errors.At("/when"); len(got) != 1 || got[0].Code != formskema.CodeUnparsableValue || got[0].Cause == nil {
		t.Fatalf("want unparsable_value with cause, got %v", res.Errors)
	}
	if v := field(t, res.Fields, "who"); v != "Ann" {
		t.Fatalf("sibling must still be extracted, got %v", v)
	}
}

func TestLeaf_UnparsableOptionalIsWarning(t *testing.T) {
	s := compile(t, &schema.DocumentSpec{Root: schema.Obj(
		schema.Prop("amount", schema.Leaf(`//td[@id="a"]`, "number").NotRequired()),
		schema.Prop("who", schema.Leaf(`//td[@id="w"]`, "clean_text")),
	)})
	res := run(t, context.Background(), s, document.HTML, `<table><tr><td id="a">NaN</td><td id="w">Ann</td></tr></table>`, walk.Options{})
	if len(res.Errors) > 0 {
		t.Fatalf("an optional field must not fail the document: %v", res.Errors)
	}
	if got := res.Warnings.At("/amount"); len(got) != 1 || got[0].Code != formskema.CodeUnparsableValue {
		t.Fatalf("want an unparsable_value warning, got %v", res.Warnings)
	}
	if v := field(t, res.Fields, "amount"); v != nil {
		t.Fatalf("want null amount, got %v", v)
	}
}

func TestArray_BlankItemsDropped(t *testing.T) {
	s := compile(t, &schema.DocumentSpec{Root: schema.Obj(schema.Prop("lobbyists", schema.ArrayOf(`//table[@id="l"]`, ".//tr", schema.Obj(
		schema.Prop("first", schema.Leaf("./td[1]", "clean_text")),
		schema.Prop("last", schema.Leaf("./td[2]", "clean_text")),
	))))})
	body := `<table id="l">
<tr><td>Jane</td><td>Doe</td></tr>
<tr><td></td><td></td></tr>
<tr><td>John</td><td>Roe</td></tr>
</table>`
	res := run(t, context.Background(), s, document.HTML, body, walk.Options{})
	if len(res.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	items := field(t, res.Fields, "lobbyists").([]any)
	if len(items) != 2 {
		t.Fatalf("want 2 items, got %d", len(items))
	}
	if last := field(t, items[1].(*formskema.Map), "last"); last != "Roe" {
		t.Fatalf("second item: got %v", last)
	}
}

func TestArray_Container(t *testing.T) {
	s := compile(t, &schema.DocumentSpec{Root: schema.Obj(
		schema.Prop("opt", schema.ArrayOf(`//table[@id="x"]`, ".//td", schema.Leaf("", "clean_text")).Opt()),
		schema.Prop("req", schema.ArrayOf(`//table[@id="y"]`, ".//td", schema.Leaf("", "clean_text"))),
		schema.Prop("codes", schema.ArrayOf(`//table[@id="c"]`, ".//td", schema.Leaf("", "clean_text"))),
	)})
	res := run(t, context.Background(), s, document.HTML, `<table id="c"><tr><td>TAX</td><td>BUD</td></tr></table>`, walk.Options{})
	if v := field(t, res.Fields, "opt").([]any); len(v) != 0 || len(res.Errors.At("/opt")) != 0 {
		t.Fatalf("optional container: want [] without error")
	}
	if got := res.Errors.At("/req"); len(got) != 1 || got[0].Code != formskema.CodeMissingRequired {
		t.Fatalf("required container: got %v", res.Errors)
	}
	codes := field(t, res.Fields, "codes").([]any)
	if len(codes) != 2 || codes[1] != "BUD" {
		t.Fatalf("leaf items: got %v", codes)
	}
}

func TestObjectPath(t *testing.T) {
	doc := &schema.DocumentSpec{
		Format:     "xml",
		ObjectPath: "/PublicFiling/Filing",
		Root: schema.Obj(
			schema.Prop("registrant", schema.Leaf("./Registrant", "clean_text")),
		),
	}
	s := compile(t, doc)
	res := run(t, context.Background(), s, document.XML, `<PublicFiling><Filing><Registrant>Acme</Registrant></Filing></PublicFiling>`, walk.Options{})
	if len(res.Errors) > 0 || field(t, res.Fields, "registrant") != "Acme" {
		t.Fatalf("narrowed walk failed: %v", res.Errors)
	}
	res = run(t, context.Background(), s, document.XML, `<Other/>`, walk.Options{})
	if got := res.Errors.At("/"); len(got) != 1 || got[0].Code != formskema.CodeMissingRequired {
		t.Fatalf("want missing_required_field at /, got %v", res.Errors)
	}
}

func TestFailFast(t *testing.T) {
	s := compile(t, &schema.DocumentSpec{Root: schema.Obj(
		schema.Prop("a", schema.Leaf("//a", "clean_text")),
		schema.Prop("b", schema.Leaf("//b", "clean_text")),
	)})
	body := `<p>nothing here</p>`
	res := run(t, context.Background(), s, document.HTML, body, walk.Options{})
	if len(res.Errors) != 2 {
		t.Fatalf("collect mode: want 2 errors, got %v", res.Errors)
	}
	res = run(t, formskema.WithFailFast(context.Background(), true), s, document.HTML, body, walk.Options{})
	if len(res.Errors) != 1 {
		t.Fatalf("fail-fast: want 1 error, got %v", res.Errors)
	}
}

func TestEvaluate_SingleNode(t *testing.T) {
	s := compile(t, &schema.DocumentSpec{Root: schema.Obj(schema.Prop("v", schema.Leaf("//b", "integer")))})
	tree, err := document.Parse(document.HTML, []byte(`<b>1,204</b>`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	n, _ := s.Root.Lookup("v")
	var res walk.Result
	v := walk.Evaluate(context.Background(), n, tree.Root(), formskema.Root().Field("v"), walk.Options{}, &res)
	if len(res.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	if v != int64(1204) {
		t.Fatalf("want 1204, got %#v", v)
	}
}
