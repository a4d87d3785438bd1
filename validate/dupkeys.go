package validate

import (
	"bytes"
	"errors"
	"io"

	json "github.com/goccy/go-json"

	formskema "github.com/reoring/formskema"
)

type frame struct {
	object    bool
	path      formskema.PathRef
	keys      map[string]struct{}
	expectKey bool
	key       string
	index     int
}

// DuplicateKeys scans serialized JSON for objects that repeat a key.
// Decoding keeps only the last occurrence, so a record with duplicates could
// otherwise re-validate clean. The error is non-nil only for malformed JSON.
func DuplicateKeys(b []byte) (formskema.Issues, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	var iss formskema.Issues
	var stack []*frame

	// child returns the path of the value about to be read.
	child := func() formskema.PathRef {
		if len(stack) == 0 {
			return formskema.Root()
		}
		top := stack[len(stack)-1]
		if top.object {
			top.expectKey = true
			return top.path.Field(top.key)
		}
		p := top.path.Index(top.index)
		top.index++
		return p
	}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			if len(stack) > 0 {
				return iss, io.ErrUnexpectedEOF
			}
			return iss, nil
		}
		if err != nil {
			return iss, err
		}

		if len(stack) > 0 {
			top := stack[len(stack)-1]
			if top.object && top.expectKey {
				if d, ok := tok.(json.Delim); ok && d == '}' {
					stack = stack[:len(stack)-1]
					continue
				}
				k, _ := tok.(string)
				if _, dup := top.keys[k]; dup {
					iss = append(iss, top.path.Field(k).Issue(formskema.CodeDuplicateKey, "", "key", k))
				}
				top.keys[k] = struct{}{}
				top.key, top.expectKey = k, false
				continue
			}
		}

		switch tok {
		case json.Delim('{'):
			stack = append(stack, &frame{object: true, path: child(), keys: map[string]struct{}{}, expectKey: true})
		case json.Delim('['):
			stack = append(stack, &frame{path: child()})
		case json.Delim(']'):
			stack = stack[:len(stack)-1]
		default:
			child()
		}
	}
}
