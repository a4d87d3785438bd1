// Package schemas embeds the built-in schema documents: the SOPR LD-1
// registration form and the Senate and House post-employment restrictions.
package schemas

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/reoring/formskema/schema"
)

//go:embed *.yaml
var files embed.FS

// Names lists the built-in schemas.
func Names() []string {
	entries, _ := fs.ReadDir(files, ".")
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(out)
	return out
}

// Source returns the YAML document of a built-in schema.
func Source(name string) ([]byte, error) {
	b, err := files.ReadFile(name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("unknown built-in schema %q (known: %s)", name, strings.Join(Names(), ", "))
	}
	return b, nil
}

// Load compiles a built-in schema.
func Load(name string, opts ...schema.Option) (*schema.Schema, error) {
	b, err := Source(name)
	if err != nil {
		return nil, err
	}
	s, err := schema.Load(b, opts...)
	if err != nil {
		return nil, fmt.Errorf("schema %s: %w", name, err)
	}
	return s, nil
}

// Resolve loads ref as a file when one exists at that path and as a
// built-in name otherwise.
func Resolve(ref string, opts ...schema.Option) (*schema.Schema, error) {
	if st, err := os.Stat(ref); err == nil && st.Mode().IsRegular() {
		return schema.LoadFile(ref, opts...)
	}
	return Load(ref, opts...)
}
