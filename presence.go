package formskema

import "strings"

// Presence is the bit flag the walker records for every schema field.
type Presence uint8

const (
	PresenceMatched   Presence = 1 << iota // Location expression selected at least one node.
	PresenceAmbiguous                      // More than one node matched; the first was used.
	PresenceBlank                          // No match, blank value applied (allow_blank).
	PresenceMissing                        // No match, value is null.
	PresenceDropped                        // Array row discarded as structural padding.
)

// PresenceMap maps JSON Pointers to Presence flags.
type PresenceMap map[string]Presence

// Mark ORs flag into the entry for path.
func (pm PresenceMap) Mark(path string, flag Presence) {
	if pm == nil {
		return
	}
	pm[path] |= flag
}

// Has reports whether every bit of flag is set for path.
func (pm PresenceMap) Has(path string, flag Presence) bool {
	return pm[path]&flag == flag
}

// Filter returns the entries whose path starts with one of the include prefixes
// and with none of the exclude prefixes. A nil include list keeps everything.
func (pm PresenceMap) Filter(include, exclude []string) PresenceMap {
	if pm == nil {
		return nil
	}
	out := make(PresenceMap, len(pm))
	for k, v := range pm {
		if len(include) > 0 && !hasAnyPrefix(k, include) {
			continue
		}
		if hasAnyPrefix(k, exclude) {
			continue
		}
		out[k] = v
	}
	return out
}

// Merge returns a new PresenceMap that is the bitwise-OR merge of pm and other.
func (pm PresenceMap) Merge(other PresenceMap) PresenceMap {
	if pm == nil && other == nil {
		return nil
	}
	out := make(PresenceMap, len(pm)+len(other))
	for k, v := range pm {
		out[k] = v
	}
	for k, v := range other {
		out[k] |= v
	}
	return out
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
