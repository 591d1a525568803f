package record

import (
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// AdminMetadataKey is the reserved supplemental_information key that holds
// the JWE-wrapped administrative metadata token (spec.md sec 3).
const AdminMetadataKey = "administrative_metadata"

// Dumps produces the record's canonical JSON representation as a generic
// value tree: deterministic key order (applied at encode time), empty/nil
// values stripped, and administrative metadata stripped unless requested
// otherwise (spec.md sec 3, "Canonical form and hash").
func (r Record) Dumps(stripAdmin bool) (map[string]any, error) {
	body, err := r.Unstructure()
	if err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decoding unstructured record: %w", err)
	}

	if stripAdmin {
		stripAdminMetadataFromTree(raw)
	}

	pruned := pruneEmpty(raw)
	m, _ := pruned.(map[string]any)
	if m == nil {
		m = map[string]any{}
	}
	return m, nil
}

// DumpsJSON serialises Dumps' output with the fixed `$schema` URL and
// two-space indentation (spec.md sec 4.A, "dumps_json").
func (r Record) DumpsJSON(stripAdmin bool) ([]byte, error) {
	m, err := r.Dumps(stripAdmin)
	if err != nil {
		return nil, err
	}
	m["$schema"] = SchemaURL
	return json.MarshalIndent(m, "", "  ")
}

// SHA1 computes the record's content hash: the SHA-1 digest of the
// canonical form (admin metadata stripped) encoded with sorted keys, no
// indentation, and ASCII-only escaping (spec.md sec 3).
func (r Record) SHA1() (string, error) {
	m, err := r.Dumps(true)
	if err != nil {
		return "", err
	}
	canon, err := canonicalEncode(m)
	if err != nil {
		return "", err
	}
	sum := sha1.Sum(canon)
	return fmt.Sprintf("%x", sum), nil
}

func stripAdminMetadataFromTree(raw map[string]any) {
	ident, ok := raw["identification"].(map[string]any)
	if !ok {
		return
	}
	supp, ok := ident["supplemental_information"].(map[string]any)
	if !ok {
		return
	}
	delete(supp, AdminMetadataKey)
	if len(supp) == 0 {
		delete(ident, "supplemental_information")
	}
}

// pruneEmpty recursively removes nil, empty-string, empty-slice and
// empty-map values so the canonical form carries no placeholder noise
// (spec.md sec 3, "empty/None values stripped").
func pruneEmpty(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := map[string]any{}
		for k, child := range val {
			pruned := pruneEmpty(child)
			if isEmptyValue(pruned) {
				continue
			}
			out[k] = pruned
		}
		return out
	case []any:
		out := make([]any, 0, len(val))
		for _, child := range val {
			pruned := pruneEmpty(child)
			if isEmptyValue(pruned) {
				continue
			}
			out = append(out, pruned)
		}
		return out
	default:
		return v
	}
}

func isEmptyValue(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case map[string]any:
		return len(val) == 0
	case []any:
		return len(val) == 0
	default:
		return false
	}
}

// canonicalEncode serialises v with sorted object keys, no indentation,
// minimal separators and ASCII-only escaping — the Go equivalent of
// Python's json.dumps(sort_keys=True, ensure_ascii=True,
// separators=(',', ':')), which encoding/json cannot produce directly
// (DESIGN.md: justified stdlib exception, no corpus library does this).
func canonicalEncode(v any) ([]byte, error) {
	var b strings.Builder
	if err := canonicalWrite(&b, v); err != nil {
		return nil, err
	}
	return []byte(b.String()), nil
}

func canonicalWrite(b *strings.Builder, v any) error {
	switch val := v.(type) {
	case nil:
		b.WriteString("null")
	case bool:
		if val {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case string:
		canonicalWriteString(b, val)
	case float64:
		b.WriteString(strconv.FormatFloat(val, 'g', -1, 64))
	case json.Number:
		b.WriteString(val.String())
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			canonicalWriteString(b, k)
			b.WriteByte(':')
			if err := canonicalWrite(b, val[k]); err != nil {
				return err
			}
		}
		b.WriteByte('}')
	case []any:
		b.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				b.WriteByte(',')
			}
			if err := canonicalWrite(b, item); err != nil {
				return err
			}
		}
		b.WriteByte(']')
	default:
		return fmt.Errorf("canonicalEncode: unsupported value type %T", v)
	}
	return nil
}

func canonicalWriteString(b *strings.Builder, s string) {
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 || r > 0x7e {
				if r > 0xffff {
					// encode as a UTF-16 surrogate pair, matching
					// ensure_ascii=True's behaviour for astral codepoints.
					r -= 0x10000
					hi := 0xd800 + (r >> 10)
					lo := 0xdc00 + (r & 0x3ff)
					fmt.Fprintf(b, `\u%04x\u%04x`, hi, lo)
				} else {
					fmt.Fprintf(b, `\u%04x`, r)
				}
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
}
