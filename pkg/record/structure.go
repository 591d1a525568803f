package record

import (
	"encoding/json"
	"fmt"
)

// Structure parses a wire-form JSON record body into a Record, validating
// the `$schema` marker and relocating `identification.lineage` /
// `identification.domain_consistency` into the top-level DataQuality block
// (spec.md sec 3, "moves lineage/domain_consistency into a top-level
// data_quality block").
func Structure(data []byte) (Record, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return Record{}, fmt.Errorf("malformed record json: %w", err)
	}

	if schema, ok := raw["$schema"]; ok {
		s, isStr := schema.(string)
		if !isStr || s != SchemaURL {
			return Record{}, fmt.Errorf("unexpected $schema value: %v", schema)
		}
		delete(raw, "$schema")
	}

	ident, _ := raw["identification"].(map[string]any)
	if ident != nil {
		dq := map[string]any{}
		hasDQ := false
		if lineage, ok := ident["lineage"]; ok {
			dq["lineage_statement"] = lineage
			delete(ident, "lineage")
			hasDQ = true
		}
		if dc, ok := ident["domain_consistency"]; ok {
			dq["domain_consistency"] = dc
			delete(ident, "domain_consistency")
			hasDQ = true
		}
		if hasDQ {
			raw["data_quality"] = dq
		}
	}

	normalised, err := json.Marshal(raw)
	if err != nil {
		return Record{}, fmt.Errorf("re-encoding structured record: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(normalised, &rec); err != nil {
		return Record{}, fmt.Errorf("decoding record: %w", err)
	}
	return rec, nil
}

// StructureRevision is Structure plus the remote blob's file_revision.
func StructureRevision(data []byte, fileRevision string) (RecordRevision, error) {
	rec, err := Structure(data)
	if err != nil {
		return RecordRevision{}, err
	}
	return RecordRevision{Record: rec, FileRevision: fileRevision}, nil
}

// Unstructure is the inverse of Structure: it re-applies the fixed defaults
// (character set, language, metadata standard citation), re-inlines
// DataQuality under identification.lineage/domain_consistency, and strips
// internal-only keys. The result is the wire-form JSON body written to the
// remote repository and returned by the Record/JSON exporters (absent
// `$schema`, which dumps_json adds separately).
func (r Record) Unstructure() ([]byte, error) {
	r.Metadata.CharacterSet = DefaultCharacterSet
	r.Metadata.Language = DefaultLanguage
	r.Metadata.MetadataStandard.Title = MetadataStandardCitation

	encoded, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encoding record: %w", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(encoded, &raw); err != nil {
		return nil, fmt.Errorf("re-decoding record: %w", err)
	}

	if dq, ok := raw["data_quality"].(map[string]any); ok {
		delete(raw, "data_quality")
		ident, _ := raw["identification"].(map[string]any)
		if ident != nil {
			if ls, ok := dq["lineage_statement"]; ok {
				ident["lineage"] = ls
			}
			if dc, ok := dq["domain_consistency"]; ok {
				ident["domain_consistency"] = dc
			}
		}
	}
	delete(raw, "_schema")

	out, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("encoding unstructured record: %w", err)
	}
	return out, nil
}
