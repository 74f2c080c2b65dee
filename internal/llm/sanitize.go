package llm

import (
	"encoding/json"

	"github.com/tissuetrace/donor-audit/internal/record"
)

var listKeys = []string{"Past_Medical_History", "Medications_Administered", "Infection_Markers"}

// SanitizeSections drops parts of a raw extraction whose shape is wrong so
// the rest of the document still validates: non-object sections, non-array
// Tests, non-object test entries, and non-array list fields. Returns the
// cleaned document and the JSON paths that were removed. Dropping is the
// right repair here because the merge treats malformed sections as absent
// anyway.
func SanitizeSections(doc []byte) ([]byte, []string, error) {
	var m map[string]any
	if err := json.Unmarshal(doc, &m); err != nil {
		return nil, nil, err
	}

	var dropped []string
	sections := []string{
		record.SectionIdentity,
		record.SectionClinicalSummary,
		record.SectionSerologyPanel,
		record.SectionCultures,
		record.SectionHLATypingPanel,
		record.SectionPlasmaDilution,
		record.SectionConditionalTests,
		record.SectionDocumentInventory,
		record.SectionTimestamps,
	}
	for _, name := range sections {
		v, ok := m[name]
		if !ok || v == nil {
			continue
		}
		if _, isObj := v.(map[string]any); !isObj {
			delete(m, name)
			dropped = append(dropped, name)
		}
	}

	if cs, ok := m[record.SectionClinicalSummary].(map[string]any); ok {
		for _, k := range listKeys {
			v, present := cs[k]
			if !present || v == nil {
				continue
			}
			if _, isList := v.([]any); !isList {
				delete(cs, k)
				dropped = append(dropped, record.SectionClinicalSummary+"."+k)
			}
		}
		if v, present := cs["Social_History"]; present && v != nil {
			if _, isObj := v.(map[string]any); !isObj {
				delete(cs, "Social_History")
				dropped = append(dropped, record.SectionClinicalSummary+".Social_History")
			}
		}
	}

	if sp, ok := m[record.SectionSerologyPanel].(map[string]any); ok {
		if v, present := sp["Tests"]; present && v != nil {
			if tests, isList := v.([]any); isList {
				kept := make([]any, 0, len(tests))
				for _, t := range tests {
					if _, isObj := t.(map[string]any); isObj {
						kept = append(kept, t)
					}
				}
				if len(kept) != len(tests) {
					dropped = append(dropped, record.SectionSerologyPanel+".Tests[]")
				}
				sp["Tests"] = kept
			} else {
				delete(sp, "Tests")
				dropped = append(dropped, record.SectionSerologyPanel+".Tests")
			}
		}
		if v, present := sp["Sample_Details"]; present && v != nil {
			if _, isObj := v.(map[string]any); !isObj {
				delete(sp, "Sample_Details")
				dropped = append(dropped, record.SectionSerologyPanel+".Sample_Details")
			}
		}
	}

	b, err := json.Marshal(m)
	if err != nil {
		return nil, nil, err
	}
	return b, dropped, nil
}
