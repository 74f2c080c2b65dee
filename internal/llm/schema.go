package llm

import "github.com/tissuetrace/donor-audit/internal/record"

// BuildChartJSONSchema returns the JSON-Schema (draft 2020-12 subset) used to
// validate raw extractions locally. It is deliberately loose: sections are
// optional and extra keys are tolerated, so validation only rejects documents
// whose declared shapes are wrong. Shape repair is the sanitizer's job.
func BuildChartJSONSchema() map[string]any {
	testProp := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"Test_Name":      map[string]any{"type": "string"},
			"Result":         map[string]any{"type": "string"},
			"Interpretation": map[string]any{"type": "string"},
			"Source_Page":    map[string]any{"type": "integer"},
		},
	}
	serology := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"Overall_Interpretation": map[string]any{"type": "string"},
			"Sample_Details":         map[string]any{"type": "object"},
			"Tests":                  map[string]any{"type": "array", "items": testProp},
		},
	}
	clinical := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"Past_Medical_History":     stringListProp(),
			"Medications_Administered": stringListProp(),
			"Infection_Markers":        stringListProp(),
			"Social_History":           map[string]any{"type": "object"},
		},
	}

	props := map[string]any{
		record.SectionIdentity:          map[string]any{"type": "object"},
		record.SectionClinicalSummary:   clinical,
		record.SectionSerologyPanel:     serology,
		record.SectionCultures:          map[string]any{"type": "object"},
		record.SectionHLATypingPanel:    map[string]any{"type": "object"},
		record.SectionPlasmaDilution:    map[string]any{"type": "object"},
		record.SectionConditionalTests:  map[string]any{"type": "object"},
		record.SectionDocumentInventory: map[string]any{"type": "object"},
		record.SectionTimestamps:        map[string]any{"type": "object"},
	}

	return map[string]any{
		"type":       "object",
		"properties": props,
	}
}

func stringListProp() map[string]any {
	return map[string]any{
		"type":  "array",
		"items": map[string]any{"type": "string"},
	}
}
