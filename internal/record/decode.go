package record

import (
	"encoding/json"
	"fmt"
)

// Decode parses a raw chunk extraction. Only an unparseable document or a
// non-object root is an error; a section of the wrong shape (a list where a
// mapping is expected, a number where a string is expected) is treated as
// absent so one malformed section never aborts a merge fold.
func Decode(data []byte) (Record, error) {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return Record{}, fmt.Errorf("decode extraction: %w", err)
	}
	return FromMap(m), nil
}

// FromMap builds a Record from an already-parsed JSON object.
func FromMap(m map[string]any) Record {
	var r Record
	if id := asMap(m[SectionIdentity]); id != nil {
		r.Identity = identityFromMap(id)
	}
	if cs := asMap(m[SectionClinicalSummary]); cs != nil {
		r.ClinicalSummary = clinicalSummaryFromMap(cs)
	}
	if sp := asMap(m[SectionSerologyPanel]); sp != nil {
		r.SerologyPanel = serologyPanelFromMap(sp)
	}
	r.Cultures = CloneMap(asMap(m[SectionCultures]))
	r.HLATypingPanel = CloneMap(asMap(m[SectionHLATypingPanel]))
	r.PlasmaDilution = CloneMap(asMap(m[SectionPlasmaDilution]))
	r.ConditionalTests = CloneMap(asMap(m[SectionConditionalTests]))
	r.DocumentInventory = CloneMap(asMap(m[SectionDocumentInventory]))
	r.Timestamps = CloneMap(asMap(m[SectionTimestamps]))
	return r
}

// UnmarshalJSON makes every JSON entry point into Record lenient, including
// jsonb columns read back from the database.
func (r *Record) UnmarshalJSON(data []byte) error {
	decoded, err := Decode(data)
	if err != nil {
		return err
	}
	*r = decoded
	return nil
}

func identityFromMap(m map[string]any) Identity {
	return Identity{
		DonorID:      asString(m["Donor_ID"]),
		TissueID:     asString(m["Tissue_ID"]),
		UNOSID:       asString(m["UNOS_ID"]),
		DateOfBirth:  asString(m["Date_Of_Birth"]),
		Age:          m["Age"],
		Gender:       asString(m["Gender"]),
		AuthorizedBy: asString(m["Authorized_By"]),
		SourcePage:   asInt(m["Source_Page"]),
	}
}

func clinicalSummaryFromMap(m map[string]any) ClinicalSummary {
	return ClinicalSummary{
		AdmittingDiagnosis:      asString(m["Admitting_Diagnosis"]),
		CauseOfDeath:            asString(m["Cause_Of_Death"]),
		PastMedicalHistory:      asStringList(m["Past_Medical_History"]),
		MedicationsAdministered: asStringList(m["Medications_Administered"]),
		InfectionMarkers:        asStringList(m["Infection_Markers"]),
		SocialHistory:           CloneMap(asMap(m["Social_History"])),
		HospitalCourseSummary:   asString(m["Hospital_Course_Summary"]),
	}
}

func serologyPanelFromMap(m map[string]any) SerologyPanel {
	panel := SerologyPanel{
		OverallInterpretation: asString(m["Overall_Interpretation"]),
		SampleDetails:         CloneMap(asMap(m["Sample_Details"])),
	}
	for _, item := range asList(m["Tests"]) {
		t := asMap(item)
		if t == nil {
			continue
		}
		panel.Tests = append(panel.Tests, SerologyTest{
			TestName:       asString(t["Test_Name"]),
			Result:         asString(t["Result"]),
			Interpretation: asString(t["Interpretation"]),
			SourcePage:     asInt(t["Source_Page"]),
		})
	}
	return panel
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func asList(v any) []any {
	l, _ := v.([]any)
	return l
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asInt(v any) int {
	switch t := v.(type) {
	case float64:
		return int(t)
	case int:
		return t
	}
	return 0
}

// asStringList keeps only string elements; the extraction schema declares
// these fields as lists of strings, so anything else is noise.
func asStringList(v any) []string {
	l := asList(v)
	if l == nil {
		return nil
	}
	out := make([]string, 0, len(l))
	for _, e := range l {
		if s, ok := e.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
