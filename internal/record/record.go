// Package record defines the canonical donor extraction shape shared by the
// chunk extractor, the merge fold, and the eligibility evaluator.
package record

// Section names recognized at the top level of an extraction. Anything else
// the model emits is ignored.
const (
	SectionIdentity          = "Identity"
	SectionClinicalSummary   = "Clinical_Summary"
	SectionSerologyPanel     = "Serology_Panel"
	SectionCultures          = "Cultures"
	SectionHLATypingPanel    = "HLA_Typing_Panel"
	SectionPlasmaDilution    = "Plasma_Dilution_Details"
	SectionConditionalTests  = "Conditional_Tests"
	SectionDocumentInventory = "Document_Inventory"
	SectionTimestamps        = "Timestamps"
)

// Record holds one chunk's extraction, or the accumulated master record after
// any number of merge folds. Identity, Clinical_Summary and Serology_Panel
// carry the fields the merge and eligibility rules depend on; the remaining
// sections stay loose mappings because nothing downstream reads them by field.
type Record struct {
	Identity          Identity        `json:"Identity"`
	ClinicalSummary   ClinicalSummary `json:"Clinical_Summary"`
	SerologyPanel     SerologyPanel   `json:"Serology_Panel"`
	Cultures          map[string]any  `json:"Cultures,omitempty"`
	HLATypingPanel    map[string]any  `json:"HLA_Typing_Panel,omitempty"`
	PlasmaDilution    map[string]any  `json:"Plasma_Dilution_Details,omitempty"`
	ConditionalTests  map[string]any  `json:"Conditional_Tests,omitempty"`
	DocumentInventory map[string]any  `json:"Document_Inventory,omitempty"`
	Timestamps        map[string]any  `json:"Timestamps,omitempty"`
}

// Identity identifies the donor. Age stays untyped because charts produce it
// as a number, a string, or garbage; coercion happens at evaluation time so a
// bad value surfaces as a flag instead of a decode failure.
type Identity struct {
	DonorID      string `json:"Donor_ID,omitempty"`
	TissueID     string `json:"Tissue_ID,omitempty"`
	UNOSID       string `json:"UNOS_ID,omitempty"`
	DateOfBirth  string `json:"Date_Of_Birth,omitempty"`
	Age          any    `json:"Age,omitempty"`
	Gender       string `json:"Gender,omitempty"`
	AuthorizedBy string `json:"Authorized_By,omitempty"`
	SourcePage   int    `json:"Source_Page,omitempty"`
}

// Empty reports whether the identity carries none of the identifying fields.
// Gender and Authorized_By alone do not make an identity non-empty.
func (id Identity) Empty() bool {
	if id.DonorID != "" || id.UNOSID != "" || id.TissueID != "" || id.DateOfBirth != "" {
		return false
	}
	return !ageSet(id.Age)
}

// IsZero reports whether every field, identifying or not, is unset.
func (id Identity) IsZero() bool {
	return id.Empty() && id.Gender == "" && id.AuthorizedBy == "" && id.SourcePage == 0
}

func ageSet(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	}
	return true
}

// ClinicalSummary summarizes history and hospital course. The three list
// fields merge as ordered unions; Social_History merges key-by-key.
type ClinicalSummary struct {
	AdmittingDiagnosis      string         `json:"Admitting_Diagnosis,omitempty"`
	CauseOfDeath            string         `json:"Cause_Of_Death,omitempty"`
	PastMedicalHistory      []string       `json:"Past_Medical_History,omitempty"`
	MedicationsAdministered []string       `json:"Medications_Administered,omitempty"`
	InfectionMarkers        []string       `json:"Infection_Markers,omitempty"`
	SocialHistory           map[string]any `json:"Social_History,omitempty"`
	HospitalCourseSummary   string         `json:"Hospital_Course_Summary,omitempty"`
}

// SerologyTest is one infectious-disease test result. Test_Name is the merge
// key; an entry with a blank name never deduplicates against other chunks.
type SerologyTest struct {
	TestName       string `json:"Test_Name,omitempty"`
	Result         string `json:"Result,omitempty"`
	Interpretation string `json:"Interpretation,omitempty"`
	SourcePage     int    `json:"Source_Page,omitempty"`
}

type SerologyPanel struct {
	OverallInterpretation string         `json:"Overall_Interpretation,omitempty"`
	SampleDetails         map[string]any `json:"Sample_Details,omitempty"`
	Tests                 []SerologyTest `json:"Tests,omitempty"`
}

// Clone returns a deep copy. Merge folds build on clones so the accumulator
// handed in by the caller is never touched.
func (r Record) Clone() Record {
	out := r
	out.Identity.Age = cloneValue(r.Identity.Age)
	out.ClinicalSummary.PastMedicalHistory = cloneStrings(r.ClinicalSummary.PastMedicalHistory)
	out.ClinicalSummary.MedicationsAdministered = cloneStrings(r.ClinicalSummary.MedicationsAdministered)
	out.ClinicalSummary.InfectionMarkers = cloneStrings(r.ClinicalSummary.InfectionMarkers)
	out.ClinicalSummary.SocialHistory = CloneMap(r.ClinicalSummary.SocialHistory)
	out.SerologyPanel.SampleDetails = CloneMap(r.SerologyPanel.SampleDetails)
	out.SerologyPanel.Tests = cloneTests(r.SerologyPanel.Tests)
	out.Cultures = CloneMap(r.Cultures)
	out.HLATypingPanel = CloneMap(r.HLATypingPanel)
	out.PlasmaDilution = CloneMap(r.PlasmaDilution)
	out.ConditionalTests = CloneMap(r.ConditionalTests)
	out.DocumentInventory = CloneMap(r.DocumentInventory)
	out.Timestamps = CloneMap(r.Timestamps)
	return out
}

// CloneMap deep-copies a loose section. Nil stays nil so "absent" survives a
// clone.
func CloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return CloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

func cloneTests(tests []SerologyTest) []SerologyTest {
	if tests == nil {
		return nil
	}
	out := make([]SerologyTest, len(tests))
	copy(out, tests)
	return out
}
