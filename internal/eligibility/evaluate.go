// Package eligibility derives a donor's screening status from the merged
// record. Every rule always runs; rule order fixes flag order in the output.
package eligibility

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tissuetrace/donor-audit/constants"
	"github.com/tissuetrace/donor-audit/internal/record"
)

// highRiskDrugTerms flag a donor when any appears as a substring of the
// lower-cased Drug_Use note. Substring matching is intentionally broad.
var highRiskDrugTerms = []string{"iv", "heroin", "injection", "meth"}

// Result pairs the derived status with the human-readable reasons behind it.
// Status is fully determined by Flags: empty means ELIGIBLE, anything else
// means REVIEW. PENDING is reserved for callers that never ran evaluation.
type Result struct {
	Status constants.EligibilityStatus `json:"status"`
	Flags  []string                    `json:"flags"`
}

// Evaluate runs the screening rules over a merged donor record. It is pure:
// the record is only read, and the same input always yields the same result.
// Missing or malformed sections contribute no flags.
func Evaluate(rec record.Record) Result {
	flags := []string{}

	// Age bounds (skin/musculoskeletal). Absent age is fine; a present value
	// that cannot be read as a whole number is not.
	if age := rec.Identity.Age; age != nil {
		if n, ok := coerceAge(age); !ok {
			flags = append(flags, "AGE: invalid or missing")
		} else if n < constants.AgeMin || n > constants.AgeMax {
			flags = append(flags, fmt.Sprintf("AGE: %d (outside eligible range %d-%d)", n, constants.AgeMin, constants.AgeMax))
		}
	}

	// Mandatory paperwork: authorization, DRAI, infectious-disease labs.
	var missing []string
	for _, doc := range constants.RequiredDocuments {
		if !truthy(rec.DocumentInventory[doc]) {
			missing = append(missing, doc)
		}
	}
	if len(missing) > 0 {
		flags = append(flags, "MISSING DOCUMENTS: "+strings.Join(missing, ", "))
	}

	// Abnormal serology. CMV IgG is exempt: seropositivity there is expected
	// and must never flag.
	for _, t := range rec.SerologyPanel.Tests {
		result := strings.TrimSpace(t.Result)
		interp := strings.TrimSpace(t.Interpretation)
		if !flaggable(result) && !flaggable(interp) {
			continue
		}
		name := strings.TrimSpace(t.TestName)
		if strings.Contains(name, "CMV") && strings.Contains(name, "IgG") {
			continue
		}
		shown := result
		if shown == "" {
			shown = interp
		}
		flags = append(flags, fmt.Sprintf("INFECTIOUS DISEASE: %s (%s)", name, shown))
	}

	// Infection markers noted in the chart (Sepsis, Bacteremia, WBC > 15).
	if markers := rec.ClinicalSummary.InfectionMarkers; len(markers) > 0 {
		flags = append(flags, "INFECTION MARKERS: "+strings.Join(markers, ", "))
	}

	// A post-transfusion sample needs the plasma dilution worksheet.
	transfusion := strings.ToLower(stringValue(rec.SerologyPanel.SampleDetails["Transfusion_Status"]))
	if strings.Contains(transfusion, "post") && !truthy(rec.DocumentInventory["Has_Plasma_Dilution"]) {
		flags = append(flags, "Post-transfusion sample but Plasma Dilution form missing")
	}

	// High-risk drug use from social history.
	if drugUse, ok := rec.ClinicalSummary.SocialHistory["Drug_Use"]; ok && truthy(drugUse) {
		lowered := strings.ToLower(fmt.Sprintf("%v", drugUse))
		for _, term := range highRiskDrugTerms {
			if strings.Contains(lowered, term) {
				flags = append(flags, fmt.Sprintf("HIGH RISK: Drug use detected (%v)", drugUse))
				break
			}
		}
	}

	// Plasma dilution calculation outcome.
	if outcome, _ := rec.PlasmaDilution["Outcome"].(string); outcome == "Unacceptable" {
		flags = append(flags, "PLASMA DILUTION: Outcome is Unacceptable")
	}

	status := constants.StatusEligible
	if len(flags) > 0 {
		status = constants.StatusReview
	}
	return Result{Status: status, Flags: flags}
}

func flaggable(v string) bool {
	for _, s := range constants.SerologyFlagValues {
		if s == v {
			return true
		}
	}
	return false
}

// coerceAge reads an age out of whatever the extraction produced. Fractional
// numbers truncate; numeric strings must be whole numbers.
func coerceAge(v any) (int, bool) {
	switch t := v.(type) {
	case float64:
		return int(t), true
	case int:
		return t, true
	case int64:
		return int(t), true
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// truthy mirrors the presence test the merge policies use: nil, false, empty
// string, zero, and empty containers all count as absent.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	case int:
		return t != 0
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	}
	return true
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}
