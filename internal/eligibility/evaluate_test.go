package eligibility

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tissuetrace/donor-audit/constants"
	"github.com/tissuetrace/donor-audit/internal/record"
)

func completeInventory() map[string]any {
	return map[string]any{
		"Has_Authorization":           true,
		"Has_DRAI":                    true,
		"Has_Infectious_Disease_Labs": true,
	}
}

func cleanRecord() record.Record {
	return record.Record{
		Identity:          record.Identity{DonorID: "D-1", Age: float64(45)},
		DocumentInventory: completeInventory(),
	}
}

func TestEvaluateEligibleDonor(t *testing.T) {
	res := Evaluate(cleanRecord())
	assert.Equal(t, constants.StatusEligible, res.Status)
	assert.Empty(t, res.Flags)
	assert.NotNil(t, res.Flags)
}

func TestEvaluateMissingAgeIsNotFlagged(t *testing.T) {
	rec := cleanRecord()
	rec.Identity.Age = nil
	res := Evaluate(rec)
	assert.Equal(t, constants.StatusEligible, res.Status)
}

func TestEvaluateAgeRules(t *testing.T) {
	tests := []struct {
		name string
		age  any
		want []string
	}{
		{"in range", float64(45), nil},
		{"lower bound", float64(15), nil},
		{"upper bound", float64(76), nil},
		{"too young", float64(14), []string{"AGE: 14 (outside eligible range 15-76)"}},
		{"too old", float64(77), []string{"AGE: 77 (outside eligible range 15-76)"}},
		{"fractional truncates", 76.9, nil},
		{"numeric string", " 80 ", []string{"AGE: 80 (outside eligible range 15-76)"}},
		{"garbage string", "unknown", []string{"AGE: invalid or missing"}},
		{"empty string", "", []string{"AGE: invalid or missing"}},
		{"list value", []any{float64(45)}, []string{"AGE: invalid or missing"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := cleanRecord()
			rec.Identity.Age = tt.age
			res := Evaluate(rec)
			if tt.want == nil {
				assert.Empty(t, res.Flags)
			} else {
				assert.Equal(t, tt.want, res.Flags)
			}
		})
	}
}

func TestEvaluateMissingDocuments(t *testing.T) {
	rec := cleanRecord()
	rec.DocumentInventory["Has_DRAI"] = false
	delete(rec.DocumentInventory, "Has_Infectious_Disease_Labs")

	res := Evaluate(rec)
	require.Equal(t, constants.StatusReview, res.Status)
	assert.Contains(t, res.Flags, "MISSING DOCUMENTS: Has_DRAI, Has_Infectious_Disease_Labs")
}

func TestEvaluateEmptyRecordFlagsAllRequiredDocuments(t *testing.T) {
	res := Evaluate(record.Record{})
	require.Equal(t, constants.StatusReview, res.Status)
	assert.Equal(t, []string{"MISSING DOCUMENTS: Has_Authorization, Has_DRAI, Has_Infectious_Disease_Labs"}, res.Flags)
}

func TestEvaluateSerologyFlags(t *testing.T) {
	rec := cleanRecord()
	rec.SerologyPanel.Tests = []record.SerologyTest{
		{TestName: "HBsAg", Result: "Negative"},
		{TestName: "HIV-1/2 Ab", Result: "Reactive"},
		{TestName: "HCV Ab", Interpretation: "Equivocal"},
	}

	res := Evaluate(rec)
	require.Equal(t, constants.StatusReview, res.Status)
	assert.Equal(t, []string{
		"INFECTIOUS DISEASE: HIV-1/2 Ab (Reactive)",
		"INFECTIOUS DISEASE: HCV Ab (Equivocal)",
	}, res.Flags)
}

func TestEvaluateCMVIgGExemption(t *testing.T) {
	rec := cleanRecord()
	rec.SerologyPanel.Tests = []record.SerologyTest{
		{TestName: "CMV IgG", Result: "Positive"},
		{TestName: "CMV Total Ab (IgG+IgM)", Result: "Reactive"},
		{TestName: "CMV IgM", Result: "Positive"},
	}

	res := Evaluate(rec)
	// Only the IgM-only test flags; any name containing both CMV and IgG is
	// expected seropositivity.
	assert.Equal(t, []string{"INFECTIOUS DISEASE: CMV IgM (Positive)"}, res.Flags)
}

func TestEvaluateInfectionMarkers(t *testing.T) {
	rec := cleanRecord()
	rec.ClinicalSummary.InfectionMarkers = []string{"Sepsis", "WBC > 15"}

	res := Evaluate(rec)
	assert.Contains(t, res.Flags, "INFECTION MARKERS: Sepsis, WBC > 15")
}

func TestEvaluatePostTransfusionNeedsPlasmaDilution(t *testing.T) {
	rec := cleanRecord()
	rec.SerologyPanel.SampleDetails = map[string]any{"Transfusion_Status": "Post-transfusion"}

	res := Evaluate(rec)
	assert.Contains(t, res.Flags, "Post-transfusion sample but Plasma Dilution form missing")

	rec.DocumentInventory["Has_Plasma_Dilution"] = true
	res = Evaluate(rec)
	assert.Empty(t, res.Flags)
}

func TestEvaluatePreTransfusionDoesNotNeedForm(t *testing.T) {
	rec := cleanRecord()
	rec.SerologyPanel.SampleDetails = map[string]any{"Transfusion_Status": "Pre-transfusion"}
	res := Evaluate(rec)
	assert.Empty(t, res.Flags)
}

func TestEvaluateHighRiskDrugUse(t *testing.T) {
	tests := []struct {
		name    string
		drugUse any
		flagged bool
	}{
		{"iv use", "IV drug use reported", true},
		{"heroin", "Heroin, last use 2019", true},
		{"meth", "Methamphetamine", true},
		{"injection", "injection drug history", true},
		{"marijuana only", "marijuana occasionally", false},
		{"denied", "", false},
		{"absent", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := cleanRecord()
			if tt.drugUse != nil {
				rec.ClinicalSummary.SocialHistory = map[string]any{"Drug_Use": tt.drugUse}
			}
			res := Evaluate(rec)
			if tt.flagged {
				require.Len(t, res.Flags, 1)
				assert.Contains(t, res.Flags[0], "HIGH RISK: Drug use detected")
			} else {
				assert.Empty(t, res.Flags)
			}
		})
	}
}

func TestEvaluatePlasmaDilutionOutcome(t *testing.T) {
	rec := cleanRecord()
	rec.PlasmaDilution = map[string]any{"Outcome": "Unacceptable"}
	res := Evaluate(rec)
	assert.Contains(t, res.Flags, "PLASMA DILUTION: Outcome is Unacceptable")

	rec.PlasmaDilution["Outcome"] = "Acceptable"
	res = Evaluate(rec)
	assert.Empty(t, res.Flags)
}

func TestEvaluateFlagOrderIsRuleOrder(t *testing.T) {
	rec := record.Record{
		Identity: record.Identity{DonorID: "D-1", Age: float64(80)},
		ClinicalSummary: record.ClinicalSummary{
			InfectionMarkers: []string{"Bacteremia"},
			SocialHistory:    map[string]any{"Drug_Use": "IV heroin"},
		},
		SerologyPanel: record.SerologyPanel{
			Tests: []record.SerologyTest{{TestName: "HBsAg", Result: "Positive"}},
		},
		PlasmaDilution: map[string]any{"Outcome": "Unacceptable"},
	}

	res := Evaluate(rec)
	require.Equal(t, constants.StatusReview, res.Status)
	assert.Equal(t, []string{
		"AGE: 80 (outside eligible range 15-76)",
		"MISSING DOCUMENTS: Has_Authorization, Has_DRAI, Has_Infectious_Disease_Labs",
		"INFECTIOUS DISEASE: HBsAg (Positive)",
		"INFECTION MARKERS: Bacteremia",
		"HIGH RISK: Drug use detected (IV heroin)",
		"PLASMA DILUTION: Outcome is Unacceptable",
	}, res.Flags)
}

func TestEvaluateIsPure(t *testing.T) {
	rec := cleanRecord()
	rec.SerologyPanel.Tests = []record.SerologyTest{{TestName: "HBsAg", Result: "Positive"}}
	before := rec.Clone()

	first := Evaluate(rec)
	second := Evaluate(rec)
	assert.Equal(t, first, second)
	assert.Equal(t, before, rec)
}
