package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tissuetrace/donor-audit/internal/record"
)

func TestMergeIdentityFirstWriterWins(t *testing.T) {
	acc := record.Record{Identity: record.Identity{DonorID: "D-100", Age: float64(45)}}
	incoming := record.Record{Identity: record.Identity{DonorID: "D-999", UNOSID: "U-1", Age: float64(60)}}

	got := Merge(acc, incoming)
	assert.Equal(t, "D-100", got.Identity.DonorID)
	assert.Equal(t, float64(45), got.Identity.Age)
	// Whole-section policy: nothing is filled in field-by-field.
	assert.Empty(t, got.Identity.UNOSID)
}

func TestMergeIdentityFillsEmptyAccumulator(t *testing.T) {
	acc := record.Record{}
	incoming := record.Record{Identity: record.Identity{DonorID: "D-100", Gender: "M"}}

	got := Merge(acc, incoming)
	assert.Equal(t, "D-100", got.Identity.DonorID)
	assert.Equal(t, "M", got.Identity.Gender)
}

func TestMergeIdentityIncidentalFieldsDoNotClaim(t *testing.T) {
	// Gender alone is an empty identity and must not block a later chunk
	// that carries a real identifier.
	acc := record.Record{Identity: record.Identity{Gender: "F"}}
	incoming := record.Record{Identity: record.Identity{DonorID: "D-7"}}

	got := Merge(acc, incoming)
	assert.Equal(t, "D-7", got.Identity.DonorID)

	// But it does fill a fully blank accumulator.
	got2 := Merge(record.Record{}, record.Record{Identity: record.Identity{Gender: "F"}})
	assert.Equal(t, "F", got2.Identity.Gender)
}

func TestMergeListOrderedUnion(t *testing.T) {
	acc := record.Record{ClinicalSummary: record.ClinicalSummary{
		PastMedicalHistory: []string{"HTN", "DM2"},
	}}
	incoming := record.Record{ClinicalSummary: record.ClinicalSummary{
		PastMedicalHistory: []string{"DM2", "CAD", "HTN", "COPD"},
	}}

	got := Merge(acc, incoming)
	assert.Equal(t, []string{"HTN", "DM2", "CAD", "COPD"}, got.ClinicalSummary.PastMedicalHistory)
}

func TestMergeScalarLastNonEmptyWins(t *testing.T) {
	acc := record.Record{ClinicalSummary: record.ClinicalSummary{CauseOfDeath: "Anoxia"}}

	got := Merge(acc, record.Record{ClinicalSummary: record.ClinicalSummary{CauseOfDeath: "Head trauma"}})
	assert.Equal(t, "Head trauma", got.ClinicalSummary.CauseOfDeath)

	got = Merge(got, record.Record{})
	assert.Equal(t, "Head trauma", got.ClinicalSummary.CauseOfDeath)
}

func TestMergeSocialHistoryKeyByKey(t *testing.T) {
	acc := record.Record{ClinicalSummary: record.ClinicalSummary{
		SocialHistory: map[string]any{"Smoking": "1 ppd", "Alcohol": "none"},
	}}
	incoming := record.Record{ClinicalSummary: record.ClinicalSummary{
		SocialHistory: map[string]any{"Alcohol": "social", "Drug_Use": "denied"},
	}}

	got := Merge(acc, incoming)
	assert.Equal(t, map[string]any{
		"Smoking": "1 ppd",
		"Alcohol": "social",
		"Drug_Use": "denied",
	}, got.ClinicalSummary.SocialHistory)
}

func TestMergeSerologyStickyPositive(t *testing.T) {
	positive := record.SerologyTest{TestName: "HBsAg", Result: "Positive", SourcePage: 3}
	negative := record.SerologyTest{TestName: "HBsAg", Result: "Negative", SourcePage: 9}

	// Positive first: a later negative never erases it.
	got := Merge(
		record.Record{SerologyPanel: record.SerologyPanel{Tests: []record.SerologyTest{positive}}},
		record.Record{SerologyPanel: record.SerologyPanel{Tests: []record.SerologyTest{negative}}},
	)
	require.Len(t, got.SerologyPanel.Tests, 1)
	assert.Equal(t, "Positive", got.SerologyPanel.Tests[0].Result)
	assert.Equal(t, 3, got.SerologyPanel.Tests[0].SourcePage)

	// Negative first: the positive overwrites.
	got = Merge(
		record.Record{SerologyPanel: record.SerologyPanel{Tests: []record.SerologyTest{negative}}},
		record.Record{SerologyPanel: record.SerologyPanel{Tests: []record.SerologyTest{positive}}},
	)
	require.Len(t, got.SerologyPanel.Tests, 1)
	assert.Equal(t, "Positive", got.SerologyPanel.Tests[0].Result)
}

func TestMergeSerologyStickyInterpretation(t *testing.T) {
	acc := record.Record{SerologyPanel: record.SerologyPanel{Tests: []record.SerologyTest{
		{TestName: "HCV Ab", Result: "Negative"},
	}}}
	incoming := record.Record{SerologyPanel: record.SerologyPanel{Tests: []record.SerologyTest{
		{TestName: "HCV Ab", Result: "Pending", Interpretation: "Equivocal"},
	}}}

	got := Merge(acc, incoming)
	require.Len(t, got.SerologyPanel.Tests, 1)
	assert.Equal(t, "Equivocal", got.SerologyPanel.Tests[0].Interpretation)
}

func TestMergeSerologyKeyIsTrimmedName(t *testing.T) {
	acc := record.Record{SerologyPanel: record.SerologyPanel{Tests: []record.SerologyTest{
		{TestName: "HIV-1/2 Ab", Result: "Negative"},
	}}}
	incoming := record.Record{SerologyPanel: record.SerologyPanel{Tests: []record.SerologyTest{
		{TestName: "  HIV-1/2 Ab  ", Result: "Reactive"},
	}}}

	got := Merge(acc, incoming)
	require.Len(t, got.SerologyPanel.Tests, 1)
	assert.Equal(t, "Reactive", got.SerologyPanel.Tests[0].Result)
}

func TestMergeSerologyBlankNamesNeverCollide(t *testing.T) {
	acc := record.Record{SerologyPanel: record.SerologyPanel{Tests: []record.SerologyTest{
		{TestName: "", Result: "Negative"},
		{TestName: "  ", Result: "Positive"},
	}}}
	incoming := record.Record{SerologyPanel: record.SerologyPanel{Tests: []record.SerologyTest{
		{TestName: "", Result: "Reactive"},
	}}}

	got := Merge(acc, incoming)
	assert.Len(t, got.SerologyPanel.Tests, 3)
}

func TestMergeOverallInterpretationLastNonEmpty(t *testing.T) {
	acc := record.Record{SerologyPanel: record.SerologyPanel{OverallInterpretation: "All negative"}}

	got := Merge(acc, record.Record{})
	assert.Equal(t, "All negative", got.SerologyPanel.OverallInterpretation)

	got = Merge(got, record.Record{SerologyPanel: record.SerologyPanel{OverallInterpretation: "One reactive"}})
	assert.Equal(t, "One reactive", got.SerologyPanel.OverallInterpretation)
}

func TestMergeInventoryBooleanOR(t *testing.T) {
	acc := record.Record{DocumentInventory: map[string]any{
		"Has_Authorization": true,
		"Has_DRAI":          false,
	}}
	incoming := record.Record{DocumentInventory: map[string]any{
		"Has_Authorization": false,
		"Has_DRAI":          true,
		"Has_Plasma_Dilution": false,
	}}

	got := Merge(acc, incoming)
	assert.Equal(t, true, got.DocumentInventory["Has_Authorization"])
	assert.Equal(t, true, got.DocumentInventory["Has_DRAI"])
	assert.Equal(t, false, got.DocumentInventory["Has_Plasma_Dilution"])
}

func TestMergeInventoryIdempotent(t *testing.T) {
	chunk := record.Record{DocumentInventory: map[string]any{"Has_DRAI": true, "Has_Authorization": false}}
	once := Merge(record.Record{}, chunk)
	twice := Merge(once, chunk)
	assert.Equal(t, once.DocumentInventory, twice.DocumentInventory)
}

func TestMergeInventoryNonBoolOnlyFillsAbsentKey(t *testing.T) {
	acc := record.Record{DocumentInventory: map[string]any{"Has_DRAI": false}}
	incoming := record.Record{DocumentInventory: map[string]any{
		"Has_DRAI": "yes",
		"Notes":    "faxed copy",
	}}

	got := Merge(acc, incoming)
	assert.Equal(t, false, got.DocumentInventory["Has_DRAI"])
	assert.Equal(t, "faxed copy", got.DocumentInventory["Notes"])
}

func TestMergeShallowSectionOverlay(t *testing.T) {
	acc := record.Record{PlasmaDilution: map[string]any{"Outcome": "Acceptable", "Total_Volume": float64(2100)}}
	incoming := record.Record{PlasmaDilution: map[string]any{"Outcome": "Unacceptable"}}

	got := Merge(acc, incoming)
	assert.Equal(t, "Unacceptable", got.PlasmaDilution["Outcome"])
	assert.Equal(t, float64(2100), got.PlasmaDilution["Total_Volume"])
}

func TestMergeEmptyIncomingLeavesSections(t *testing.T) {
	acc := record.Record{
		Cultures:   map[string]any{"Blood": "No growth"},
		Timestamps: map[string]any{"Collected": "2024-01-02"},
	}
	got := Merge(acc, record.Record{})
	assert.Equal(t, acc.Cultures, got.Cultures)
	assert.Equal(t, acc.Timestamps, got.Timestamps)
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	acc := record.Record{
		Identity: record.Identity{DonorID: "D-1"},
		ClinicalSummary: record.ClinicalSummary{
			PastMedicalHistory: []string{"HTN"},
			SocialHistory:      map[string]any{"Smoking": "no"},
		},
		DocumentInventory: map[string]any{"Has_DRAI": false},
	}
	incoming := record.Record{
		ClinicalSummary: record.ClinicalSummary{
			PastMedicalHistory: []string{"CAD"},
			SocialHistory:      map[string]any{"Smoking": "yes"},
		},
		DocumentInventory: map[string]any{"Has_DRAI": true},
	}
	accBefore := acc.Clone()
	incomingBefore := incoming.Clone()

	got := Merge(acc, incoming)
	got.ClinicalSummary.SocialHistory["Smoking"] = "mutated"
	got.DocumentInventory["Has_DRAI"] = "mutated"

	assert.Equal(t, accBefore, acc)
	assert.Equal(t, incomingBefore, incoming)
}

func TestFoldOrder(t *testing.T) {
	chunks := []record.Record{
		{Identity: record.Identity{DonorID: "D-first"}},
		{Identity: record.Identity{DonorID: "D-second"}},
		{ClinicalSummary: record.ClinicalSummary{CauseOfDeath: "CVA"}},
	}
	got := Fold(record.Record{}, chunks)
	assert.Equal(t, "D-first", got.Identity.DonorID)
	assert.Equal(t, "CVA", got.ClinicalSummary.CauseOfDeath)
}

func TestFoldEmptyChunksReturnsSeed(t *testing.T) {
	seed := record.Record{Identity: record.Identity{DonorID: "D-1"}}
	got := Fold(seed, nil)
	assert.Equal(t, seed.Identity, got.Identity)
}
