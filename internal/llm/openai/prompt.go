package openai

import (
	"encoding/json"
	"strings"
)

const systemPrompt = `You are an expert Medical Chart Auditor.
Extract data into the requested JSON.
1. **Serology:** If Sample is 'Post-transfusion', explicitly note it.
2. **Citation Source:** Look for the '--- PAGE X ---' header above the text you are reading.
   - Every extracted field must include a 'Source_Page' integer.
   - If you extract a test result from Page 5, set "Source_Page": 5.
3. **History:** Summarize Social History (Drugs/Smoking) carefully.
4. **Inventory:** Check headers to confirm if forms (DRAI, Authorization) exist.`

// targetSchema is the field guide shown to the model. Descriptions double as
// extraction instructions; the shape mirrors record.Record.
var targetSchema = map[string]any{
	"Identity": map[string]any{
		"Donor_ID":      "String. The main ID (e.g. MTF#)",
		"Tissue_ID":     "String. (e.g. T-Number)",
		"UNOS_ID":       "String",
		"Date_Of_Birth": "YYYY-MM-DD",
		"Age":           "Integer (Derived or Explicit)",
		"Gender":        "String (M/F)",
		"Authorized_By": "String. Name/Relation of person giving consent",
		"Source_Page":   "Integer",
	},
	"Clinical_Summary": map[string]any{
		"Admitting_Diagnosis":      "String. Why were they admitted?",
		"Cause_Of_Death":           "String",
		"Past_Medical_History":     "List of Strings (e.g., ['Hypertension', 'Diabetes'])",
		"Medications_Administered": "List of Strings (Home or Hospital meds)",
		"Infection_Markers":        "List of Strings. ONLY: 'Sepsis', 'Bacteremia', 'Septic Shock', 'WBC > 15' if found in notes.",
		"Social_History": map[string]any{
			"Smoking_History": "String",
			"Alcohol_Use":     "String",
			"Drug_Use":        "String. Note any IVDA or recreational use.",
			"Source_Page":     "Integer",
		},
		"Hospital_Course_Summary": "String. Brief summary of events.",
	},
	"Serology_Panel": map[string]any{
		"Overall_Interpretation": "String (e.g. All Nonreactive)",
		"Sample_Details": map[string]any{
			"Collection_Date":       "YYYY-MM-DD HH:MM",
			"Specimen_Type":         "String (e.g. Serum, Plasma)",
			"Transfusion_Status":    "String. CRITICAL: 'Pre-transfusion' or 'Post-transfusion'",
			"Performing_Laboratory": "String. Name of lab performing testing",
			"Source_Page":           "Integer",
		},
		"Tests": []any{map[string]any{
			"Test_Name":      "String",
			"Result":         "String (Positive/Negative)",
			"Interpretation": "String (Nonreactive/Reactive/Abn Positive)",
			"Source_Page":    "Integer",
		}},
	},
	"Cultures": map[string]any{
		"Urine_Culture":       map[string]any{"Result": "String", "Collection_Date": "String", "Source_Page": "Integer"},
		"Respiratory_Culture": map[string]any{"Result": "String", "Gram_Stain": "String", "Source_Page": "Integer"},
		"Blood_Culture":       map[string]any{"Result": "String", "Source_Page": "Integer"},
		"Bioburden_Results":   map[string]any{"Result": "String", "Source_Page": "Integer"},
	},
	"HLA_Typing_Panel": map[string]any{"A": []any{"List"}, "B": []any{"List"}, "DR": []any{"List"}, "DQ": []any{"List"}},
	"Plasma_Dilution_Details": map[string]any{
		"Body_Weight":                    "String",
		"Total_Blood_Volume":             "String",
		"Calculated_Dilution_Percentage": "String",
		"Outcome":                        "String (Acceptable/Unacceptable)",
		"Source_Page":                    "Integer",
	},
	"Conditional_Tests": map[string]any{
		"Autopsy_Performed": "Boolean",
		"Autopsy_Findings":  "String. Summary of significant findings",
		"Toxicology_Screen": map[string]any{"Performed": "Boolean", "Results": "String"},
		"Source_Page":       "Integer",
	},
	"Document_Inventory": map[string]any{
		"Has_Donor_Login_Packet":      "Boolean",
		"Has_Donor_Information":       "Boolean",
		"Has_DRAI":                    "Boolean",
		"Has_Physical_Assessment":     "Boolean",
		"Has_Medical_Records_Review":  "Boolean",
		"Has_Tissue_Recovery_Info":    "Boolean",
		"Has_Plasma_Dilution":         "Boolean",
		"Has_Authorization":           "Boolean",
		"Has_Infectious_Disease_Labs": "Boolean",
		"Has_Medical_Records":         "Boolean",
		"Has_Autopsy_Report":          "Boolean",
		"Has_Toxicology_Report":       "Boolean",
		"Has_Skin_Dermal_Cultures":    "Boolean",
		"Has_Bioburden_Results":       "Boolean",
	},
	"Timestamps": map[string]any{
		"Date_Of_Death":     "YYYY-MM-DD",
		"Cross_Clamp_Time":  "YYYY-MM-DD HH:MM",
		"Recovery_Location": "String",
		"Source_Page":       "Integer",
	},
}

func buildUserPrompt(text string) string {
	var b strings.Builder
	b.WriteString("Text:\n")
	b.WriteString(text)
	b.WriteString("\n\nSchema:\n")
	b.WriteString(mustJSON(targetSchema))
	return b.String()
}

func mustJSON(v any) string {
	b, _ := json.Marshal(v)
	return string(b)
}
