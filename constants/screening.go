package constants

// Age bounds for skin/musculoskeletal donors (closed range).
const (
	AgeMin = 15
	AgeMax = 76
)

// RequiredDocuments must all be truthy in Document_Inventory for a clean screen.
var RequiredDocuments = []string{
	"Has_Authorization",
	"Has_DRAI",
	"Has_Infectious_Disease_Labs",
}

// SerologyFlagValues are the Result/Interpretation values that raise an
// infectious-disease flag and that make a test entry sticky during merge.
var SerologyFlagValues = []string{"Positive", "Reactive", "Equivocal", "Indeterminate"}

// StickyResults and StickyInterpretations decide whether an incoming serology
// entry may overwrite an existing one for the same Test_Name.
var (
	StickyResults         = []string{"Positive", "Reactive"}
	StickyInterpretations = []string{"Reactive", "Equivocal", "Indeterminate"}
)
