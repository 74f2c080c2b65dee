// Package merge folds chunk extractions into a single master donor record.
//
// The fold is deliberately order-sensitive in two places: Identity keeps the
// first non-empty writer, and plain scalars keep the last non-empty writer.
// Serology and the document inventory are order-insensitive: an abnormal
// serology result is sticky once seen, and inventory booleans OR together.
// Callers must therefore fold chunks in page order.
package merge

import (
	"fmt"
	"strings"

	"github.com/tissuetrace/donor-audit/constants"
	"github.com/tissuetrace/donor-audit/internal/record"
)

// Merge returns a new record with the incoming chunk folded into the
// accumulator. Neither argument is modified; missing or malformed sections on
// either side merge as if absent.
func Merge(acc, incoming record.Record) record.Record {
	return record.Record{
		Identity:          mergeIdentity(acc.Identity, incoming.Identity),
		ClinicalSummary:   mergeClinicalSummary(acc.ClinicalSummary, incoming.ClinicalSummary),
		SerologyPanel:     mergeSerology(acc.SerologyPanel, incoming.SerologyPanel),
		DocumentInventory: mergeInventory(acc.DocumentInventory, incoming.DocumentInventory),
		Cultures:          mergeSection(acc.Cultures, incoming.Cultures),
		HLATypingPanel:    mergeSection(acc.HLATypingPanel, incoming.HLATypingPanel),
		PlasmaDilution:    mergeSection(acc.PlasmaDilution, incoming.PlasmaDilution),
		ConditionalTests:  mergeSection(acc.ConditionalTests, incoming.ConditionalTests),
		Timestamps:        mergeSection(acc.Timestamps, incoming.Timestamps),
	}
}

// Fold left-folds a sequence of chunk extractions into the seed, in order.
func Fold(seed record.Record, chunks []record.Record) record.Record {
	master := seed
	for _, c := range chunks {
		master = Merge(master, c)
	}
	return master
}

// mergeIdentity is first-writer-wins: once the accumulator holds a non-empty
// identity it is never replaced, field-by-field or otherwise. An incoming
// identity that is non-empty replaces an empty accumulator wholesale. As a
// fallback, an identity carrying only incidental fields (Gender, authorizer)
// still fills a completely blank accumulator.
func mergeIdentity(acc, incoming record.Identity) record.Identity {
	if acc.Empty() && !incoming.Empty() {
		return cloneIdentity(incoming)
	}
	if acc.IsZero() && !incoming.IsZero() {
		return cloneIdentity(incoming)
	}
	return cloneIdentity(acc)
}

func cloneIdentity(id record.Identity) record.Identity {
	out := id
	if l, ok := id.Age.([]any); ok {
		cp := make([]any, len(l))
		copy(cp, l)
		out.Age = cp
	}
	return out
}

func mergeClinicalSummary(acc, incoming record.ClinicalSummary) record.ClinicalSummary {
	out := record.ClinicalSummary{
		PastMedicalHistory:      unionStrings(acc.PastMedicalHistory, incoming.PastMedicalHistory),
		MedicationsAdministered: unionStrings(acc.MedicationsAdministered, incoming.MedicationsAdministered),
		InfectionMarkers:        unionStrings(acc.InfectionMarkers, incoming.InfectionMarkers),
		SocialHistory:           overlayMap(acc.SocialHistory, incoming.SocialHistory),
		AdmittingDiagnosis:      pickScalar(acc.AdmittingDiagnosis, incoming.AdmittingDiagnosis),
		CauseOfDeath:            pickScalar(acc.CauseOfDeath, incoming.CauseOfDeath),
		HospitalCourseSummary:   pickScalar(acc.HospitalCourseSummary, incoming.HospitalCourseSummary),
	}
	return out
}

// pickScalar is last-non-empty-writer: incoming wins only when it actually
// provides a value.
func pickScalar(acc, incoming string) string {
	if incoming != "" {
		return incoming
	}
	return acc
}

// unionStrings keeps accumulator elements first in their original order, then
// appends incoming elements not already present, in their original order.
func unionStrings(acc, incoming []string) []string {
	if len(incoming) == 0 {
		return cloneSlice(acc)
	}
	if len(acc) == 0 {
		return cloneSlice(incoming)
	}
	seen := make(map[string]struct{}, len(acc))
	out := make([]string, 0, len(acc)+len(incoming))
	for _, v := range acc {
		seen[v] = struct{}{}
		out = append(out, v)
	}
	for _, v := range incoming {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func cloneSlice(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

func mergeSerology(acc, incoming record.SerologyPanel) record.SerologyPanel {
	out := record.SerologyPanel{
		OverallInterpretation: acc.OverallInterpretation,
		SampleDetails:         overlayMap(acc.SampleDetails, incoming.SampleDetails),
		Tests:                 mergeTests(acc.Tests, incoming.Tests),
	}
	if incoming.OverallInterpretation != "" {
		out.OverallInterpretation = incoming.OverallInterpretation
	}
	return out
}

// mergeTests keys entries by trimmed Test_Name. A new name is appended; an
// existing name is overwritten only when the incoming entry is abnormal
// (sticky-positive), so a later negative never erases an earlier positive.
// Blank names get a per-call synthetic key and never collide across chunks.
func mergeTests(acc, incoming []record.SerologyTest) []record.SerologyTest {
	if len(acc) == 0 && len(incoming) == 0 {
		return nil
	}
	anon := 0
	key := func(t record.SerologyTest) string {
		name := strings.TrimSpace(t.TestName)
		if name == "" {
			anon++
			return fmt.Sprintf("\x00unnamed-%d", anon)
		}
		return name
	}
	index := make(map[string]int, len(acc))
	out := make([]record.SerologyTest, 0, len(acc)+len(incoming))
	for _, t := range acc {
		index[key(t)] = len(out)
		out = append(out, t)
	}
	for _, t := range incoming {
		k := key(t)
		i, exists := index[k]
		if !exists {
			index[k] = len(out)
			out = append(out, t)
			continue
		}
		if abnormal(t) {
			out[i] = t
		}
	}
	return out
}

func abnormal(t record.SerologyTest) bool {
	res := strings.TrimSpace(t.Result)
	interp := strings.TrimSpace(t.Interpretation)
	return contains(constants.StickyResults, res) || contains(constants.StickyInterpretations, interp)
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// mergeInventory ORs booleans per key. A non-boolean value is carried through
// only when the accumulator has nothing for that key.
func mergeInventory(acc, incoming map[string]any) map[string]any {
	out := make(map[string]any, len(acc)+len(incoming))
	for k, v := range acc {
		out[k] = v
	}
	for k, v := range incoming {
		if b, ok := v.(bool); ok && b {
			out[k] = true
			continue
		}
		if _, exists := out[k]; !exists {
			out[k] = v
		}
	}
	return out
}

// mergeSection is the shallow-map policy for sections no rule reads by field:
// incoming keys overwrite, everything else survives. An incoming section that
// provides nothing leaves the accumulator's value as is.
func mergeSection(acc, incoming map[string]any) map[string]any {
	if len(incoming) == 0 {
		return record.CloneMap(acc)
	}
	return overlayMap(acc, incoming)
}

// overlayMap merges incoming over acc key-by-key, returning a fresh map. When
// incoming provides nothing the accumulator's map is cloned unchanged.
func overlayMap(acc, incoming map[string]any) map[string]any {
	if len(incoming) == 0 {
		return record.CloneMap(acc)
	}
	out := make(map[string]any, len(acc)+len(incoming))
	for k, v := range acc {
		out[k] = v
	}
	for k, v := range incoming {
		out[k] = v
	}
	return out
}
