// Package evaluate scores extracted field values against ground truth
// using the tolerant comparison in internal/normalize (spec.md §4.2).
package evaluate

import (
	"github.com/google/go-cmp/cmp"

	"github.com/theRebelliousNerd/parseforge/internal/normalize"
)

const epsilon = 1e-12

// FieldScore holds the confusion-matrix counts and derived P/R/F1 for one
// field across one document (or one evaluation unit).
type FieldScore struct {
	Field            string
	Precision        float64
	Recall           float64
	F1               float64
	TP               int
	FP               int
	FN               int
	ExtractedCount   int
	GroundtruthCount int
	// AllEmpty marks the spec.md §4.2 special case: both lists were
	// entirely EMPTY. Excluded from Aggregate's summed counts.
	AllEmpty bool
}

// ScoreField implements the greedy bipartite matching of spec.md §4.2:
// an extracted value matches if ValueMatch(extracted, gt) holds for any
// gt; TP = |matched GT|, FN = |GT| - TP, FP = |extracted| - |matched
// extracted|.
func ScoreField(field string, extracted, groundtruth []string) FieldScore {
	if allEmpty(extracted) && allEmpty(groundtruth) {
		return FieldScore{
			Field: field, Precision: 1, Recall: 1, F1: 1,
			AllEmpty: true,
		}
	}

	gtMatched := make([]bool, len(groundtruth))
	extractedMatchedCount := 0

	for _, e := range extracted {
		matchedAny := false
		for i, gt := range groundtruth {
			if normalize.ValueMatch(e, gt) {
				matchedAny = true
				gtMatched[i] = true
			}
		}
		if matchedAny {
			extractedMatchedCount++
		}
	}

	tp := 0
	for _, m := range gtMatched {
		if m {
			tp++
		}
	}
	fn := len(groundtruth) - tp
	fp := len(extracted) - extractedMatchedCount

	precision := float64(tp) / (float64(tp+fp) + epsilon)
	recall := float64(tp) / (float64(tp+fn) + epsilon)
	f1 := 2 * precision * recall / (precision + recall + epsilon)

	return FieldScore{
		Field:            field,
		Precision:        precision,
		Recall:           recall,
		F1:               f1,
		TP:               tp,
		FP:               fp,
		FN:               fn,
		ExtractedCount:   len(extracted),
		GroundtruthCount: len(groundtruth),
	}
}

func allEmpty(values []string) bool {
	for _, v := range values {
		if !normalize.IsEmpty(v) {
			return false
		}
	}
	return true
}

// Aggregate computes micro-averaged P/R/F1 over the summed confusion
// counts of a set of FieldScores, excluding any AllEmpty entries.
func Aggregate(scores []FieldScore) FieldScore {
	var tp, fp, fn int
	for _, s := range scores {
		if s.AllEmpty {
			continue
		}
		tp += s.TP
		fp += s.FP
		fn += s.FN
	}
	precision := float64(tp) / (float64(tp+fp) + epsilon)
	recall := float64(tp) / (float64(tp+fn) + epsilon)
	f1 := 2 * precision * recall / (precision + recall + epsilon)
	return FieldScore{
		Field:     "__aggregate__",
		Precision: precision,
		Recall:    recall,
		F1:        f1,
		TP:        tp,
		FP:        fp,
		FN:        fn,
	}
}

// Diff renders a human-readable expected-vs-actual diff for one field,
// used by CodePhase's repair prompt (SPEC_FULL.md §4.2). Backed by
// google/go-cmp instead of a hand-rolled line differ.
func Diff(field string, expected, actual []string) string {
	return cmp.Diff(expected, actual)
}
