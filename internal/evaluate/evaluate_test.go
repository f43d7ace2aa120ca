package evaluate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreField_Scenario4_SubstringMatch(t *testing.T) {
	s := ScoreField("title", []string{"iPhone 15 Pro Max"}, []string{"iPhone 15"})
	assert.Equal(t, 1, s.TP)
	assert.Equal(t, 0, s.FP)
	assert.Equal(t, 0, s.FN)
	assert.InDelta(t, 1.0, s.F1, 1e-9)
}

func TestScoreField_ExactMatch_F1IsOne(t *testing.T) {
	s := ScoreField("title", []string{"a", "b"}, []string{"a", "b"})
	assert.InDelta(t, 1.0, s.F1, 1e-9)
}

func TestScoreField_AllEmptySpecialCase(t *testing.T) {
	s := ScoreField("author", []string{"", "-"}, []string{"None"})
	assert.True(t, s.AllEmpty)
	assert.Equal(t, 1.0, s.Precision)
	assert.Equal(t, 1.0, s.Recall)
	assert.Equal(t, 1.0, s.F1)
	assert.Equal(t, 0, s.TP+s.FP+s.FN)
}

func TestAggregate_ExcludesAllEmpty(t *testing.T) {
	scores := []FieldScore{
		ScoreField("title", []string{"a"}, []string{"a"}),
		ScoreField("author", []string{""}, []string{"None"}), // AllEmpty, excluded
	}
	agg := Aggregate(scores)
	assert.Equal(t, 1, agg.TP)
	assert.Equal(t, 0, agg.FP)
	assert.Equal(t, 0, agg.FN)
}

func TestScoreField_FalsePositiveAndNegative(t *testing.T) {
	s := ScoreField("f", []string{"x", "y"}, []string{"y", "z"})
	assert.Equal(t, 1, s.TP) // y matches
	assert.Equal(t, 1, s.FP) // x unmatched
	assert.Equal(t, 1, s.FN) // z unmatched
}
