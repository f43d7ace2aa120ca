package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_Idempotent(t *testing.T) {
	samples := []string{"$32,520 – $34,520", "ISBN: 0312605390", "", "N/A", "Héllo &amp; Wörld"}
	for _, s := range samples {
		once := Normalize(s)
		twice := Normalize(once)
		assert.Equal(t, once, twice, "Normalize not idempotent for %q", s)
	}
}

func TestNormalize_LiteralScenario(t *testing.T) {
	assert.Equal(t, "3252034520", Normalize("$32,520 – $34,520"))
}

func TestNormalize_EntityDecoding(t *testing.T) {
	assert.Equal(t, Normalize("R&amp;D"), Normalize("RD"))
	assert.Equal(t, Normalize("it&#39;s"), Normalize("its"))
	assert.Equal(t, Normalize("caf&eacute;"), Normalize("cafe"))
}

func TestValueMatch_Scenario1(t *testing.T) {
	assert.True(t, ValueMatch("$32,520 – $34,520", "$32,520  $34,520"))
}

func TestValueMatch_Scenario2_Asymmetric(t *testing.T) {
	assert.True(t, ValueMatch("9780312605391 ISBN: 0312605390", "9780312605391"))
	assert.False(t, ValueMatch("9780312605391", "9780312605391 ISBN: 0312605390"))
}

func TestValueMatch_Scenario3_EmptyEquivalence(t *testing.T) {
	assert.True(t, ValueMatch("-", "None"))
	assert.True(t, ValueMatch("(not found in JSON)", ""))
}

func TestValueMatch_OneEmptyOneNot(t *testing.T) {
	assert.False(t, ValueMatch("", "iPhone"))
	assert.False(t, ValueMatch("iPhone", ""))
}

func TestValueMatch_ReflexiveWhenNonEmpty(t *testing.T) {
	assert.True(t, ValueMatch("iPhone 15", "iPhone 15"))
}

func TestIsEmpty(t *testing.T) {
	for _, s := range []string{"", "-", "None", "N/A", "n/a", "null", "(not found in JSON)"} {
		assert.True(t, IsEmpty(s), "expected %q to be EMPTY", s)
	}
	assert.False(t, IsEmpty("iPhone"))
}
