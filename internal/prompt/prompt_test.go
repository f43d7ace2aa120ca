package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDiscoveryPrompt_V1(t *testing.T) {
	p, err := New()
	require.NoError(t, err)

	out, err := p.BuildDiscoveryPrompt(V1)
	require.NoError(t, err)
	assert.Contains(t, out, "field schema")
}

func TestBuildRefinementPrompt_SubstitutesSchema(t *testing.T) {
	p, err := New()
	require.NoError(t, err)

	out, err := p.BuildRefinementPrompt(V1, `{"title":{}}`)
	require.NoError(t, err)
	assert.True(t, strings.Contains(out, `{"title":{}}`))
}

func TestSystemMessage_UnknownVersion(t *testing.T) {
	p, err := New()
	require.NoError(t, err)
	_, err = p.SystemMessage(Version("v3"))
	require.Error(t, err)
}
