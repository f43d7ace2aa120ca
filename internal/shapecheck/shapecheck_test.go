package shapecheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validSource = `
package artifact

func Extract(simplifiedHTML string) (map[string]string, error) {
	return map[string]string{}, nil
}
`

func TestCheck_ValidSourcePasses(t *testing.T) {
	require.NoError(t, Check(validSource))
}

func TestCheck_WrongPackageNameFails(t *testing.T) {
	source := `
package main

func Extract(simplifiedHTML string) (map[string]string, error) {
	return map[string]string{}, nil
}
`
	err := Check(source)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "package artifact")
}

func TestCheck_MissingFuncFails(t *testing.T) {
	source := `
package artifact

func Other() {}
`
	err := Check(source)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Extract")
}

func TestCheck_WrongResultArityFails(t *testing.T) {
	source := `
package artifact

func Extract(simplifiedHTML string) string {
	return ""
}
`
	err := Check(source)
	require.Error(t, err)
}

func TestCheck_NotGoSourceFails(t *testing.T) {
	err := Check("this is not { go code at !! all")
	require.Error(t, err)
}

func TestCheck_WrongParamCountFails(t *testing.T) {
	source := `
package artifact

func Extract(a string, b string) (map[string]string, error) {
	return nil, nil
}
`
	err := Check(source)
	require.Error(t, err)
}
