package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestNormalizeCmd(t *testing.T) {
	out, err := execute(t, "normalize", "johndoe", "https://linkedin.com/in/jane?utm_source=x&utm_medium=y&ref=z")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)

	var first normalizeLine
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.NotNil(t, first.Result)
	assert.Equal(t, "https://linkedin.com/in/johndoe", first.Result.URL)

	var second normalizeLine
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	require.NotNil(t, second.Result)
	assert.Equal(t, 50, second.Result.Suspicion.RiskScore)
}

func TestNormalizeCmdFailure(t *testing.T) {
	out, err := execute(t, "normalize", "johndoe", "http://example.com/in/x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2")

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2, "every input gets a line, failures included")

	var failed normalizeLine
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &failed))
	require.NotNil(t, failed.Error)
	assert.Nil(t, failed.Result)
	assert.NotEmpty(t, failed.Error.Code)
}

func TestNormalizeCmdRequiresInput(t *testing.T) {
	_, err := execute(t, "normalize")
	assert.Error(t, err)
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "profileqr "))
	assert.Contains(t, out, "commit=")
}
