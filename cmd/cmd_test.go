package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInferScenarioFolder(t *testing.T) {
	buf := &bytes.Buffer{}
	InferCmd.SetOut(buf)
	require.NoError(t, runInfer(InferCmd, []string{"../frontend/scenario/testdata"}))
	assert.Contains(t, buf.String(), "invocations as expected")
	assert.NotContains(t, buf.String(), "FAIL")
}

func TestLub(t *testing.T) {
	buf := &bytes.Buffer{}
	LubCmd.SetOut(buf)
	require.NoError(t, runLub(LubCmd, []string{"Integer", "Double"}))
	assert.Equal(t, "lub: Number & Comparable<?>\nglb: none\n", buf.String())
}
