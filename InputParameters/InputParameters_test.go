package InputParameters

import (
	"testing"

	"github.com/ghodss/yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReaderParameters(t *testing.T) {
	fileInput := []byte(`
Title: Nozzle mesh
ForceDimension: 2
NodeCheck: eager
ByteOrder: big
ProcLimit: 4
`)
	var rp ReaderParameters
	require.NoError(t, rp.Parse(fileInput))
	assert.Equal(t, "Nozzle mesh", rp.Title)
	assert.Equal(t, 2, rp.ForceDimension)
	assert.Equal(t, "eager", rp.NodeCheck)
	assert.Equal(t, 4, rp.ProcLimit)
	rp.Print()

	out, err := yaml.Marshal(&rp)
	require.NoError(t, err)
	assert.Contains(t, string(out), "ForceDimension: 2\n")
	assert.Contains(t, string(out), "NodeCheck: eager\n")

	opts, err := rp.Options()
	require.NoError(t, err)
	assert.Len(t, opts, 4)

	var defaults ReaderParameters
	opts, err = defaults.Options()
	require.NoError(t, err)
	assert.Len(t, opts, 3)
}

func TestReaderParametersInvalid(t *testing.T) {
	for _, in := range []string{
		"ForceDimension: 4",
		"NodeCheck: lazy",
		"ByteOrder: middle",
	} {
		var rp ReaderParameters
		require.NoError(t, rp.Parse([]byte(in)))
		_, err := rp.Options()
		assert.Error(t, err, in)
	}
	var rp ReaderParameters
	assert.Error(t, rp.Parse([]byte("ProcLimit: many")))
}
