package readers

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/gomsh/mesh"
)

func TestReadMeshFiles(t *testing.T) {
	dir := t.TempDir()
	contents := []string{
		triangle1,
		triangle22,
		string(writeMsh22(triangleMesh(t), true, nil)),
		triangle41,
		strings.Replace(triangle22, "2 1 0 0", "1 1 0 0", 1), // duplicate node 1
		string(writeMsh41(triangleMesh(t), true, nil)),
	}
	var files []string
	for i, content := range contents {
		fn := filepath.Join(dir, string(rune('a'+i))+".msh")
		require.NoError(t, os.WriteFile(fn, []byte(content), 0644))
		files = append(files, fn)
	}

	meshes, err := ReadMeshFiles(files, WithNodeCheck(mesh.NodeCheckEager))
	require.Error(t, err)
	assert.True(t, errors.Is(err, mesh.ErrDuplicateTag))
	assert.Contains(t, err.Error(), files[4])
	require.Len(t, meshes, len(files))

	versions := []string{"1.0", "2.2", "2.2", "4.1", "", "4.1"}
	for i, m := range meshes {
		if i == 4 {
			assert.Nil(t, m)
			continue
		}
		assertTriangle(t, m)
		assert.Equal(t, versions[i], m.Format().Version)
	}

	meshes, err = ReadMeshFiles(nil)
	assert.NoError(t, err)
	assert.Empty(t, meshes)
}

func TestParallelDegree(t *testing.T) {
	assert.Equal(t, 2, ParallelDegree(10, 2))
	assert.Equal(t, 3, ParallelDegree(3, 8))
	assert.Equal(t, 0, ParallelDegree(0, 0))
	assert.Equal(t, min(runtime.NumCPU(), 100), ParallelDegree(100, 0))
}
