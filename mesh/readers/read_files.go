package readers

import (
	"errors"
	"runtime"
	"sync"

	"github.com/notargets/gomsh/mesh"
)

// ReadMeshFiles parses several files concurrently. Each parse owns its own
// Cursor and Builder; meshes are returned in the order of filenames. A
// failed file leaves a nil entry and its error is joined into err.
func ReadMeshFiles(filenames []string, opts ...Option) (meshes []*mesh.Mesh, err error) {
	var (
		NP   = ParallelDegree(len(filenames), newConfig(opts).procLimit)
		wg   = sync.WaitGroup{}
		errs = make([]error, len(filenames))
	)
	meshes = make([]*mesh.Mesh, len(filenames))
	for np := 0; np < NP; np++ {
		wg.Add(1)
		go func(np int) {
			for i := np; i < len(filenames); i += NP {
				meshes[i], errs[i] = ReadMeshFile(filenames[i], opts...)
			}
			wg.Done()
		}(np)
	}
	wg.Wait()
	return meshes, errors.Join(errs...)
}

// ParallelDegree picks the worker count for n jobs: procLimit when set,
// otherwise the CPU count, never more than n.
func ParallelDegree(n, procLimit int) (NP int) {
	if NP = procLimit; NP <= 0 {
		NP = runtime.NumCPU()
	}
	if NP > n {
		NP = n
	}
	return
}
