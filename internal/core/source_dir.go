package core

import (
	"context"
	"io"
	"os"
	"path/filepath"
)

// DirSource reads datasets from <Dir>/<name>.csv. The CLI uses it to check
// exported files without touching the network.
type DirSource struct {
	Dir string
}

// Fetch opens the dataset file.
func (s DirSource) Fetch(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, newFetchError(name, "", err)
	}

	path := filepath.Join(s.Dir, name+".csv")
	f, err := os.Open(path)
	if err != nil {
		return nil, &FetchError{Dataset: name, URL: path, Err: err}
	}
	return f, nil
}
