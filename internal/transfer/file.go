// Package transfer implements the batch upload manager: it picks an
// upload strategy per batch, hands batches to the spool daemon when it
// can, and falls back to uploading in-process when it cannot.
package transfer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrEmptyBatch indicates an upload was requested with no files.
var ErrEmptyBatch = errors.New("upload batch must contain at least one file")

// File is one local file queued for upload.
type File struct {
	Path string
	Name string
	Size int64
}

// GatherFiles resolves and stats the given paths. Directories are
// rejected; a missing file fails the whole gather so a typo surfaces
// before anything starts uploading.
func GatherFiles(paths []string) ([]File, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no files to upload")
	}

	files := make([]File, 0, len(paths))
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("cannot read %s: %w", p, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("%s is a directory, pass files", p)
		}
		files = append(files, File{
			Path: p,
			Name: filepath.Base(p),
			Size: info.Size(),
		})
	}
	return files, nil
}
