// Package zip bundles published site files into a single archive.
package zip

import (
	"archive/zip"
	"bytes"
	"fmt"
	"time"
)

// File is one entry of the archive.
type File struct {
	Name string
	Data []byte
}

// Archive writes files into an in-memory zip in the given order, stamping
// every entry with modTime. The same files and modTime yield the same bytes.
func Archive(files []File, modTime time.Time) ([]byte, error) {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	for _, f := range files {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     f.Name,
			Method:   zip.Deflate,
			Modified: modTime,
		})
		if err != nil {
			return nil, fmt.Errorf("zip: create %s: %w", f.Name, err)
		}
		if _, err := w.Write(f.Data); err != nil {
			return nil, fmt.Errorf("zip: write %s: %w", f.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zip: close: %w", err)
	}
	return buf.Bytes(), nil
}
