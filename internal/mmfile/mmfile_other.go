//go:build !unix

// Package mmfile maps hive files into memory read-only.
package mmfile

import (
	"fmt"

	"golang.org/x/exp/mmap"
)

// Map reads the file at path through a read-only mapping and returns a copy
// of its contents. The release function closes the mapping.
func Map(path string) ([]byte, func() error, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, nil, err
	}
	data := make([]byte, r.Len())
	if _, err := r.ReadAt(data, 0); err != nil && len(data) > 0 {
		_ = r.Close()
		return nil, nil, fmt.Errorf("mmfile: read %s: %w", path, err)
	}
	return data, r.Close, nil
}
