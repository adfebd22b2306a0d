// Package clipcache tracks which per-word clips already exist on disk.
package clipcache

import (
	"fmt"
	"os"
	"path/filepath"
)

const clipExt = ".mp4"

// Name returns the clip file name for word.
func Name(word string) string {
	return word + clipExt
}

// Snapshot is the set of clip file names present in a directory at the time
// it was taken. It is never refreshed.
type Snapshot struct {
	dir   string
	names map[string]struct{}
}

// Take lists dir once. A missing directory yields an empty snapshot.
func Take(dir string) (*Snapshot, error) {
	s := &Snapshot{dir: dir, names: map[string]struct{}{}}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("list clips: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		s.names[e.Name()] = struct{}{}
	}
	return s, nil
}

// Has reports whether a clip for word existed when the snapshot was taken.
func (s *Snapshot) Has(word string) bool {
	_, ok := s.names[Name(word)]
	return ok
}

// Path returns where the clip for word lives (or will live).
func (s *Snapshot) Path(word string) string {
	return filepath.Join(s.dir, Name(word))
}

// Len returns the number of files in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.names)
}
