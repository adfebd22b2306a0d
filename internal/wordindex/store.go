package wordindex

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

func (s *implStore) Path(video string) string {
	return filepath.Join(s.dir, filepath.Base(video)+".json")
}

func (s *implStore) Load(video string) (Index, bool) {
	path := s.Path(video)
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn(context.Background(), "Cannot read word index %s, transcribing again: %v", path, err)
		}
		return nil, false
	}

	idx := Index{}
	if err := json.Unmarshal(data, &idx); err != nil {
		s.logger.Warn(context.Background(), "Corrupt word index %s, transcribing again: %v", path, err)
		return nil, false
	}
	if idx == nil {
		// "null" on disk
		idx = Index{}
	}
	for word, e := range idx {
		e.Word = word
		idx[word] = e
	}
	return idx, true
}

func (s *implStore) Save(video string, idx Index) error {
	if idx == nil {
		idx = Index{}
	}
	data, err := json.Marshal(idx)
	if err != nil {
		return fmt.Errorf("encode word index: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create words dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".index-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp index: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp index: %w", err)
	}
	if err := os.Rename(tmpName, s.Path(video)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace word index: %w", err)
	}
	return nil
}
