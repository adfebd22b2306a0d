package wordindex

import (
	"github.com/nguyentantai21042004/wordcut/internal/logger"
)

type implStore struct {
	dir    string
	logger logger.Logger
}

// New creates a Store keeping <video>.json files in dir.
func New(dir string, log logger.Logger) Store {
	return &implStore{
		dir:    dir,
		logger: log,
	}
}
