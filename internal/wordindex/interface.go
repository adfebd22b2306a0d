package wordindex

// Store persists one Index per normalized video.
type Store interface {
	// Load returns the persisted index of video. Any read or parse failure
	// is reported as absent so the caller transcribes again.
	Load(video string) (Index, bool)
	// Save overwrites the persisted index of video.
	Save(video string, idx Index) error
	// Path returns the file backing the index of video.
	Path(video string) string
}
