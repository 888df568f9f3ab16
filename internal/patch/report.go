package patch

// Report summarizes one run.
type Report struct {
	RunID    string
	Selected int // pending records returned by the catalog
	Visited  int // records processed before the run ended

	Updated           int
	Reused            int // updated without uploading, the object was already stored
	Planned           int // dry run: records that would have been updated
	FolderNotFound    int
	SoundNotFound     int
	TooLarge          int
	MissingPreviewURL int
}

// Skipped is the number of visited records left pending.
func (r Report) Skipped() int {
	return r.FolderNotFound + r.SoundNotFound + r.TooLarge + r.MissingPreviewURL
}
