package model

import "time"

// Job asks the watch pipeline to fill one input file.
type Job struct {
	ID       string    // uuid assigned on submit
	Path     string    // input file
	Version  string    // size and mtime fingerprint used for deduplication
	Enqueued time.Time // submit time
}
