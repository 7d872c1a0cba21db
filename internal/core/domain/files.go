package domain

import "time"

// FileInfo describes one PDF available in the document directory.
type FileInfo struct {
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}
