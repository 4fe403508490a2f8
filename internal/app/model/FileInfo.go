package model

import "time"

type FileInfo struct {
	FullPath string
	ModTime  time.Time
	Name     string
	Size     int64
}

// FileDetails is a descriptive snapshot of a file on disk.
type FileDetails struct {
	Name      string `json:"name"`
	Size      int64  `json:"size"`
	SizeStr   string `json:"size_str"`
	Extension string `json:"extension"`
	Exists    bool   `json:"exists"`
	Readable  bool   `json:"readable"`
}
