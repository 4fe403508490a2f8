package model

import "time"

// Transcription is one row of conversion history.
type Transcription struct {
	ID            int
	JobID         string
	Engine        string
	Model         string
	FileName      string
	FilePath      string
	AudioDuration float64
	Transcription string
	OutputPath    string
	CreatedAt     time.Time
	HasError      bool
	ErrorMessage  string
}
