package repository

import "mp4text/internal/app/model"

// TranscriptionDAO persists conversion history.
type TranscriptionDAO interface {
	Close() error

	// Record stores t and returns its row id. An empty JobID is filled in.
	Record(t *model.Transcription) (int64, error)

	// CheckIfFileProcessed returns the id of a successful conversion of
	// fileName, or 0 when there is none.
	CheckIfFileProcessed(fileName string) (int, error)

	// List returns the newest conversions first. limit <= 0 means no limit.
	List(limit int) ([]model.Transcription, error)
}
