package sqlite

import (
	"errors"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "mp4text/internal/app/errors"
	"mp4text/internal/app/model"
	"mp4text/internal/app/repository"
)

var _ repository.TranscriptionDAO = (*SQLiteDB)(nil)

func openTestDB(t *testing.T) *SQLiteDB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "data", "transcription.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenCreatesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// reopening an existing database is fine
	db, err = Open(path)
	require.NoError(t, err)
	require.NoError(t, db.Close())
	assert.FileExists(t, path)
}

func TestRecordAndList(t *testing.T) {
	db := openTestDB(t)
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	first := &model.Transcription{
		Engine:        "WhisperCpp",
		Model:         "base",
		FileName:      "lecture.mp4",
		FilePath:      "/videos/lecture.mp4",
		AudioDuration: 3600.5,
		Transcription: "hello",
		OutputPath:    "/out/lecture_transcript.txt",
		CreatedAt:     base,
	}
	id, err := db.Record(first)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
	assert.Equal(t, 1, first.ID)
	assert.NotEmpty(t, first.JobID)

	failed := &model.Transcription{
		Engine:       "WhisperCpp",
		Model:        "base",
		FileName:     "broken.mp4",
		CreatedAt:    base.Add(time.Hour),
		HasError:     true,
		ErrorMessage: "no text extracted",
	}
	_, err = db.Record(failed)
	require.NoError(t, err)

	all, err := db.List(0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "broken.mp4", all[0].FileName)
	assert.True(t, all[0].HasError)
	assert.Equal(t, "no text extracted", all[0].ErrorMessage)

	got := all[1]
	assert.Equal(t, first.JobID, got.JobID)
	assert.Equal(t, "WhisperCpp", got.Engine)
	assert.Equal(t, 3600.5, got.AudioDuration)
	assert.Equal(t, "/out/lecture_transcript.txt", got.OutputPath)
	assert.True(t, base.Equal(got.CreatedAt))
	assert.False(t, got.HasError)

	limited, err := db.List(1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestCheckIfFileProcessed(t *testing.T) {
	db := openTestDB(t)

	id, err := db.CheckIfFileProcessed("lecture.mp4")
	require.NoError(t, err)
	assert.Zero(t, id)

	_, err = db.Record(&model.Transcription{FileName: "lecture.mp4", HasError: true, ErrorMessage: "boom"})
	require.NoError(t, err)

	id, err = db.CheckIfFileProcessed("lecture.mp4")
	require.NoError(t, err)
	assert.Zero(t, id, "failed conversions do not count")

	want, err := db.Record(&model.Transcription{FileName: "lecture.mp4", Transcription: "ok"})
	require.NoError(t, err)

	id, err = db.CheckIfFileProcessed("lecture.mp4")
	require.NoError(t, err)
	assert.Equal(t, int(want), id)
}

func TestRecordKeepsExplicitJobID(t *testing.T) {
	db := openTestDB(t)

	rec := &model.Transcription{JobID: "job-42", FileName: "a.mp4"}
	_, err := db.Record(rec)
	require.NoError(t, err)
	assert.Equal(t, "job-42", rec.JobID)
	assert.False(t, rec.CreatedAt.IsZero())
}

func TestSQLiteDB_Failures(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(mock sqlmock.Sqlmock)
		call    func(db *SQLiteDB) error
		wantErr error
	}{
		{
			name: "insert failure",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(regexp.QuoteMeta("INSERT INTO transcriptions")).
					WillReturnError(errors.New("disk full"))
			},
			call: func(db *SQLiteDB) error {
				_, err := db.Record(&model.Transcription{FileName: "a.mp4"})
				return err
			},
			wantErr: apperrors.ErrInsertFailed,
		},
		{
			name: "check query failure",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM transcriptions WHERE file_name = ?")).
					WithArgs("a.mp4").
					WillReturnError(errors.New("database connection error"))
			},
			call: func(db *SQLiteDB) error {
				_, err := db.CheckIfFileProcessed("a.mp4")
				return err
			},
			wantErr: apperrors.ErrQueryFailed,
		},
		{
			name: "list query failure",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(listSQL)).
					WillReturnError(errors.New("database connection error"))
			},
			call: func(db *SQLiteDB) error {
				_, err := db.List(0)
				return err
			},
			wantErr: apperrors.ErrQueryFailed,
		},
		{
			name: "list scan failure",
			setup: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"id"}).AddRow(1)
				mock.ExpectQuery(regexp.QuoteMeta(listSQL)).
					WithArgs(5).
					WillReturnRows(rows)
			},
			call: func(db *SQLiteDB) error {
				_, err := db.List(5)
				return err
			},
			wantErr: apperrors.ErrScanFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer conn.Close()

			tt.setup(mock)
			err = tt.call(NewSQLiteDB(conn))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), err.Error())
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
