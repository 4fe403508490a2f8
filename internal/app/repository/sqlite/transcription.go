package sqlite

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	apperrors "mp4text/internal/app/errors"
	"mp4text/internal/app/model"
)

type SQLiteDB struct {
	db *sql.DB
}

// NewSQLiteDB wraps an open connection. The schema must already exist.
func NewSQLiteDB(db *sql.DB) *SQLiteDB {
	return &SQLiteDB{db: db}
}

func (sdb *SQLiteDB) Close() error {
	return sdb.db.Close()
}

func (sdb *SQLiteDB) Record(t *model.Transcription) (int64, error) {
	if t.JobID == "" {
		t.JobID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}

	insertSQL := `INSERT INTO transcriptions (job_id, engine, model, file_name, file_path, audio_duration, transcription, output_path, created_at, has_error, error_message) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`
	res, err := sdb.db.Exec(insertSQL, t.JobID, t.Engine, t.Model, t.FileName, t.FilePath, t.AudioDuration,
		t.Transcription, t.OutputPath, t.CreatedAt, boolToInt(t.HasError), t.ErrorMessage)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInsertFailed, err.Error())
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInsertFailed, err.Error())
	}
	t.ID = int(id)
	return id, nil
}

func (sdb *SQLiteDB) CheckIfFileProcessed(fileName string) (int, error) {
	query := `SELECT id FROM transcriptions WHERE file_name = ? AND has_error = 0 ORDER BY id DESC LIMIT 1`
	var id int
	err := sdb.db.QueryRow(query, fileName).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrQueryFailed, err.Error())
	}
	return id, nil
}

const listSQL = `SELECT id, job_id, engine, model, file_name, file_path, audio_duration, transcription, output_path, created_at, has_error, error_message
FROM transcriptions
ORDER BY created_at DESC, id DESC`

func (sdb *SQLiteDB) List(limit int) ([]model.Transcription, error) {
	sqlStr := listSQL
	var args []interface{}
	if limit > 0 {
		sqlStr += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := sdb.db.Query(sqlStr, args...)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrQueryFailed, err.Error())
	}
	defer rows.Close()

	transcriptions := make([]model.Transcription, 0)
	for rows.Next() {
		var t model.Transcription
		var hasError int
		err = rows.Scan(&t.ID, &t.JobID, &t.Engine, &t.Model, &t.FileName, &t.FilePath, &t.AudioDuration,
			&t.Transcription, &t.OutputPath, &t.CreatedAt, &hasError, &t.ErrorMessage)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrScanFailed, err.Error())
		}
		t.HasError = hasError != 0
		transcriptions = append(transcriptions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrQueryFailed, err.Error())
	}
	return transcriptions, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
