package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tealeg/xlsx"
	"mp4text/internal/app/model"
)

var headers = []string{
	"ID", "Job ID", "Engine", "Model", "File Name", "File Path",
	"Audio Duration", "Created At", "Status", "Output Path", "Transcription", "Error Message",
}

// ToExcel writes transcriptions to an .xlsx workbook at outputFilePath.
func ToExcel(transcriptions []model.Transcription, outputFilePath string) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Transcriptions")
	if err != nil {
		return fmt.Errorf("failed to add sheet: %w", err)
	}

	headerRow := sheet.AddRow()
	for _, h := range headers {
		headerRow.AddCell().Value = h
	}

	for _, t := range transcriptions {
		status := "ok"
		if t.HasError {
			status = "error"
		}

		row := sheet.AddRow()
		row.AddCell().Value = fmt.Sprint(t.ID)
		row.AddCell().Value = t.JobID
		row.AddCell().Value = t.Engine
		row.AddCell().Value = t.Model
		row.AddCell().Value = t.FileName
		row.AddCell().Value = t.FilePath
		row.AddCell().Value = fmt.Sprintf("%.2f", t.AudioDuration)
		row.AddCell().Value = t.CreatedAt.Format(time.RFC3339)
		row.AddCell().Value = status
		row.AddCell().Value = t.OutputPath
		row.AddCell().Value = t.Transcription
		row.AddCell().Value = t.ErrorMessage
	}

	if dir := filepath.Dir(outputFilePath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create export directory: %w", err)
		}
	}
	if err := file.Save(outputFilePath); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}
