package converter

import (
	"context"
	"errors"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"mp4text/internal/app/model"
	"mp4text/internal/app/util/files"
)

// BatchResult summarises a directory conversion.
type BatchResult struct {
	Converted []*Outcome
	Skipped   []string
	Failed    map[string]error
}

// ConvertDir converts up to limit unprocessed videos in dir, oldest first.
// limit <= 0 converts all of them. Files with a successful history entry
// are skipped. A failing file does not stop the batch; cancellation does.
func (c *Converter) ConvertDir(ctx context.Context, dir string, limit int, progress *ProgressManager) (*BatchResult, error) {
	fileInfos, err := files.GetAllVideoFiles(dir)
	if err != nil {
		return nil, err
	}

	result := &BatchResult{Failed: make(map[string]error)}
	toProcess := c.filterUnProcessedFiles(fileInfos, limit, result)
	if len(toProcess) == 0 {
		return result, nil
	}

	if progress == nil {
		progress = NewProgressManager(ProgressConfig{})
	}
	overall := progress.CreateBar(len(toProcess), "Converting videos")
	defer progress.Wait()

	for _, file := range toProcess {
		if err := ctx.Err(); err != nil {
			overall.Abort()
			return result, err
		}

		fileBar := progress.CreatePercentBar(file.Name)
		outcome, err := c.ConvertFile(ctx, file.FullPath, fileBar.Callbacks(nil))
		if err != nil {
			fileBar.Abort()
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				overall.Abort()
				return result, err
			}
			result.Failed[file.Name] = err
		} else {
			fileBar.Complete()
			result.Converted = append(result.Converted, outcome)
		}
		overall.Increment()
	}
	return result, nil
}

func (c *Converter) filterUnProcessedFiles(fileInfos []model.FileInfo, limit int, result *BatchResult) []model.FileInfo {
	if c.db == nil {
		if limit > 0 && len(fileInfos) > limit {
			return fileInfos[:limit]
		}
		return fileInfos
	}

	processed, pending := lo.FilterReject(fileInfos, func(f model.FileInfo, _ int) bool {
		id, err := c.db.CheckIfFileProcessed(f.Name)
		if err != nil {
			c.logger.Warn("history lookup failed", zap.String("file", f.Name), zap.Error(err))
			return false
		}
		return id > 0
	})

	for _, f := range processed {
		c.logger.Info("already processed, skipping", zap.String("file", f.Name))
		result.Skipped = append(result.Skipped, f.Name)
	}

	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	return pending
}
