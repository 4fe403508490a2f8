package files

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/dustin/go-humanize"
	"mp4text/internal/app/model"
)

const (
	// MaxVideoFileSize is the largest video accepted for conversion.
	MaxVideoFileSize int64 = 10 * 1024 * 1024 * 1024
	maxSafeNameLen         = 50
)

// VideoExtensions lists the container formats accepted as input.
var VideoExtensions = map[string]bool{
	".mp4":  true,
	".avi":  true,
	".mov":  true,
	".mkv":  true,
	".wmv":  true,
	".flv":  true,
	".webm": true,
	".m4v":  true,
}

// CreateTempDir creates a fresh temporary directory named with prefix.
func CreateTempDir(prefix string) (string, error) {
	dir, err := os.MkdirTemp("", prefix)
	if err != nil {
		return "", fmt.Errorf("failed to create temp directory: %w", err)
	}
	return dir, nil
}

// CleanupTempDir removes dir and everything below it. It reports whether
// anything was removed.
func CleanupTempDir(dir string) bool {
	if dir == "" {
		return false
	}
	if _, err := os.Stat(dir); err != nil {
		return false
	}
	return os.RemoveAll(dir) == nil
}

// SafeFilename derives a filesystem-safe base name from path, keeping
// letters, digits, spaces, '-' and '_'. The result is capped at 50
// characters before suffix is appended. An empty result becomes "untitled".
func SafeFilename(path string, suffix string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	var b strings.Builder
	for _, r := range base {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}

	runes := []rune(b.String())
	if len(runes) > maxSafeNameLen {
		runes = runes[:maxSafeNameLen]
	}
	name := strings.TrimRight(string(runes), " ")

	if name == "" {
		name = "untitled"
	}
	if suffix != "" {
		name += "_" + suffix
	}
	return name
}

// ValidateVideoFile reports whether path is a convertible video file and a
// message describing the outcome.
func ValidateVideoFile(path string) (bool, string) {
	if path == "" {
		return false, "file path is empty"
	}

	info, err := os.Stat(path)
	if err != nil {
		return false, "file does not exist"
	}
	if !info.Mode().IsRegular() {
		return false, "path is not a regular file"
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !VideoExtensions[ext] {
		return false, fmt.Sprintf("unsupported file format: %s", ext)
	}

	switch size := info.Size(); {
	case size == 0:
		return false, "file is empty"
	case size > MaxVideoFileSize:
		return false, "file too large (over 10GB)"
	}

	return true, "file is valid"
}

// GetFileInfo describes path. Missing files yield Exists == false.
func GetFileInfo(path string) model.FileDetails {
	var details model.FileDetails

	info, err := os.Stat(path)
	if err != nil {
		return details
	}

	details.Exists = true
	details.Name = filepath.Base(path)
	details.Extension = strings.ToLower(filepath.Ext(path))
	details.Size = info.Size()
	details.SizeStr = humanize.IBytes(uint64(info.Size()))

	if f, err := os.Open(path); err == nil {
		details.Readable = true
		f.Close()
	}

	return details
}

// GetAllVideoFiles lists the video files directly inside inputDir, oldest first.
func GetAllVideoFiles(inputDir string) ([]model.FileInfo, error) {
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read input directory: %w", err)
	}

	var fileInfos []model.FileInfo
	for _, entry := range entries {
		if entry.IsDir() || !VideoExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		fileInfos = append(fileInfos, model.FileInfo{
			FullPath: filepath.Join(inputDir, entry.Name()),
			ModTime:  info.ModTime(),
			Name:     entry.Name(),
			Size:     info.Size(),
		})
	}

	sort.Slice(fileInfos, func(i, j int) bool {
		return fileInfos[i].ModTime.Before(fileInfos[j].ModTime)
	})

	return fileInfos, nil
}

// WriteTextFile writes text to path, creating parent directories.
func WriteTextFile(path, text string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return os.WriteFile(path, []byte(text), 0644)
}

// CopyFile copies src to dst, creating parent directories of dst.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
