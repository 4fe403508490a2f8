package converter

import (
	"fmt"
	"time"
)

const (
	wavHeaderSize = 44
	uploadMargin  = 0.95
)

// Span is one time range of a segmented conversion. Index starts at 1.
type Span struct {
	Index int
	Start time.Duration
	End   time.Duration
}

// Marker is the header written above the span's text.
func (s Span) Marker() string {
	return fmt.Sprintf("[segment %d: %s - %s]", s.Index, FormatTimestamp(s.Start), FormatTimestamp(s.End))
}

// SegmentCount returns how many segments a file of size bytes is split
// into. Files at or below maxGB are not split.
func SegmentCount(size int64, maxGB float64) int {
	if maxGB <= 0 {
		return 1
	}
	sizeGB := float64(size) / bytesPerGB
	if sizeGB <= maxGB {
		return 1
	}
	return int(sizeGB/maxGB) + 1
}

// PlanSegments splits duration into equal spans. The last span always ends
// at duration.
func PlanSegments(size int64, duration time.Duration, maxGB float64, autoSegment bool) []Span {
	n := 1
	if autoSegment {
		n = SegmentCount(size, maxGB)
	}
	return SplitSpans(duration, n)
}

// AudioSegmentCount returns how many segments keep the 16-bit mono WAV
// extracted from duration at sampleRate under maxBytes each.
func AudioSegmentCount(duration time.Duration, sampleRate int, maxBytes int64) int {
	if maxBytes <= wavHeaderSize || sampleRate <= 0 {
		return 1
	}
	pcm := int64(duration.Seconds() * float64(sampleRate) * 2)
	budget := int64(float64(maxBytes)*uploadMargin) - wavHeaderSize
	if pcm <= budget {
		return 1
	}
	return int((pcm + budget - 1) / budget)
}

// SplitSpans cuts duration into n equal spans.
func SplitSpans(duration time.Duration, n int) []Span {
	if n < 1 {
		n = 1
	}
	segDur := duration / time.Duration(n)
	spans := make([]Span, n)
	for i := range spans {
		spans[i] = Span{
			Index: i + 1,
			Start: segDur * time.Duration(i),
			End:   segDur * time.Duration(i+1),
		}
	}
	spans[n-1].End = duration
	return spans
}

// FormatTimestamp renders d as HH:MM:SS when it has hours, else MM:SS.
func FormatTimestamp(d time.Duration) string {
	total := int(d / time.Second)
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
