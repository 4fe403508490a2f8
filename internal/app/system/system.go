package system

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/samber/lo"
	"mp4text/internal/app/api/whisper_cpp"
	"mp4text/internal/config"
)

// Requirement levels.
const (
	Essential   = "essential"
	Recommended = "recommended"
	Optional    = "optional"
)

const checkTimeout = 10 * time.Second

// Check is the outcome of one dependency check.
type Check struct {
	Name   string
	Level  string
	OK     bool
	Detail string
}

// Report collects the checks for one configuration.
type Report struct {
	Checks []Check
}

// Missing names the essential dependencies that failed.
func (r Report) Missing() []string {
	return lo.FilterMap(r.Checks, func(c Check, _ int) (string, bool) {
		return c.Name, c.Level == Essential && !c.OK
	})
}

// OK reports whether every essential dependency is present.
func (r Report) OK() bool {
	return len(r.Missing()) == 0
}

// Checker inspects the host. The function fields are replaceable in tests.
type Checker struct {
	LookPath func(file string) (string, error)
	Output   func(ctx context.Context, name string, args ...string) (string, error)
}

// NewChecker returns a Checker backed by os/exec.
func NewChecker() *Checker {
	return &Checker{
		LookPath: exec.LookPath,
		Output: func(ctx context.Context, name string, args ...string) (string, error) {
			out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
			return string(out), err
		},
	}
}

// CheckFFmpeg runs "<binary> -version". An empty binary means ffmpeg from PATH.
func (c *Checker) CheckFFmpeg(ctx context.Context, binary string) Check {
	return c.versionCheck(ctx, "ffmpeg", lo.Ternary(binary == "", "ffmpeg", binary), Essential)
}

// CheckFFprobe runs "<binary> -version". An empty binary means ffprobe from PATH.
func (c *Checker) CheckFFprobe(ctx context.Context, binary string) Check {
	return c.versionCheck(ctx, "ffprobe", lo.Ternary(binary == "", "ffprobe", binary), Essential)
}

func (c *Checker) versionCheck(ctx context.Context, name, binary, level string) Check {
	check := Check{Name: name, Level: level}

	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	out, err := c.Output(ctx, binary, "-version")
	if err != nil {
		check.Detail = fmt.Sprintf("%s not available: %v", binary, err)
		return check
	}
	check.OK = true
	check.Detail = firstLine(out)
	return check
}

// CheckGPU looks for an NVIDIA GPU through nvidia-smi.
func (c *Checker) CheckGPU(ctx context.Context) Check {
	check := Check{Name: "gpu", Level: Optional}
	if _, err := c.LookPath("nvidia-smi"); err != nil {
		check.Detail = "nvidia-smi not found"
		return check
	}

	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	out, err := c.Output(ctx, "nvidia-smi", "-L")
	if err != nil || strings.TrimSpace(out) == "" {
		check.Detail = "no CUDA device reported"
		return check
	}
	check.OK = true
	check.Detail = firstLine(out)
	return check
}

// CheckWhisperCpp verifies the whisper.cpp binary and model file.
func (c *Checker) CheckWhisperCpp(s *config.Settings, level string) []Check {
	binary := Check{Name: "whisper.cpp binary", Level: level}
	if path, err := c.LookPath(s.WhisperCpp.BinaryPath); err != nil {
		binary.Detail = fmt.Sprintf("%s not found", s.WhisperCpp.BinaryPath)
	} else {
		binary.OK = true
		binary.Detail = path
	}

	modelPath := whisper_cpp.New(s.Model, whisper_cpp.ConfigFromSettings(*s), nil).ResolveModelPath()
	model := Check{Name: "whisper.cpp model", Level: level}
	switch info, err := os.Stat(modelPath); {
	case err != nil:
		model.Detail = fmt.Sprintf("%s not found", modelPath)
	case info.Size() == 0:
		model.Detail = fmt.Sprintf("%s is empty", modelPath)
	default:
		model.OK = true
		model.Detail = fmt.Sprintf("%s (%s)", modelPath, humanize.IBytes(uint64(info.Size())))
	}

	return []Check{binary, model}
}

// CheckOpenAIKey verifies an API key is configured and well formed.
func (c *Checker) CheckOpenAIKey(s *config.Settings, level string) Check {
	check := Check{Name: "OpenAI API key", Level: level}
	if s.OpenAI.APIKey == "" {
		check.Detail = config.EnvOpenAIKey + " not set"
		return check
	}
	if err := config.ValidateAPIKey(s.OpenAI.APIKey); err != nil {
		check.Detail = err.Error()
		return check
	}
	check.OK = true
	check.Detail = "configured"
	return check
}

// Check runs every dependency check. Engine-specific dependencies are essential only
// for the configured engine.
func (c *Checker) Check(ctx context.Context, s *config.Settings) Report {
	levelFor := func(engine string) string {
		if s.Engine == engine {
			return Essential
		}
		return Optional
	}

	checks := []Check{c.CheckFFmpeg(ctx, s.Audio.FFmpegPath), c.CheckFFprobe(ctx, s.Audio.FFprobePath)}
	checks = append(checks, c.CheckWhisperCpp(s, levelFor(config.EngineWhisperCpp))...)
	checks = append(checks, c.CheckOpenAIKey(s, levelFor(config.EngineOpenAI)))
	checks = append(checks, c.CheckGPU(ctx))
	return Report{Checks: checks}
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(line)
}
