// internal/validate/validate.go
package validate

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	// MinResizePercent and MaxResizePercent bound the --resize flag.
	MinResizePercent = 1
	MaxResizePercent = 100
)

// Error is a validation failure for a single request field.
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ResizeFraction parses a resize percentage and converts it to a fraction.
// Valid range is [1,100]; the error names the violated bound.
func ResizeFraction(percent string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(percent), 64)
	if err != nil {
		return 0, &Error{Field: "resize percentage", Reason: "must be a number"}
	}
	return ResizeFractionValue(v)
}

// ResizeFractionValue validates an already-numeric resize percentage.
func ResizeFractionValue(percent float64) (float64, error) {
	if percent < MinResizePercent {
		return 0, &Error{Field: "resize percentage", Reason: fmt.Sprintf("must be at least %d", MinResizePercent)}
	}
	if percent > MaxResizePercent {
		return 0, &Error{Field: "resize percentage", Reason: fmt.Sprintf("must be at most %d", MaxResizePercent)}
	}
	return percent / 100.0, nil
}

// FrameRate parses a frame rate string. Zero, negative and non-numeric
// values are rejected.
func FrameRate(fps string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(fps))
	if err != nil {
		return 0, &Error{Field: "frame rate", Reason: "must be an integer"}
	}
	return FrameRateValue(v)
}

// FrameRateValue validates an already-numeric frame rate.
func FrameRateValue(fps int) (int, error) {
	if fps <= 0 {
		return 0, &Error{Field: "frame rate", Reason: "must be a positive integer"}
	}
	return fps, nil
}

// ParseTime parses an optional time entry in seconds. An empty string means
// "unset" and yields a nil pointer.
func ParseTime(field, value string) (*float64, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, &Error{Field: field, Reason: "must be a number of seconds"}
	}
	if f < 0 {
		return nil, &Error{Field: field, Reason: "must be >= 0"}
	}
	return &f, nil
}

// TimeWindow validates an optional [start,end] trim window. When the source
// duration is known (> 0), both times are clamped into [0, duration]. After
// clamping, end must not precede start.
func TimeWindow(start, end *float64, duration float64) (*float64, *float64, error) {
	s, e := start, end
	if s != nil && *s < 0 {
		return nil, nil, &Error{Field: "start time", Reason: "must be >= 0"}
	}
	if e != nil && *e < 0 {
		return nil, nil, &Error{Field: "end time", Reason: "must be >= 0"}
	}
	if duration > 0 {
		if s != nil {
			v := clamp(*s, 0, duration)
			s = &v
		}
		if e != nil {
			v := clamp(*e, 0, duration)
			e = &v
		}
	}
	if s != nil && e != nil && *e < *s {
		return nil, nil, &Error{Field: "end time", Reason: "must be greater than start time"}
	}
	return s, e, nil
}

// NormalizeOutputPath resolves the destination GIF path. An empty output is
// derived from the source base name in the source directory; any output
// missing the .gif suffix gets it appended.
func NormalizeOutputPath(output, source string) string {
	if strings.TrimSpace(output) == "" {
		base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
		output = filepath.Join(filepath.Dir(source), base+".gif")
	}
	if !strings.HasSuffix(strings.ToLower(output), ".gif") {
		output += ".gif"
	}
	return output
}

// CleanInputPath trims whitespace and surrounding quotes that drag-and-drop
// or Finder tend to add around paths.
func CleanInputPath(input string) string {
	cleaned := strings.TrimSpace(input)
	if len(cleaned) >= 2 {
		if (cleaned[0] == '\'' && cleaned[len(cleaned)-1] == '\'') ||
			(cleaned[0] == '"' && cleaned[len(cleaned)-1] == '"') {
			cleaned = cleaned[1 : len(cleaned)-1]
		}
	}
	cleaned = strings.TrimSpace(cleaned)
	// some drag-and-drop sources wrap paths in braces
	if len(cleaned) >= 2 && cleaned[0] == '{' && cleaned[len(cleaned)-1] == '}' {
		cleaned = cleaned[1 : len(cleaned)-1]
	}
	return cleaned
}

// EstimateGIFSizeMB gives a rough upper bound on the output size in MB,
// treating every frame as an uncompressed RGB buffer.
func EstimateGIFSizeMB(duration float64, width, height, fps int) float64 {
	frames := int(duration * float64(fps))
	bytesPerFrame := width * height * 3
	return float64(frames*bytesPerFrame) / (1024 * 1024)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
