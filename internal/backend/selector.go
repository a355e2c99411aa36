// internal/backend/selector.go
package backend

import (
	"fmt"
	"log/slog"
	"os/exec"

	"vidgif/internal/validate"
)

// IsFFmpegAvailable reports whether an ffmpeg executable can be found on
// the system search path.
func IsFFmpegAvailable() bool {
	_, err := exec.LookPath("ffmpeg")
	return err == nil
}

// Selector returns a backend picker bound to a specific ffmpeg binary and
// scratch directory. Asking for ffmpeg when the binary is not discoverable
// or not usable is not an error: the builtin backend is substituted and a
// warning is logged. Unknown names are rejected.
func Selector(ffmpegBin, tempDir string) func(name string, logger *slog.Logger) (Backend, error) {
	if ffmpegBin == "" {
		ffmpegBin = "ffmpeg"
	}
	return func(name string, logger *slog.Logger) (Backend, error) {
		switch name {
		case NameBuiltin, "":
			return NewBuiltin(), nil
		case NameFFmpeg:
			if _, err := exec.LookPath(ffmpegBin); err != nil {
				logger.Warn("ffmpeg not found, falling back to builtin encoder; decoding video files still requires ffmpeg",
					slog.String("binary", ffmpegBin))
				return NewBuiltin(), nil
			}
			be, err := NewFFmpeg(ffmpegBin, tempDir)
			if err != nil {
				logger.Warn("ffmpeg probe failed, falling back to builtin encoder",
					slog.String("binary", ffmpegBin),
					slog.Any("error", err))
				return NewBuiltin(), nil
			}
			return be, nil
		default:
			return nil, &validate.Error{
				Field:  "backend",
				Reason: fmt.Sprintf("unknown backend %q (expected %s or %s)", name, NameBuiltin, NameFFmpeg),
			}
		}
	}
}

// Select picks the encoding backend using the default ffmpeg binary.
func Select(name string, logger *slog.Logger) (Backend, error) {
	return Selector("", "")(name, logger)
}
