// internal/ui/ui.go
package ui

import (
	"fmt"
	"path/filepath"

	"vidgif/internal/validate"
	"vidgif/internal/video"

	"github.com/charmbracelet/lipgloss"
)

var (
	infoStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7C3AED")).
			Padding(1, 2).
			MarginTop(1).
			MarginBottom(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280")).
			Bold(true)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#111827"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F59E0B"))
)

// DisplayMetadata prints the probed video details in a bordered panel,
// including a rough size estimate for a GIF rendered at the given settings.
func DisplayMetadata(meta *video.Metadata, resizeFraction float64, fps int) {
	outW := int(float64(meta.Width) * resizeFraction)
	outH := int(float64(meta.Height) * resizeFraction)
	estimate := validate.EstimateGIFSizeMB(meta.Duration, outW, outH, fps)

	content := fmt.Sprintf(
		"%s %s\n"+
			"%s %s\n"+
			"%s %dx%d\n"+
			"%s %.1f fps\n"+
			"%s %s\n"+
			"%s ~%.1f MB",
		labelStyle.Render("📁 File:"), valueStyle.Render(filepath.Base(meta.Path)),
		labelStyle.Render("📊 Size:"), valueStyle.Render(FormatFileSize(meta.FileSize)),
		labelStyle.Render("📐 Dimensions:"), meta.Width, meta.Height,
		labelStyle.Render("🎞️  Frame rate:"), meta.FrameRate,
		labelStyle.Render("⏱️  Duration:"), valueStyle.Render(FormatDuration(meta.Duration)),
		labelStyle.Render("💾 Est. GIF size:"), estimate,
	)

	fmt.Println(infoStyle.Render(content))
}

// Success renders a green completion line.
func Success(msg string) string {
	return successStyle.Render("✅ " + msg)
}

// Error renders a red failure line.
func Error(msg string) string {
	return errorStyle.Render("❌ " + msg)
}

// Warn renders an amber advisory line.
func Warn(msg string) string {
	return warnStyle.Render("⚠️  " + msg)
}

// FormatFileSize converts bytes to human-readable format
func FormatFileSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// FormatDuration converts seconds to MM:SS format
func FormatDuration(seconds float64) string {
	totalSeconds := int(seconds)
	minutes := totalSeconds / 60
	remainingSeconds := totalSeconds % 60

	return fmt.Sprintf("%02d:%02d", minutes, remainingSeconds)
}
