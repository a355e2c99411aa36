// internal/tui/tui.go

// Package tui is the terminal front end: a step-by-step wizard that walks
// through source selection, conversion settings and encoding, with live
// progress. Conversion work runs off the event loop; progress is marshaled
// back in through a channel.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"vidgif/internal/backend"
	"vidgif/internal/config"
	"vidgif/internal/convert"
	"vidgif/internal/progress"
	"vidgif/internal/ui"
	"vidgif/internal/validate"
	"vidgif/internal/video"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	appStyle = lipgloss.NewStyle().Margin(1, 2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFF")).
			Background(lipgloss.Color("#7C3AED")).
			Padding(0, 1).
			Bold(true)

	stepStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7C3AED")).Bold(true)
	errStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
	doneStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	hintStyle = lipgloss.NewStyle().Faint(true)

	selectedItemStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	itemStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	progressFullStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#7C3AED"))
	progressEmptyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

type state int

const (
	stateInputFile state = iota
	stateLoadingMeta
	stateInputResize
	stateInputFPS
	stateInputStart
	stateInputEnd
	stateSelectBackend
	stateSelectLoop
	stateConfirmOverwrite
	stateProcessing
	stateDone
	stateError
)

var backendOptions = []string{"builtin", "ffmpeg"}
var loopOptions = []string{"Loop forever", "Play once"}

type metadataMsg struct {
	meta *video.Metadata
	err  error
}

type progressMsg struct {
	percent float64
	line    string
}

type convertDoneMsg struct {
	output string
	err    error
}

type model struct {
	cfg      *config.Config
	logger   *slog.Logger
	pipeline *convert.Pipeline

	state     state
	textInput textinput.Model
	spinner   spinner.Model
	err       error

	filePath string
	meta     *video.Metadata
	tooLong  bool

	resizeFraction float64
	fps            int
	start          *float64
	end            *float64
	selectedIdx    int
	chosenBackend  string
	loop           bool

	progressChan chan progressMsg
	percent      float64
	statusLine   string
	outputFile   string

	suggestions   []string
	suggestionIdx int
}

// Run starts the wizard and blocks until it exits.
func Run(cfg *config.Config, logger *slog.Logger) error {
	p := tea.NewProgram(newModel(cfg, logger))
	_, err := p.Run()
	return err
}

func newModel(cfg *config.Config, logger *slog.Logger) model {
	ti := textinput.New()
	ti.CharLimit = 1000
	ti.Width = 60
	ti.Placeholder = "Drag & drop or enter a video path..."
	ti.Focus()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	pipeline := convert.New(logger)
	pipeline.Select = backend.Selector(cfg.FFmpegPath, cfg.TempDir)

	return model{
		cfg:       cfg,
		logger:    logger,
		pipeline:  pipeline,
		state:     stateInputFile,
		textInput: ti,
		spinner:   s,
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		return m.updateKey(msg)

	case metadataMsg:
		if msg.err != nil {
			m.state = stateInputFile
			m.err = msg.err
			m.textInput.Focus()
			return m, nil
		}
		m.meta = msg.meta
		m.tooLong = msg.meta.Duration > m.cfg.TUIMaxDuration
		if m.tooLong {
			m.state = stateInputFile
			m.textInput.Reset()
			m.textInput.Focus()
			return m, nil
		}
		m.state = stateInputResize
		m.textInput.Reset()
		m.textInput.Placeholder = "Enter=50, or 1-100"
		m.textInput.Focus()
		return m, nil

	case progressMsg:
		if msg.percent > 0 {
			m.percent = msg.percent
		}
		if msg.line != "" {
			m.statusLine = msg.line
		}
		return m, waitForProgress(m.progressChan)

	case convertDoneMsg:
		if msg.err != nil {
			m.state = stateError
			m.err = msg.err
			return m, nil
		}
		m.state = stateDone
		m.outputFile = msg.output
		return m, tea.Quit

	case spinner.TickMsg:
		if m.state == stateProcessing || m.state == stateLoadingMeta {
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	}

	if m.textEntryState() {
		m.textInput, cmd = m.textInput.Update(msg)
	}
	return m, cmd
}

func (m model) textEntryState() bool {
	switch m.state {
	case stateInputFile, stateInputResize, stateInputFPS, stateInputStart, stateInputEnd:
		return true
	}
	return false
}

func (m model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.state {
	case stateInputFile:
		if msg.Type == tea.KeyTab {
			input := m.textInput.Value()
			if len(m.suggestions) > 0 && input == m.suggestions[m.suggestionIdx] {
				m.suggestionIdx = (m.suggestionIdx + 1) % len(m.suggestions)
			} else {
				m.suggestions = findMatches(input)
				m.suggestionIdx = 0
			}
			if len(m.suggestions) > 0 {
				choice := m.suggestions[m.suggestionIdx]
				m.textInput.SetValue(choice)
				m.textInput.SetCursor(len(choice))
			}
			return m, nil
		}
		if msg.Type == tea.KeyEnter {
			path := validate.CleanInputPath(m.textInput.Value())
			if path == "" {
				return m, nil
			}
			m.filePath = path
			m.err = nil
			m.tooLong = false
			m.state = stateLoadingMeta
			m.textInput.Blur()
			return m, tea.Batch(m.spinner.Tick, probeCmd(path))
		}

	case stateInputResize:
		if msg.Type == tea.KeyEnter {
			val := m.textInput.Value()
			if val == "" {
				val = "50"
			}
			fraction, err := validate.ResizeFraction(val)
			if err != nil {
				m.err = err
				return m, nil
			}
			m.resizeFraction = fraction
			m.err = nil
			m.state = stateInputFPS
			m.textInput.Reset()
			m.textInput.Placeholder = "Enter=15, or e.g. 10"
		}

	case stateInputFPS:
		if msg.Type == tea.KeyEnter {
			val := m.textInput.Value()
			if val == "" {
				val = "15"
			}
			fps, err := validate.FrameRate(val)
			if err != nil {
				m.err = err
				return m, nil
			}
			m.fps = fps
			m.err = nil
			m.state = stateInputStart
			m.textInput.Reset()
			m.textInput.Placeholder = "Enter=start of video, or seconds e.g. 2.5"
		}

	case stateInputStart:
		if msg.Type == tea.KeyEnter {
			start, err := validate.ParseTime("start time", m.textInput.Value())
			if err != nil {
				m.err = err
				return m, nil
			}
			m.start = start
			m.err = nil
			m.state = stateInputEnd
			m.textInput.Reset()
			m.textInput.Placeholder = "Enter=end of video, or seconds e.g. 8"
		}

	case stateInputEnd:
		if msg.Type == tea.KeyEnter {
			end, err := validate.ParseTime("end time", m.textInput.Value())
			if err != nil {
				m.err = err
				return m, nil
			}
			if _, _, err := validate.TimeWindow(m.start, end, m.meta.Duration); err != nil {
				m.err = err
				return m, nil
			}
			m.end = end
			m.err = nil
			m.state = stateSelectBackend
			m.selectedIdx = 0
			m.textInput.Blur()
		}

	case stateSelectBackend:
		switch msg.String() {
		case "up", "k":
			if m.selectedIdx > 0 {
				m.selectedIdx--
			}
		case "down", "j":
			if m.selectedIdx < len(backendOptions)-1 {
				m.selectedIdx++
			}
		case "enter":
			m.chosenBackend = backendOptions[m.selectedIdx]
			m.state = stateSelectLoop
			m.selectedIdx = 0
		}

	case stateSelectLoop:
		switch msg.String() {
		case "up", "k":
			if m.selectedIdx > 0 {
				m.selectedIdx--
			}
		case "down", "j":
			if m.selectedIdx < len(loopOptions)-1 {
				m.selectedIdx++
			}
		case "enter":
			m.loop = m.selectedIdx == 0
			if _, err := os.Stat(m.outputPath()); err == nil {
				m.state = stateConfirmOverwrite
				return m, nil
			}
			return m.startConversion()
		}

	case stateConfirmOverwrite:
		switch msg.String() {
		case "y", "Y", "enter":
			return m.startConversion()
		case "n", "N":
			return m, tea.Quit
		}

	case stateError:
		if msg.Type == tea.KeyEnter {
			// back to the start so another conversion can be attempted
			fresh := newModel(m.cfg, m.logger)
			fresh.err = m.err
			return fresh, textinput.Blink
		}
	}

	if m.textEntryState() {
		m.textInput, cmd = m.textInput.Update(msg)
	}
	return m, cmd
}

func (m model) outputPath() string {
	return validate.NormalizeOutputPath("", m.filePath)
}

func (m model) estimatedSizeMB() float64 {
	start, end := 0.0, m.meta.Duration
	if m.start != nil {
		start = *m.start
	}
	if m.end != nil {
		end = *m.end
	}
	if end <= start {
		return 0
	}
	w := int(float64(m.meta.Width) * m.resizeFraction)
	h := int(float64(m.meta.Height) * m.resizeFraction)
	return validate.EstimateGIFSizeMB(end-start, w, h, m.fps)
}

func (m model) startConversion() (tea.Model, tea.Cmd) {
	m.state = stateProcessing
	m.percent = 0
	m.statusLine = "Starting..."
	m.progressChan = make(chan progressMsg, 16)

	req := convert.Request{
		Source:         m.filePath,
		ResizeFraction: m.resizeFraction,
		FPS:            m.fps,
		Start:          m.start,
		End:            m.end,
		Backend:        m.chosenBackend,
		Loop:           m.loop,
	}

	return m, tea.Batch(
		m.spinner.Tick,
		runConversion(m.pipeline, req, m.progressChan),
		waitForProgress(m.progressChan),
	)
}

func runConversion(pipeline *convert.Pipeline, req convert.Request, ch chan progressMsg) tea.Cmd {
	return func() tea.Msg {
		defer close(ch)

		bridge := progress.New(
			func(percent float64) { ch <- progressMsg{percent: percent} },
			func(message string) { ch <- progressMsg{line: message} },
		)

		result, err := pipeline.Convert(context.Background(), req, bridge)
		if err != nil {
			return convertDoneMsg{err: err}
		}
		return convertDoneMsg{output: result.OutputPath}
	}
}

func probeCmd(path string) tea.Cmd {
	return func() tea.Msg {
		meta, err := video.Probe(context.Background(), path)
		return metadataMsg{meta: meta, err: err}
	}
}

func waitForProgress(sub <-chan progressMsg) tea.Cmd {
	return func() tea.Msg {
		if msg, ok := <-sub; ok {
			return msg
		}
		return nil
	}
}

func (m model) View() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" vidgif "))
	s.WriteString("\n\n")

	if m.err != nil {
		s.WriteString(errStyle.Render(fmt.Sprintf("ERROR: %v", m.err)))
		s.WriteString("\n\n")
	}
	if m.tooLong {
		s.WriteString(warnStyle.Render(fmt.Sprintf(
			"Video is longer than %.0fs; pick a shorter clip or use the CLI.", m.cfg.TUIMaxDuration)))
		s.WriteString("\n\n")
	}

	switch m.state {
	case stateInputFile:
		s.WriteString(stepStyle.Render("1. Select Video File"))
		s.WriteString("\nDrag & drop, or type a path (Tab completes):\n\n")
		s.WriteString(m.textInput.View())

	case stateLoadingMeta:
		s.WriteString(stepStyle.Render("Reading video metadata..."))
		s.WriteString("\n\n" + m.spinner.View() + " " + filepath.Base(m.filePath))

	case stateInputResize:
		s.WriteString(stepStyle.Render("2. Resize"))
		s.WriteString(m.metaSummary())
		s.WriteString("\nOutput size as a percentage of the original (1-100).\n\n")
		s.WriteString(m.textInput.View())

	case stateInputFPS:
		s.WriteString(stepStyle.Render("3. Frame Rate"))
		s.WriteString("\nGIF frames per second.\n\n")
		s.WriteString(m.textInput.View())

	case stateInputStart:
		s.WriteString(stepStyle.Render("4. Trim Start"))
		s.WriteString(fmt.Sprintf("\nVideo runs %s. Leave empty to keep the start.\n\n", ui.FormatDuration(m.meta.Duration)))
		s.WriteString(m.textInput.View())

	case stateInputEnd:
		s.WriteString(stepStyle.Render("5. Trim End"))
		s.WriteString("\nLeave empty to keep the end.\n\n")
		s.WriteString(m.textInput.View())

	case stateSelectBackend:
		s.WriteString(stepStyle.Render("6. Encoder"))
		if est := m.estimatedSizeMB(); est > 0 {
			s.WriteString(fmt.Sprintf("\nEstimated GIF size: ~%.1f MB", est))
			if m.cfg.WarnSizeMB > 0 && est > m.cfg.WarnSizeMB {
				s.WriteString("\n" + warnStyle.Render("That is large; consider a lower resize or frame rate."))
			}
		}
		s.WriteString("\n\n")
		for i, name := range backendOptions {
			cursor, style := "  ", itemStyle
			if m.selectedIdx == i {
				cursor, style = "> ", selectedItemStyle
			}
			label := name
			if name == "ffmpeg" {
				label += "  (falls back to builtin when not installed)"
			}
			s.WriteString(style.Render(cursor+label) + "\n")
		}

	case stateSelectLoop:
		s.WriteString(stepStyle.Render("7. Playback"))
		s.WriteString("\n\n")
		for i, label := range loopOptions {
			cursor, style := "  ", itemStyle
			if m.selectedIdx == i {
				cursor, style = "> ", selectedItemStyle
			}
			s.WriteString(style.Render(cursor+label) + "\n")
		}

	case stateConfirmOverwrite:
		s.WriteString(warnStyle.Render(fmt.Sprintf("%s already exists.", m.outputPath())))
		s.WriteString("\n\nOverwrite? (y/n)")

	case stateProcessing:
		s.WriteString(stepStyle.Render("Creating GIF..."))
		s.WriteString("\n\n")

		width := 40
		filled := int(math.Max(0, math.Min(float64(width), m.percent/100*float64(width))))
		bar := progressFullStyle.Render(strings.Repeat("█", filled)) +
			progressEmptyStyle.Render(strings.Repeat("░", width-filled))

		s.WriteString(fmt.Sprintf("%s %s  %.0f%%\n\n", m.spinner.View(), bar, m.percent))
		s.WriteString(hintStyle.Render("Status: " + m.statusLine))

	case stateDone:
		s.WriteString(doneStyle.Render("Success!"))
		s.WriteString(fmt.Sprintf("\n\nSaved to:\n%s", m.outputFile))

	case stateError:
		s.WriteString(errStyle.Render("Failed."))
		if m.err != nil {
			s.WriteString("\n\n" + m.err.Error())
		}
		s.WriteString("\n\n" + hintStyle.Render("Enter to start over, Esc to quit."))
	}

	return appStyle.Render(s.String())
}

func (m model) metaSummary() string {
	if m.meta == nil {
		return ""
	}
	return fmt.Sprintf("\n%s  %dx%d  %s  %s",
		filepath.Base(m.meta.Path),
		m.meta.Width, m.meta.Height,
		ui.FormatDuration(m.meta.Duration),
		ui.FormatFileSize(m.meta.FileSize))
}

func findMatches(input string) []string {
	dir, file := filepath.Split(input)
	if dir == "" {
		dir = "."
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var matches []string
	for _, e := range entries {
		if strings.HasPrefix(strings.ToLower(e.Name()), strings.ToLower(file)) {
			fullPath := filepath.Join(dir, e.Name())
			if dir == "." {
				fullPath = e.Name()
			}
			if e.IsDir() {
				fullPath += string(os.PathSeparator)
			}
			matches = append(matches, fullPath)
		}
	}
	return matches
}
