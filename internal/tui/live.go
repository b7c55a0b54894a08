// SPDX-License-Identifier: MIT
package tui

import (
	"analyzer/internal/analysis"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	defaultWidth  = 80
	meterFloorDB  = -60.0
	spectrumRows  = 8
	spectrumMinHz = 20.0
)

var (
	recordKeys  = key.NewBinding(key.WithKeys("r"))
	sparkLevels = []rune(" ▁▂▃▄▅▆▇█")
)

// RecordToggle starts or stops recording and reports the new state and the
// file involved.
type RecordToggle func() (recording bool, path string, err error)

// FrameMsg carries a frame into the live view.
type FrameMsg struct{ Frame *analysis.Frame }

// LiveModel is the live analyzer view: note, tuning, loudness meter, band
// bars and a log-frequency spectrum.
type LiveModel struct {
	source string
	frame  *analysis.Frame
	width  int
	meter  progress.Model
	bands  progress.Model

	toggle    RecordToggle
	recording bool
	recordMsg string

	onsetHold int
}

// NewLiveModel returns a view for frames from the named source. toggle may
// be nil, which disables the record key.
func NewLiveModel(source string, toggle RecordToggle) LiveModel {
	m := LiveModel{
		source: source,
		toggle: toggle,
		meter:  progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		bands:  progress.New(progress.WithSolidFill("#25A065"), progress.WithoutPercentage()),
	}
	m.resize(defaultWidth)
	return m
}

func (m *LiveModel) resize(width int) {
	m.width = max(width, 40)
	m.meter.Width = m.width - 20
	m.bands.Width = m.width - 20
}

// Init does nothing; frames arrive as FrameMsg.
func (m LiveModel) Init() tea.Cmd { return nil }

// Update handles frames, resizes and keys.
func (m LiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case FrameMsg:
		m.frame = msg.Frame
		if m.frame != nil && m.frame.Onset {
			m.onsetHold = 5
		} else if m.onsetHold > 0 {
			m.onsetHold--
		}

	case tea.WindowSizeMsg:
		m.resize(msg.Width)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, quitKeys):
			return m, tea.Quit
		case key.Matches(msg, recordKeys) && m.toggle != nil:
			recording, path, err := m.toggle()
			m.recording = recording
			switch {
			case err != nil:
				m.recordMsg = alertStyle.Render(fmt.Sprintf("Recording error: %v", err))
			case recording:
				m.recordMsg = fmt.Sprintf("Recording to %s", path)
			default:
				m.recordMsg = fmt.Sprintf("Saved %s", path)
			}
		}
	}
	return m, nil
}

// View renders the current frame.
func (m LiveModel) View() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Audio Analyzer"))
	sb.WriteString(" " + dimStyle.Render(m.source))
	if m.recording {
		sb.WriteString(" " + alertStyle.Render("● REC"))
	}
	sb.WriteString("\n\n")

	f := m.frame
	if f == nil {
		sb.WriteString("Waiting for audio...\n")
		sb.WriteString("\n" + m.help())
		return sb.String()
	}

	sb.WriteString(m.renderTone(f))
	sb.WriteString("\n\n")

	level := fmt.Sprintf("%-9s", "Level")
	sb.WriteString(level + m.meter.ViewAs(meterPercent(f.RMS)))
	sb.WriteString(fmt.Sprintf(" %6.0f", f.RMS))
	if m.onsetHold > 0 {
		sb.WriteString(" " + highlightStyle.Render("◆"))
	}
	if f.Clipped {
		sb.WriteString(" " + alertStyle.Render("CLIP"))
	}
	sb.WriteString("\n\n")

	for _, b := range f.Bands {
		sb.WriteString(fmt.Sprintf("%-9s", b.Name) + m.bands.ViewAs(b.Relative) + "\n")
	}
	sb.WriteString("\n")
	sb.WriteString(renderSpectrum(f.Spectrum, m.width-2, spectrumRows))
	sb.WriteString("\n")

	status := f.Status
	if f.Degraded {
		status = alertStyle.Render(status)
	}
	sb.WriteString(status + "\n")
	if m.recordMsg != "" {
		sb.WriteString(m.recordMsg + "\n")
	}
	sb.WriteString("\n" + m.help())
	return sb.String()
}

func (m LiveModel) help() string {
	if m.toggle != nil {
		return infoStyle.Render("r: Record • q: Quit")
	}
	return infoStyle.Render("q: Quit")
}

func (m LiveModel) renderTone(f *analysis.Frame) string {
	d := f.Detection
	switch d.State {
	case analysis.Detected:
		tuning := offTuneStyle.Render(d.Tuning.Label)
		if d.Tuning.InTune {
			tuning = inTuneStyle.Render(d.Tuning.Label)
		}
		info := fmt.Sprintf("%.1f Hz\n%s\n%s", d.Peak.Refined, tuning, centsGauge(d.Note.Cents, 21))
		return lipgloss.JoinHorizontal(lipgloss.Center, noteStyle.Render(d.Note.String()), "  ", info)
	case analysis.DetectedNoNote:
		return fmt.Sprintf("%.1f Hz (outside note range)", d.Peak.Refined)
	case analysis.NotDetected:
		return "Listening..."
	default:
		return dimStyle.Render("Silence")
	}
}

// centsGauge draws a needle for cents in [-50, 50] across width cells.
func centsGauge(cents float64, width int) string {
	pos := int(math.Round((cents + 50) / 100 * float64(width-1)))
	pos = min(max(pos, 0), width-1)
	cells := []rune(strings.Repeat("─", width))
	cells[width/2] = '┼'
	cells[pos] = '▲'
	return "♭ " + string(cells) + " ♯"
}

// meterPercent maps an RMS value onto a decibel scale from meterFloorDB to
// full scale.
func meterPercent(rms float64) float64 {
	if rms <= 0 {
		return 0
	}
	db := 20 * math.Log10(rms/analysis.ClipLevel)
	return min(max((db-meterFloorDB)/-meterFloorDB, 0), 1)
}

// renderSpectrum draws the magnitudes on a log frequency axis, scaled to the
// largest magnitude, as rows of block characters.
func renderSpectrum(s *analysis.Spectrum, width, rows int) string {
	if s == nil || s.Bins() < 2 || width < 1 || rows < 1 {
		return ""
	}
	cols := columnLevels(s, width)
	top := 0.0
	for _, v := range cols {
		top = max(top, v)
	}

	var sb strings.Builder
	levels := len(sparkLevels) - 1
	for row := rows - 1; row >= 0; row-- {
		for _, v := range cols {
			h := 0.0
			if top > 0 {
				h = v / top * float64(rows)
			}
			cell := (h - float64(row)) * float64(levels)
			idx := min(max(int(cell), 0), levels)
			sb.WriteRune(sparkLevels[idx])
		}
		sb.WriteString("\n")
	}
	return dimStyle.Render(sb.String())
}

// columnLevels groups bins into width log-spaced columns and keeps each
// column's maximum.
func columnLevels(s *analysis.Spectrum, width int) []float64 {
	cols := make([]float64, width)
	lo, hi := math.Log(spectrumMinHz), math.Log(s.Frequency(s.Bins()-1))
	if hi <= lo {
		return cols
	}
	for i := 1; i < s.Bins(); i++ {
		f := s.Frequency(i)
		if f < spectrumMinHz {
			continue
		}
		c := int((math.Log(f) - lo) / (hi - lo) * float64(width-1))
		c = min(max(c, 0), width-1)
		cols[c] = max(cols[c], s.Magnitudes[i])
	}
	return cols
}

// MsgSender is satisfied by *tea.Program.
type MsgSender interface {
	Send(msg tea.Msg)
}

// ProgramRenderer forwards frames to a running program. Program.Send blocks
// until the program reads the message, so frames go through a one-slot
// mailbox and stale frames are replaced instead of queued.
type ProgramRenderer struct {
	program MsgSender
	mailbox chan *analysis.Frame
	done    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
}

// NewProgramRenderer starts forwarding to program.
func NewProgramRenderer(program MsgSender) *ProgramRenderer {
	r := &ProgramRenderer{
		program: program,
		mailbox: make(chan *analysis.Frame, 1),
		done:    make(chan struct{}),
	}
	r.wg.Add(1)
	go r.forward()
	return r
}

func (r *ProgramRenderer) forward() {
	defer r.wg.Done()
	for {
		select {
		case <-r.done:
			return
		case f := <-r.mailbox:
			r.program.Send(FrameMsg{Frame: f})
		}
	}
}

// Render replaces any frame still waiting in the mailbox.
func (r *ProgramRenderer) Render(frame *analysis.Frame) {
	for {
		select {
		case r.mailbox <- frame:
			return
		default:
		}
		select {
		case <-r.mailbox:
		default:
		}
	}
}

// Close stops forwarding. It does not quit the program.
func (r *ProgramRenderer) Close() error {
	r.once.Do(func() { close(r.done) })
	r.wg.Wait()
	return nil
}
