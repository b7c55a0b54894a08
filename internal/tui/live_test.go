// SPDX-License-Identifier: MIT
package tui

import (
	"analyzer/internal/analysis"
	"analyzer/pkg/signal"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func sineFrame(t *testing.T, frequency float64) *analysis.Frame {
	t.Helper()
	p := analysis.DefaultParams()
	a, err := analysis.NewAnalyzer(p)
	if err != nil {
		t.Fatal(err)
	}
	frame, err := a.Process(signal.GenerateSineWave(p.BlockSize, p.SampleRate, frequency, 10000))
	if err != nil {
		t.Fatal(err)
	}
	return frame
}

func TestLiveModelWaiting(t *testing.T) {
	view := NewLiveModel("synth", nil).View()
	if !strings.Contains(view, "Waiting for audio") {
		t.Errorf("initial view:\n%s", view)
	}
	if strings.Contains(view, "r: Record") {
		t.Error("record key advertised without a toggle")
	}
}

func TestLiveModelShowsNote(t *testing.T) {
	frame := sineFrame(t, 440)
	frame.Onset = true
	m, _ := update(t, NewLiveModel("synth", nil), tea.WindowSizeMsg{Width: 100, Height: 40}, FrameMsg{Frame: frame})

	view := m.View()
	for _, want := range []string{"A4", "in tune", "440.", "Level", "bass", "treble", "◆", frame.Status} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestLiveModelStates(t *testing.T) {
	degraded := &analysis.Frame{Degraded: true, Status: "No signal: device gone"}
	m, _ := update(t, NewLiveModel("mic", nil), FrameMsg{Frame: degraded})
	view := m.View()
	if !strings.Contains(view, "Silence") || !strings.Contains(view, "No signal: device gone") {
		t.Errorf("degraded view:\n%s", view)
	}

	high := &analysis.Frame{Detection: analysis.Detection{
		State: analysis.DetectedNoNote,
		Peak:  analysis.Peak{Refined: 4306.6},
	}}
	m, _ = update(t, m, FrameMsg{Frame: high})
	if !strings.Contains(m.View(), "4306.6 Hz (outside note range)") {
		t.Errorf("no-note view:\n%s", m.View())
	}
}

func TestLiveModelRecordToggle(t *testing.T) {
	recording := false
	toggle := func() (bool, string, error) {
		recording = !recording
		return recording, "take.wav", nil
	}

	m, _ := update(t, NewLiveModel("mic", toggle), FrameMsg{Frame: sineFrame(t, 440)}, keyMsg("r"))
	if view := m.View(); !strings.Contains(view, "REC") || !strings.Contains(view, "Recording to take.wav") {
		t.Errorf("view after starting:\n%s", view)
	}

	m, _ = update(t, m, keyMsg("r"))
	if view := m.View(); strings.Contains(view, "REC") || !strings.Contains(view, "Saved take.wav") {
		t.Errorf("view after stopping:\n%s", view)
	}

	failing := func() (bool, string, error) { return false, "", errors.New("disk full") }
	m, _ = update(t, NewLiveModel("mic", failing), keyMsg("r"))
	if !strings.Contains(m.View(), "Recording error: disk full") {
		t.Errorf("error view:\n%s", m.View())
	}
}

func TestLiveModelQuit(t *testing.T) {
	if _, cmd := NewLiveModel("mic", nil).Update(keyMsg("q")); !isQuit(cmd) {
		t.Error("q did not quit")
	}
}

func TestMeterPercent(t *testing.T) {
	tests := []struct {
		rms  float64
		want float64
	}{
		{0, 0},
		{-1, 0},
		{analysis.ClipLevel, 1},
		{analysis.ClipLevel * 2, 1},
		{analysis.ClipLevel / 1000.0, 0},
		{analysis.ClipLevel / 31.6227766, 0.5},
	}
	for _, tt := range tests {
		if got := meterPercent(tt.rms); got < tt.want-1e-6 || got > tt.want+1e-6 {
			t.Errorf("meterPercent(%v) = %v, want %v", tt.rms, got, tt.want)
		}
	}
}

func TestCentsGauge(t *testing.T) {
	tests := []struct {
		cents float64
		pos   int
	}{
		{-50, 0},
		{0, 10},
		{50, 20},
		{-80, 0},
	}
	for _, tt := range tests {
		g := []rune(strings.TrimSuffix(strings.TrimPrefix(centsGauge(tt.cents, 21), "♭ "), " ♯"))
		if len(g) != 21 || g[tt.pos] != '▲' {
			t.Errorf("centsGauge(%v) = %q, want needle at %d", tt.cents, string(g), tt.pos)
		}
	}
}

func TestRenderSpectrum(t *testing.T) {
	frame := sineFrame(t, 440)
	out := renderSpectrum(frame.Spectrum, 60, 4)
	if !strings.Contains(out, "█") {
		t.Errorf("spectrum has no full cell:\n%s", out)
	}
	if renderSpectrum(nil, 60, 4) != "" {
		t.Error("nil spectrum rendered")
	}

	cols := columnLevels(frame.Spectrum, 60)
	peak := 0
	for i, v := range cols {
		if v > cols[peak] {
			peak = i
		}
	}
	// 440 Hz on a 20 Hz..22 kHz log axis sits at about 44% of the width.
	if peak < 23 || peak > 29 {
		t.Errorf("peak column = %d, want about 26", peak)
	}
}

type fakeProgram struct {
	mu   sync.Mutex
	msgs []tea.Msg
	gate chan struct{}
}

func (p *fakeProgram) Send(msg tea.Msg) {
	if p.gate != nil {
		<-p.gate
	}
	p.mu.Lock()
	p.msgs = append(p.msgs, msg)
	p.mu.Unlock()
}

func (p *fakeProgram) received() []tea.Msg {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]tea.Msg(nil), p.msgs...)
}

func TestProgramRendererForwards(t *testing.T) {
	prog := &fakeProgram{}
	r := NewProgramRenderer(prog)
	defer r.Close()

	frame := &analysis.Frame{Sequence: 1}
	r.Render(frame)

	deadline := time.Now().Add(2 * time.Second)
	for len(prog.received()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("frame not forwarded")
		}
		time.Sleep(time.Millisecond)
	}
	if msg, ok := prog.received()[0].(FrameMsg); !ok || msg.Frame != frame {
		t.Errorf("forwarded %#v", prog.received()[0])
	}
}

func TestProgramRendererReplacesStaleFrames(t *testing.T) {
	prog := &fakeProgram{gate: make(chan struct{})}
	r := NewProgramRenderer(prog)

	// The first frame blocks in Send; later ones compete for the mailbox.
	for i := range 10 {
		r.Render(&analysis.Frame{Sequence: uint64(i + 1)})
	}
	close(prog.gate)

	deadline := time.Now().Add(2 * time.Second)
	for {
		msgs := prog.received()
		if len(msgs) > 0 && msgs[len(msgs)-1].(FrameMsg).Frame.Sequence == 10 {
			if len(msgs) > 2 {
				t.Errorf("forwarded %d frames, want at most 2", len(msgs))
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("latest frame not forwarded, got %d messages", len(msgs))
		}
		time.Sleep(time.Millisecond)
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
}
