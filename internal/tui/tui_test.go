package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cbegin/polysynth-go/internal/engine"
	"github.com/cbegin/polysynth-go/internal/osc"
)

func newEngine(t *testing.T) *engine.Engine {
	t.Helper()
	e := engine.New(engine.DefaultConfig())
	if err := e.Prepare(44100, 256); err != nil {
		t.Fatal(err)
	}
	return e
}

func TestKeyNotes(t *testing.T) {
	k := NewKeys()
	cases := map[string]int{"a": 60, "w": 61, "h": 69, "k": 72}
	for key, want := range cases {
		if got, ok := k.Note(key); !ok || got != want {
			t.Errorf("Note(%q) = %d, %v; want %d", key, got, ok, want)
		}
	}
	if _, ok := k.Note("b"); ok {
		t.Error("b mapped to a note")
	}
	k.Octave = 4
	if n, ok := k.Note("k"); ok {
		t.Errorf("note %d above range accepted", n)
	}
}

func TestPressControls(t *testing.T) {
	e := newEngine(t)
	k := NewKeys()

	if res := k.Press(e, "3"); res.Status != "wave square" {
		t.Fatalf("status = %q", res.Status)
	}
	if got := e.Parameters().Waveform; got != osc.Square {
		t.Fatalf("waveform = %v", got)
	}
	k.Press(e, " ")
	if !e.Parameters().Tremolo {
		t.Fatal("space did not enable tremolo")
	}
	before := e.Parameters().GainDB
	k.Press(e, "-")
	if got := e.Parameters().GainDB; got != before-gainStep {
		t.Fatalf("gain = %f, want %f", got, before-gainStep)
	}
	k.Press(e, "x")
	if k.Octave != 1 {
		t.Fatalf("octave = %d", k.Octave)
	}
	if res := k.Press(e, "a"); res.Note != 72 {
		t.Fatalf("note = %d", res.Note)
	}
	if res := k.Press(e, "q"); !res.Quit {
		t.Fatal("q did not quit")
	}
}

func TestGateCountsPresses(t *testing.T) {
	var g gate
	g.press(60)
	g.press(60)
	if g.release(60) {
		t.Fatal("released while still held")
	}
	if !g.release(60) {
		t.Fatal("last release not reported")
	}
	if g.release(60) {
		t.Fatal("release without press reported")
	}
}

func TestModelReleasesAfterHold(t *testing.T) {
	e := newEngine(t)
	m := NewModel(e, nil, 10*time.Millisecond)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'h'}})
	if cmd == nil {
		t.Fatal("no release scheduled")
	}
	buf := make([]float32, 2*64)
	e.Process(buf)
	if e.ActiveVoices() != 1 {
		t.Fatalf("active voices = %d", e.ActiveVoices())
	}
	msg := cmd()
	rel, ok := msg.(releaseMsg)
	if !ok || rel.note != 69 {
		t.Fatalf("cmd produced %#v", msg)
	}
	m.Update(msg)
	e.SetParameter(engine.ParamRelease, 0)
	e.Process(buf)
	if e.ActiveVoices() != 0 {
		t.Fatalf("voice still active after release")
	}
	if v := m.View(); v == "" {
		t.Fatal("empty view")
	}
}

func TestNoteName(t *testing.T) {
	for n, want := range map[int]string{60: "C4", 69: "A4", 0: "C-1", -1: "-"} {
		if got := noteName(n); got != want {
			t.Errorf("noteName(%d) = %q, want %q", n, got, want)
		}
	}
}
