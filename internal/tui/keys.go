// Package tui is a computer-keyboard front end for the synth.
package tui

import (
	"fmt"
	"sync"

	"github.com/cbegin/polysynth-go/internal/engine"
	"github.com/cbegin/polysynth-go/internal/osc"
)

// Controller is the part of the synth the keyboard drives.
type Controller interface {
	NoteOn(channel, note int, velocity float64) bool
	NoteOff(channel, note int, velocity float64) bool
	AllNotesOff(channel int) bool
	SetParameter(name string, value float64) error
	Parameters() engine.Snapshot
	ActiveVoices() int
}

// Channel is the MIDI channel keyboard notes are sent on.
const Channel = 1

const (
	baseNote  = 60 // C4
	maxOctave = 4
	gainStep  = 1.0
)

// pianoRow maps the home row and the row above it to semitones above C.
var pianoRow = map[string]int{
	"a": 0, "w": 1, "s": 2, "e": 3, "d": 4, "f": 5, "t": 6,
	"g": 7, "y": 8, "h": 9, "u": 10, "j": 11, "k": 12,
}

// Result reports what a key press did.
type Result struct {
	Note   int // played note, or -1
	Quit   bool
	Status string
}

// Keys turns key names into synth calls. Key names follow bubbletea's
// KeyMsg.String, so "esc", "ctrl+c" and " " for space.
type Keys struct {
	Octave   int
	Velocity float64
}

func NewKeys() *Keys {
	return &Keys{Velocity: 0.8}
}

// Note returns the note for a piano key at the current octave.
func (k *Keys) Note(key string) (int, bool) {
	st, ok := pianoRow[key]
	if !ok {
		return 0, false
	}
	n := baseNote + 12*k.Octave + st
	if n < 0 || n > 127 {
		return 0, false
	}
	return n, true
}

func (k *Keys) Press(ctl Controller, key string) Result {
	res := Result{Note: -1}
	if n, ok := k.Note(key); ok {
		if ctl.NoteOn(Channel, n, k.Velocity) {
			res.Note = n
		}
		return res
	}
	switch key {
	case "q", "esc", "ctrl+c":
		ctl.AllNotesOff(Channel)
		res.Quit = true
	case "z":
		if k.Octave > -maxOctave {
			k.Octave--
		}
		res.Status = fmt.Sprintf("octave %+d", k.Octave)
	case "x":
		if k.Octave < maxOctave {
			k.Octave++
		}
		res.Status = fmt.Sprintf("octave %+d", k.Octave)
	case "1", "2", "3", "4":
		w := osc.Waveform(key[0] - '1')
		res.Status = k.set(ctl, engine.ParamWaveType, float64(w), "wave "+w.String())
	case " ", "space":
		on := !ctl.Parameters().Tremolo
		v := 0.0
		if on {
			v = 1
		}
		res.Status = k.set(ctl, engine.ParamTremoloEnabled, v, fmt.Sprintf("tremolo %t", on))
	case "-", "=", "+":
		db := ctl.Parameters().GainDB
		if key == "-" {
			db -= gainStep
		} else {
			db += gainStep
		}
		if err := ctl.SetParameter(engine.ParamGainDB, db); err != nil {
			res.Status = err.Error()
		} else {
			res.Status = fmt.Sprintf("gain %.1f dB", ctl.Parameters().GainDB)
		}
	case "0":
		ctl.AllNotesOff(Channel)
		res.Status = "all notes off"
	}
	return res
}

func (k *Keys) set(ctl Controller, name string, v float64, ok string) string {
	if err := ctl.SetParameter(name, v); err != nil {
		return err.Error()
	}
	return ok
}

// gate counts presses per note so a repeated key keeps sounding until its
// last hold expires.
type gate struct {
	mu   sync.Mutex
	held map[int]int
}

func (g *gate) press(note int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.held == nil {
		g.held = make(map[int]int)
	}
	g.held[note]++
}

func (g *gate) holding(note int) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.held[note] > 0
}

// release reports whether note has no presses left.
func (g *gate) release(note int) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.held[note] == 0 {
		return false
	}
	g.held[note]--
	if g.held[note] > 0 {
		return false
	}
	delete(g.held, note)
	return true
}
