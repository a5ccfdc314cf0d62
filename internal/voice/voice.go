package voice

import (
	"math"

	"github.com/cbegin/polysynth-go/internal/envelope"
	"github.com/cbegin/polysynth-go/internal/lfo"
	"github.com/cbegin/polysynth-go/internal/osc"
)

// Headroom scales every oscillator sample so that a full pool of
// full-velocity voices stays well below clipping.
const Headroom = 0.05

// NoNote marks a voice without an assigned note.
const NoNote = -1

// State is the note-level state of a voice.
type State int

const (
	Idle State = iota
	Playing
	Releasing
)

func (s State) String() string {
	switch s {
	case Playing:
		return "playing"
	case Releasing:
		return "releasing"
	default:
		return "idle"
	}
}

// Capability tags the kind of sound a voice can render.
type Capability int

const (
	CapabilityTone Capability = iota
)

// Voice renders a single note: one oscillator shaped by one envelope and,
// optionally, one tremolo LFO.
type Voice struct {
	osc osc.Oscillator
	env envelope.ADSR
	mod lfo.LFO

	sampleRate float64
	modRate    float64
	modDepth   float64

	note      int
	channel   int
	amplitude float64
	active    bool
	tremolo   bool
	age       int64
}

// New returns an idle voice.
func New(sampleRate float64) Voice {
	v := Voice{
		env:        envelope.New(sampleRate),
		mod:        lfo.New(sampleRate),
		sampleRate: sampleRate,
		modRate:    lfo.DefaultRate,
		modDepth:   lfo.DefaultDepth,
		note:       NoNote,
	}
	v.osc.SetFrequency(440, sampleRate)
	return v
}

// CanPlay reports whether the voice renders sounds of capability c.
func (v *Voice) CanPlay(c Capability) bool {
	return c == CapabilityTone
}

// State derives the voice state from its activity and envelope stage.
func (v *Voice) State() State {
	if !v.active {
		return Idle
	}
	if v.env.Stage() == envelope.Release {
		return Releasing
	}
	return Playing
}

func (v *Voice) Active() bool       { return v.active }
func (v *Voice) Note() int          { return v.note }
func (v *Voice) Channel() int       { return v.channel }
func (v *Voice) Amplitude() float64 { return v.amplitude }
func (v *Voice) Tremolo() bool      { return v.tremolo }
func (v *Voice) Age() int64         { return v.age }

// Frequency returns the oscillator frequency of the current note in Hz.
func (v *Voice) Frequency() float64 { return v.osc.Frequency() }

// PhaseIncrement returns the oscillator's per-sample phase advance.
func (v *Voice) PhaseIncrement() float64 { return v.osc.Increment() }

// Envelope exposes the envelope for inspection.
func (v *Voice) Envelope() *envelope.ADSR { return &v.env }

// Modulator exposes the tremolo LFO for inspection.
func (v *Voice) Modulator() *lfo.LFO { return &v.mod }

// StartNote assigns note to the voice and triggers its envelope. A busy
// voice is released first so the attack continues from its current level.
func (v *Voice) StartNote(note int, velocity float64, channel int) {
	if v.env.Active() {
		v.env.NoteOff()
	}
	v.note = note
	v.channel = channel
	v.amplitude = clamp01(velocity)
	v.osc.SetFrequency(osc.NoteToFrequency(note), v.sampleRate)
	v.osc.ResetPhase()
	v.mod.Set(v.sampleRate, v.modRate, v.modDepth)
	v.mod.Reset()
	v.active = true
	v.age = 0
	v.env.NoteOn()
}

// StopNote releases the envelope. Without tailoff the voice is cut at once.
func (v *Voice) StopNote(velocity float64, allowTailoff bool) {
	v.env.NoteOff()
	if !allowTailoff || !v.env.Active() {
		v.clear()
	}
}

func (v *Voice) clear() {
	v.env.Reset()
	v.note = NoNote
	v.active = false
}

// Render adds numFrames frames of this voice into the interleaved stereo
// buffer starting at frame start. Rendering stops early once the envelope
// has finished; the voice is then idle.
func (v *Voice) Render(buf []float32, start, numFrames int) {
	if !v.active {
		return
	}
	if start < 0 {
		start = 0
	}
	end := start + numFrames
	if frames := len(buf) / 2; end > frames {
		end = frames
	}
	for f := start; f < end; f++ {
		mod := v.mod.Next()
		raw := v.osc.Next() * v.amplitude * Headroom
		var out float64
		if v.tremolo {
			out = raw * v.env.Next() * mod
		} else {
			out = raw * v.env.Next()
		}
		s := float32(out)
		buf[2*f] += s
		buf[2*f+1] += s
		v.age++
		if !v.env.Active() {
			v.clear()
			break
		}
	}
}

func (v *Voice) SetWaveform(w osc.Waveform) {
	v.osc.SetWaveform(w)
}

func (v *Voice) SetTremolo(enabled bool) {
	v.tremolo = enabled
}

// SetModulation sets the tremolo rate and depth. A sounding note picks them
// up immediately and keeps its LFO phase.
func (v *Voice) SetModulation(rate, depth float64) {
	v.modRate = clamp01(rate)
	v.modDepth = clamp01(depth)
	v.mod.SetRate(v.modRate)
	v.mod.SetDepth(v.modDepth)
}

func (v *Voice) SetEnvelope(p envelope.Params) {
	v.env.SetParams(p)
}

// SetSampleRate re-initializes every rate dependent part of the voice.
func (v *Voice) SetSampleRate(sampleRate float64) {
	if sampleRate <= 0 {
		return
	}
	v.sampleRate = sampleRate
	v.osc.SetFrequency(v.osc.Frequency(), sampleRate)
	v.env.SetSampleRate(sampleRate)
	v.mod.SetSampleRate(sampleRate)
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
