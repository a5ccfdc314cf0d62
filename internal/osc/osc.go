package osc

import "math"

const twoPi = math.Pi * 2

// Waveform selects the shape produced by an Oscillator.
type Waveform int

const (
	Sine Waveform = iota
	Saw
	Square
	Triangle
)

var waveformNames = [...]string{"sine", "saw", "square", "triangle"}

func (w Waveform) String() string {
	if w < 0 || int(w) >= len(waveformNames) {
		return "unknown"
	}
	return waveformNames[w]
}

// Valid reports whether w is one of the defined shapes.
func (w Waveform) Valid() bool {
	return w >= Sine && w <= Triangle
}

// ParseWaveform maps a waveform name back to its value.
func ParseWaveform(name string) (Waveform, bool) {
	for i, n := range waveformNames {
		if n == name {
			return Waveform(i), true
		}
	}
	return Sine, false
}

// Oscillator is a naive (non-bandlimited) periodic generator.
// The zero value is silent until SetFrequency is called.
type Oscillator struct {
	wave  Waveform
	phase float64 // [0, 1)
	freq  float64
	rate  float64
	inc   float64
}

func (o *Oscillator) SetWaveform(w Waveform) {
	if !w.Valid() {
		w = Sine
	}
	o.wave = w
}

func (o *Oscillator) Waveform() Waveform { return o.wave }

// SetFrequency updates the phase increment. The current phase is kept.
func (o *Oscillator) SetFrequency(hz, sampleRate float64) {
	o.freq = hz
	o.rate = sampleRate
	if hz <= 0 || sampleRate <= 0 || math.IsNaN(hz) || math.IsInf(hz, 0) {
		o.inc = 0
		return
	}
	o.inc = hz / sampleRate
}

func (o *Oscillator) Frequency() float64 { return o.freq }

// Increment returns the per-sample phase advance.
func (o *Oscillator) Increment() float64 { return o.inc }

func (o *Oscillator) Phase() float64 { return o.phase }

func (o *Oscillator) ResetPhase() { o.phase = 0 }

// Next returns the waveform at the current phase, then advances it.
func (o *Oscillator) Next() float64 {
	if o.inc == 0 {
		return 0
	}
	v := Shape(o.wave, o.phase)
	o.phase += o.inc
	for o.phase >= 1 {
		o.phase -= 1
	}
	return v
}

// Shape evaluates waveform w at phase p in [0, 1).
func Shape(w Waveform, p float64) float64 {
	switch w {
	case Saw:
		return 2*p - 1
	case Square:
		if p < 0.5 {
			return 1
		}
		return -1
	case Triangle:
		return 1 - 4*math.Abs(p-0.5)
	default:
		return math.Sin(twoPi * p)
	}
}

// NoteToFrequency converts a MIDI note number to Hz (A4 = 69 = 440 Hz).
func NoteToFrequency(note int) float64 {
	return 440 * math.Pow(2, float64(note-69)/12)
}
