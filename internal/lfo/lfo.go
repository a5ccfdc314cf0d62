package lfo

import "math"

const twoPi = math.Pi * 2

// Rate bounds in Hz for a normalized rate of 0 and 1.
const (
	MinRateHz = 0.1
	MaxRateHz = 10.0
)

// Default tremolo settings re-armed on every note start.
const (
	DefaultRate  = 0.3
	DefaultDepth = 1.0
)

// LFO is a per-voice sine modulator used for tremolo. It returns a value in
// [-depth, +depth].
type LFO struct {
	sampleRate float64
	rate       float64 // normalized [0, 1]
	depth      float64 // [0, 1]
	phase      float64 // [0, 1)
	inc        float64
}

// New returns an LFO with the default rate and depth.
func New(sampleRate float64) LFO {
	l := LFO{sampleRate: sampleRate, rate: DefaultRate, depth: DefaultDepth}
	l.update()
	return l
}

// Set configures sample rate, normalized rate and depth in one call.
func (l *LFO) Set(sampleRate, rate, depth float64) {
	l.sampleRate = sampleRate
	l.rate = clamp01(rate)
	l.depth = clamp01(depth)
	l.update()
}

func (l *LFO) SetSampleRate(sampleRate float64) {
	l.sampleRate = sampleRate
	l.update()
}

// SetRate maps a normalized rate in [0, 1] onto MinRateHz..MaxRateHz.
func (l *LFO) SetRate(rate float64) {
	l.rate = clamp01(rate)
	l.update()
}

func (l *LFO) SetDepth(depth float64) {
	l.depth = clamp01(depth)
}

func (l *LFO) Rate() float64  { return l.rate }
func (l *LFO) Depth() float64 { return l.depth }
func (l *LFO) Phase() float64 { return l.phase }

// RateHz returns the oscillation rate for the current normalized rate.
func (l *LFO) RateHz() float64 {
	return RateHz(l.rate)
}

// RateHz maps a normalized rate to Hz.
func RateHz(rate float64) float64 {
	return MinRateHz + clamp01(rate)*(MaxRateHz-MinRateHz)
}

func (l *LFO) update() {
	if l.sampleRate <= 0 {
		l.inc = 0
		return
	}
	l.inc = RateHz(l.rate) / l.sampleRate
}

// Next returns depth*sin(2*pi*phase) and advances the phase by one sample.
func (l *LFO) Next() float64 {
	v := l.depth * math.Sin(twoPi*l.phase)
	l.phase += l.inc
	for l.phase >= 1 {
		l.phase -= 1
	}
	return v
}

// Reset zeros the LFO phase.
func (l *LFO) Reset() {
	l.phase = 0
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
