// Package envelope implements a linear ADSR amplitude envelope.
package envelope

import "math"

// epsilon absorbs accumulated rounding so a segment of N samples ends on
// sample N.
const epsilon = 1e-9

// Stage is the current envelope segment.
type Stage int

const (
	Idle Stage = iota
	Attack
	Decay
	Sustain
	Release
)

func (s Stage) String() string {
	switch s {
	case Attack:
		return "attack"
	case Decay:
		return "decay"
	case Sustain:
		return "sustain"
	case Release:
		return "release"
	default:
		return "idle"
	}
}

// Params holds attack, decay and release times in seconds and the sustain
// level in [0, 1].
type Params struct {
	Attack  float64
	Decay   float64
	Sustain float64
	Release float64
}

// DefaultParams are the values the engine plays with unless configured.
func DefaultParams() Params {
	return Params{Attack: 0.1, Decay: 0.1, Sustain: 1.0, Release: 0.1}
}

// PluckParams is a long-attack, no-sustain shape: the note fades out after
// attack+decay even while held.
func PluckParams() Params {
	return Params{Attack: 0.9, Decay: 0.3, Sustain: 0, Release: 0.3}
}

// Clamped returns p with negative or NaN times set to zero and the sustain
// level limited to [0, 1].
func (p Params) Clamped() Params {
	return Params{
		Attack:  nonNegative(p.Attack),
		Decay:   nonNegative(p.Decay),
		Sustain: clamp01(p.Sustain),
		Release: nonNegative(p.Release),
	}
}

// ADSR is a linear envelope in the style of most plugin SDKs: attack and
// decay use fixed per-sample rates, release ramps from whatever level the
// note-off arrived at down to zero in Release seconds.
type ADSR struct {
	params     Params
	sampleRate float64

	attackRate  float64
	decayRate   float64
	releaseRate float64

	stage Stage
	level float64
}

// New returns an idle envelope with DefaultParams.
func New(sampleRate float64) ADSR {
	e := ADSR{params: DefaultParams(), sampleRate: sampleRate}
	e.recalculate()
	return e
}

func (e *ADSR) SetSampleRate(sampleRate float64) {
	if sampleRate <= 0 {
		return
	}
	if e.stage == Release && e.sampleRate > 0 {
		e.releaseRate *= e.sampleRate / sampleRate
	}
	e.sampleRate = sampleRate
	e.recalculate()
}

// SetParams replaces the stage times and sustain level. A release already in
// progress keeps its slope unless the release time itself changes.
func (e *ADSR) SetParams(p Params) {
	p = p.Clamped()
	releaseChanged := p.Release != e.params.Release
	e.params = p
	e.recalculate()
	if releaseChanged && e.stage == Release {
		e.releaseRate = rate(e.level, e.params.Release, e.sampleRate)
		if e.releaseRate == 0 {
			e.Reset()
		}
	}
}

func (e *ADSR) Params() Params { return e.params }

func (e *ADSR) Stage() Stage { return e.stage }

func (e *ADSR) Level() float64 { return e.level }

// Active reports whether the envelope is contributing audio.
func (e *ADSR) Active() bool { return e.stage != Idle }

func (e *ADSR) recalculate() {
	e.attackRate = rate(1, e.params.Attack, e.sampleRate)
	e.decayRate = rate(1-e.params.Sustain, e.params.Decay, e.sampleRate)
}

// NoteOn (re)starts the attack from the current level.
func (e *ADSR) NoteOn() {
	switch {
	case e.attackRate > 0:
		e.stage = Attack
	case e.decayRate > 0:
		e.level = 1
		e.stage = Decay
	default:
		e.level = e.params.Sustain
		e.stage = Sustain
	}
}

// NoteOff enters the release stage. It does nothing when idle or already
// releasing.
func (e *ADSR) NoteOff() {
	if e.stage == Idle || e.stage == Release {
		return
	}
	if e.params.Release > 0 && e.level > 0 {
		e.releaseRate = rate(e.level, e.params.Release, e.sampleRate)
		e.stage = Release
		return
	}
	e.Reset()
}

// Reset forces the envelope to Idle at level zero.
func (e *ADSR) Reset() {
	e.stage = Idle
	e.level = 0
}

// Next advances one sample and returns the level.
func (e *ADSR) Next() float64 {
	switch e.stage {
	case Attack:
		e.level += e.attackRate
		if e.level >= 1-epsilon {
			e.level = 1
			if e.decayRate > 0 {
				e.stage = Decay
			} else {
				e.level = e.params.Sustain
				e.stage = Sustain
			}
		}
	case Decay:
		e.level -= e.decayRate
		if e.level <= e.params.Sustain+epsilon {
			e.level = e.params.Sustain
			e.stage = Sustain
		}
	case Sustain:
		e.level = e.params.Sustain
	case Release:
		e.level -= e.releaseRate
		if e.level <= epsilon {
			e.Reset()
		}
	}
	return e.level
}

// rate returns the per-sample step covering distance in seconds, or 0 when
// the segment is instantaneous.
func rate(distance, seconds, sampleRate float64) float64 {
	if seconds <= 0 || sampleRate <= 0 {
		return 0
	}
	return distance / (seconds * sampleRate)
}

func nonNegative(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	return v
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
