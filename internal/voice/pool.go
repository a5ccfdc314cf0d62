package voice

import (
	"github.com/cbegin/polysynth-go/internal/envelope"
	"github.com/cbegin/polysynth-go/internal/osc"
)

// DefaultVoices is the pool size used when none is configured.
const DefaultVoices = 6

// StealPolicy decides which busy voice is reassigned when the pool is full.
type StealPolicy int

const (
	// StealPoolOrder takes the first releasing voice in pool order, or
	// failing that the first playing one.
	StealPoolOrder StealPolicy = iota
	// StealOldest takes the oldest releasing voice, or failing that the
	// oldest playing one.
	StealOldest
)

func (p StealPolicy) String() string {
	if p == StealOldest {
		return "oldest"
	}
	return "pool-order"
}

// Pool is a fixed set of voices. Voices are allocated once; note-on only
// assigns them.
type Pool struct {
	voices []Voice
	policy StealPolicy
}

// NewPool preallocates n voices.
func NewPool(n int, sampleRate float64, policy StealPolicy) *Pool {
	if n <= 0 {
		n = DefaultVoices
	}
	p := &Pool{voices: make([]Voice, n), policy: policy}
	for i := range p.voices {
		p.voices[i] = New(sampleRate)
	}
	return p
}

func (p *Pool) Len() int { return len(p.voices) }

// Voice returns the voice at index i in pool order.
func (p *Pool) Voice(i int) *Voice { return &p.voices[i] }

func (p *Pool) Policy() StealPolicy { return p.policy }

// ActiveCount returns the number of voices currently assigned a note.
func (p *Pool) ActiveCount() int {
	n := 0
	for i := range p.voices {
		if p.voices[i].active {
			n++
		}
	}
	return n
}

// NoteOn starts note on a free voice, stealing one when none is free, and
// returns the index of the voice used.
func (p *Pool) NoteOn(channel, note int, velocity float64) int {
	slot := p.selectVoice()
	p.voices[slot].StartNote(note, velocity, channel)
	return slot
}

func (p *Pool) selectVoice() int {
	for i := range p.voices {
		if !p.voices[i].active {
			return i
		}
	}
	if p.policy == StealOldest {
		return p.oldest()
	}
	for i := range p.voices {
		if p.voices[i].State() == Releasing {
			return i
		}
	}
	return 0
}

func (p *Pool) oldest() int {
	oldestRelease := -1
	var oldestReleaseAge int64 = -1
	oldestActive := 0
	var oldestActiveAge int64 = -1
	for i := range p.voices {
		v := &p.voices[i]
		if v.State() == Releasing && v.age > oldestReleaseAge {
			oldestRelease = i
			oldestReleaseAge = v.age
		}
		if v.age > oldestActiveAge {
			oldestActive = i
			oldestActiveAge = v.age
		}
	}
	if oldestRelease >= 0 {
		return oldestRelease
	}
	return oldestActive
}

// NoteOff releases every voice playing note, whatever its channel.
func (p *Pool) NoteOff(channel, note int, velocity float64) {
	for i := range p.voices {
		v := &p.voices[i]
		if v.active && v.note == note {
			v.StopNote(velocity, true)
		}
	}
}

// AllNotesOff releases every voice.
func (p *Pool) AllNotesOff(channel int) {
	for i := range p.voices {
		p.voices[i].StopNote(0, true)
	}
}

// AllSoundOff cuts every voice without a release tail.
func (p *Pool) AllSoundOff(channel int) {
	for i := range p.voices {
		p.voices[i].StopNote(0, false)
	}
}

// Render mixes every voice into buf, in pool order. There is no limiter.
func (p *Pool) Render(buf []float32, start, numFrames int) {
	for i := range p.voices {
		p.voices[i].Render(buf, start, numFrames)
	}
}

func (p *Pool) SetWaveform(w osc.Waveform) {
	for i := range p.voices {
		p.voices[i].SetWaveform(w)
	}
}

func (p *Pool) SetTremolo(enabled bool) {
	for i := range p.voices {
		p.voices[i].SetTremolo(enabled)
	}
}

func (p *Pool) SetModulation(rate, depth float64) {
	for i := range p.voices {
		p.voices[i].SetModulation(rate, depth)
	}
}

func (p *Pool) SetEnvelope(params envelope.Params) {
	for i := range p.voices {
		p.voices[i].SetEnvelope(params)
	}
}

func (p *Pool) SetSampleRate(sampleRate float64) {
	for i := range p.voices {
		p.voices[i].SetSampleRate(sampleRate)
	}
}
