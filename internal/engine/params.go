package engine

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/cbegin/polysynth-go/internal/envelope"
	"github.com/cbegin/polysynth-go/internal/lfo"
	"github.com/cbegin/polysynth-go/internal/osc"
)

// Parameter names accepted by SetParameter.
const (
	ParamWaveType       = "waveType"
	ParamTremoloEnabled = "tremoloEnabled"
	ParamGainDB         = "gainDb"
	ParamTremoloRate    = "tremoloRate"
	ParamTremoloDepth   = "tremoloDepth"
	ParamAttack         = "attack"
	ParamDecay          = "decay"
	ParamSustain        = "sustain"
	ParamRelease        = "release"

	// Aliases accepted from the web UI.
	ParamWaveShape = "waveShape"
	ParamLFOOn     = "lfoOn"
)

// Gain limits in dB. Values at or below MinGainDB are silence.
const (
	MinGainDB = -100.0
	MaxGainDB = 24.0
)

// DefaultGainDB reproduces a fixed output gain of 0.3.
var DefaultGainDB = 20 * math.Log10(0.3)

var ErrUnknownParameter = errors.New("unknown parameter")

// DBToGain converts decibels to a linear factor.
func DBToGain(db float64) float64 {
	if math.IsNaN(db) || db <= MinGainDB {
		return 0
	}
	if db > MaxGainDB {
		db = MaxGainDB
	}
	return math.Pow(10, db/20)
}

// paramStore is written by control goroutines and read by the audio
// goroutine at block boundaries.
type paramStore struct {
	waveform atomic.Int32
	tremolo  atomic.Bool
	gainDB   atomic.Uint64 // float64 bits
	gain     atomic.Uint64 // float64 bits
	modRate  atomic.Uint64 // float64 bits
	modDepth atomic.Uint64 // float64 bits
	envelope atomic.Pointer[envelope.Params]
	envMu    sync.Mutex // serializes envelope read-modify-write among writers
	version  atomic.Uint64
}

func (p *paramStore) init() {
	p.waveform.Store(int32(osc.Sine))
	p.setGainDB(DefaultGainDB)
	storeFloat(&p.modRate, lfo.DefaultRate)
	storeFloat(&p.modDepth, lfo.DefaultDepth)
	env := envelope.DefaultParams()
	p.envelope.Store(&env)
	p.version.Add(1)
}

func (p *paramStore) setGainDB(db float64) {
	if math.IsNaN(db) {
		db = MinGainDB
	}
	db = math.Max(MinGainDB, math.Min(MaxGainDB, db))
	storeFloat(&p.gainDB, db)
	storeFloat(&p.gain, DBToGain(db))
}

// set applies one named parameter. Out-of-range values are clamped.
func (p *paramStore) set(name string, value float64) error {
	switch name {
	case ParamWaveType, ParamWaveShape:
		w := osc.Waveform(math.Round(clamp(value, float64(osc.Sine), float64(osc.Triangle))))
		p.waveform.Store(int32(w))
	case ParamTremoloEnabled, ParamLFOOn:
		p.tremolo.Store(value != 0 && !math.IsNaN(value))
	case ParamGainDB:
		p.setGainDB(value)
	case ParamTremoloRate:
		storeFloat(&p.modRate, clamp(value, 0, 1))
	case ParamTremoloDepth:
		storeFloat(&p.modDepth, clamp(value, 0, 1))
	case ParamAttack, ParamDecay, ParamSustain, ParamRelease:
		p.envMu.Lock()
		defer p.envMu.Unlock()
		env := *p.envelope.Load()
		switch name {
		case ParamAttack:
			env.Attack = value
		case ParamDecay:
			env.Decay = value
		case ParamSustain:
			env.Sustain = value
		case ParamRelease:
			env.Release = value
		}
		env = env.Clamped()
		p.envelope.Store(&env)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownParameter, name)
	}
	p.version.Add(1)
	return nil
}

func (p *paramStore) setEnvelope(env envelope.Params) {
	p.envMu.Lock()
	defer p.envMu.Unlock()
	env = env.Clamped()
	p.envelope.Store(&env)
	p.version.Add(1)
}

// Snapshot is a consistent-enough copy of the parameters for display.
type Snapshot struct {
	Waveform     osc.Waveform
	Tremolo      bool
	GainDB       float64
	Gain         float64
	TremoloRate  float64
	TremoloDepth float64
	Envelope     envelope.Params
}

func (p *paramStore) snapshot() Snapshot {
	return Snapshot{
		Waveform:     osc.Waveform(p.waveform.Load()),
		Tremolo:      p.tremolo.Load(),
		GainDB:       loadFloat(&p.gainDB),
		Gain:         loadFloat(&p.gain),
		TremoloRate:  loadFloat(&p.modRate),
		TremoloDepth: loadFloat(&p.modDepth),
		Envelope:     *p.envelope.Load(),
	}
}

func storeFloat(u *atomic.Uint64, v float64) {
	u.Store(math.Float64bits(v))
}

func loadFloat(u *atomic.Uint64) float64 {
	return math.Float64frombits(u.Load())
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
