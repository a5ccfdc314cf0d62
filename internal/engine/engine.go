// Package engine drives a voice pool block by block from a queue of note
// events and a set of atomically published parameters.
package engine

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/cbegin/polysynth-go/internal/envelope"
	"github.com/cbegin/polysynth-go/internal/osc"
	"github.com/cbegin/polysynth-go/internal/voice"
)

var (
	ErrInvalidSampleRate = errors.New("sample rate must be positive")
	ErrInvalidBlockSize  = errors.New("block size must be positive")
)

type Config struct {
	SampleRate   float64
	MaxBlockSize int
	Voices       int
	StealPolicy  voice.StealPolicy
	Observer     Observer
	Logger       zerolog.Logger
}

func DefaultConfig() Config {
	return Config{
		SampleRate:   44100,
		MaxBlockSize: 512,
		Voices:       voice.DefaultVoices,
		StealPolicy:  voice.StealPoolOrder,
		Logger:       zerolog.Nop(),
	}
}

// Engine renders stereo blocks from queued note events. Process runs on a
// single audio goroutine; every other method may be called from control
// goroutines, except Prepare which must not overlap Process.
type Engine struct {
	pool     *voice.Pool
	queue    Queue
	params   paramStore
	observer Observer
	log      zerolog.Logger

	sampleRate   float64
	maxBlockSize int

	// owned by the audio goroutine
	applied  uint64
	gain     float64
	waveform osc.Waveform
	tremolo  bool
	modRate  float64
	modDepth float64
	env      *envelope.Params

	active atomic.Int32
}

func New(cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = def.SampleRate
	}
	if cfg.MaxBlockSize <= 0 {
		cfg.MaxBlockSize = def.MaxBlockSize
	}
	if cfg.Voices <= 0 {
		cfg.Voices = def.Voices
	}
	e := &Engine{
		pool:         voice.NewPool(cfg.Voices, cfg.SampleRate, cfg.StealPolicy),
		observer:     cfg.Observer,
		log:          cfg.Logger,
		sampleRate:   cfg.SampleRate,
		maxBlockSize: cfg.MaxBlockSize,
	}
	e.params.init()
	e.applied = ^uint64(0)
	e.applyParams()
	return e
}

// Prepare sets the sample rate and maximum block size and re-initializes
// every voice. Invalid values leave the engine unchanged.
func (e *Engine) Prepare(sampleRate float64, maxBlockSize int) error {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidSampleRate, sampleRate)
	}
	if maxBlockSize <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidBlockSize, maxBlockSize)
	}
	e.sampleRate = sampleRate
	e.maxBlockSize = maxBlockSize
	e.pool.SetSampleRate(sampleRate)
	e.applied = ^uint64(0)
	e.env = nil
	e.applyParams()
	e.log.Debug().Float64("sample_rate", sampleRate).Int("max_block", maxBlockSize).Msg("engine prepared")
	return nil
}

func (e *Engine) SampleRate() float64 { return e.sampleRate }
func (e *Engine) MaxBlockSize() int   { return e.maxBlockSize }

// Pool exposes the voice pool. It must only be touched from the audio
// goroutine or while no Process call is running.
func (e *Engine) Pool() *voice.Pool { return e.pool }

// Submit queues ev for the next block. Note numbers outside 0..127 are
// dropped and velocities are clamped to [0, 1]. It reports whether the
// event was queued.
func (e *Engine) Submit(ev Event) bool {
	switch ev.Kind {
	case EventNoteOn, EventNoteOff:
		if ev.Note < 0 || ev.Note > 127 {
			e.log.Debug().Int("note", ev.Note).Stringer("kind", ev.Kind).Msg("note out of range, dropped")
			return false
		}
	case EventAllNotesOff, EventAllSoundOff:
	default:
		return false
	}
	ev.Velocity = clamp(ev.Velocity, 0, 1)
	if !e.queue.Push(ev) {
		e.log.Warn().Stringer("kind", ev.Kind).Int("note", ev.Note).Uint64("dropped", e.queue.Dropped()).Msg("event queue full")
		return false
	}
	e.notify(ev)
	return true
}

func (e *Engine) notify(ev Event) {
	if e.observer == nil {
		return
	}
	switch ev.Kind {
	case EventNoteOn:
		hz := osc.NoteToFrequency(ev.Note)
		e.observer.VelocityChanged(float32(ev.Velocity))
		e.observer.FrequencyChanged(float32(DerivedFrequency(hz)))
	case EventNoteOff:
		if g, ok := e.observer.(GateObserver); ok {
			g.NoteReleased(ev.Channel, ev.Note)
		}
	}
}

func (e *Engine) NoteOn(channel, note int, velocity float64) bool {
	return e.Submit(NoteOn(channel, note, velocity))
}

func (e *Engine) NoteOff(channel, note int, velocity float64) bool {
	return e.Submit(NoteOff(channel, note, velocity))
}

func (e *Engine) AllNotesOff(channel int) bool {
	return e.Submit(AllNotesOff(channel))
}

func (e *Engine) AllSoundOff(channel int) bool {
	return e.Submit(AllSoundOff(channel))
}

// SetParameter publishes a named parameter; it takes effect at the next
// block.
func (e *Engine) SetParameter(name string, value float64) error {
	if err := e.params.set(name, value); err != nil {
		return err
	}
	e.log.Debug().Str("param", name).Float64("value", value).Msg("parameter set")
	return nil
}

// SetEnvelope publishes all four envelope parameters at once.
func (e *Engine) SetEnvelope(p envelope.Params) {
	e.params.setEnvelope(p)
}

// Parameters returns the currently published parameter values.
func (e *Engine) Parameters() Snapshot {
	return e.params.snapshot()
}

// ActiveVoices returns the number of sounding voices after the last block.
func (e *Engine) ActiveVoices() int {
	return int(e.active.Load())
}

// DroppedEvents returns how many events were lost to a full queue.
func (e *Engine) DroppedEvents() uint64 {
	return e.queue.Dropped()
}

// Process renders len(dst)/2 interleaved stereo frames into dst. Events
// queued before the call take effect at its first frame, and events pushed
// while it runs wait for the next call. It does not allocate, lock or block.
func (e *Engine) Process(dst []float32) {
	e.applyParams()
	for n := e.queue.Len(); n > 0; n-- {
		ev, ok := e.queue.Pop()
		if !ok {
			break
		}
		e.dispatch(ev)
	}
	frames := len(dst) / 2
	for off := 0; off < frames; off += e.maxBlockSize {
		n := frames - off
		if n > e.maxBlockSize {
			n = e.maxBlockSize
		}
		e.processBlock(dst[off*2:(off+n)*2], n)
	}
	if len(dst)%2 == 1 {
		dst[len(dst)-1] = 0
	}
	e.active.Store(int32(e.pool.ActiveCount()))
}

func (e *Engine) processBlock(block []float32, frames int) {
	e.applyParams()
	clear(block)
	e.pool.Render(block, 0, frames)
	g := e.gain
	if g != 1 {
		for i := range block {
			block[i] = float32(float64(block[i]) * g)
		}
	}
}

func (e *Engine) dispatch(ev Event) {
	switch ev.Kind {
	case EventNoteOn:
		e.pool.NoteOn(ev.Channel, ev.Note, ev.Velocity)
	case EventNoteOff:
		e.pool.NoteOff(ev.Channel, ev.Note, ev.Velocity)
	case EventAllNotesOff:
		e.pool.AllNotesOff(ev.Channel)
	case EventAllSoundOff:
		e.pool.AllSoundOff(ev.Channel)
	}
}

// applyParams copies newly published parameters into the pool. Each group
// is pushed only when it differs from what the voices already hold.
func (e *Engine) applyParams() {
	e.gain = loadFloat(&e.params.gain)
	v := e.params.version.Load()
	if v == e.applied {
		return
	}
	e.applied = v
	if w := osc.Waveform(e.params.waveform.Load()); w != e.waveform || e.env == nil {
		e.waveform = w
		e.pool.SetWaveform(w)
	}
	if on := e.params.tremolo.Load(); on != e.tremolo || e.env == nil {
		e.tremolo = on
		e.pool.SetTremolo(on)
	}
	rate, depth := loadFloat(&e.params.modRate), loadFloat(&e.params.modDepth)
	if rate != e.modRate || depth != e.modDepth || e.env == nil {
		e.modRate, e.modDepth = rate, depth
		e.pool.SetModulation(rate, depth)
	}
	if env := e.params.envelope.Load(); env != e.env {
		e.env = env
		e.pool.SetEnvelope(*env)
	}
}
