// Package polysynth is a small polyphonic subtractive-style synthesizer:
// a fixed pool of voices, each an oscillator shaped by an ADSR envelope and
// an optional tremolo, mixed into interleaved stereo float32 blocks.
package polysynth

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	intaudio "github.com/cbegin/polysynth-go/internal/audio"
	intengine "github.com/cbegin/polysynth-go/internal/engine"
	intenv "github.com/cbegin/polysynth-go/internal/envelope"
	intosc "github.com/cbegin/polysynth-go/internal/osc"
	intvoice "github.com/cbegin/polysynth-go/internal/voice"
)

type (
	Event            = intengine.Event
	Notification     = intengine.Notification
	NotificationKind = intengine.NotificationKind
	Observer         = intengine.Observer
	Parameters       = intengine.Snapshot
	Envelope         = intenv.Params
	Waveform         = intosc.Waveform
	StealPolicy      = intvoice.StealPolicy
)

const (
	NotifyVelocity  = intengine.NotifyVelocity
	NotifyFrequency = intengine.NotifyFrequency
	NotifyNoteOff   = intengine.NotifyNoteOff

	Sine     = intosc.Sine
	Saw      = intosc.Saw
	Square   = intosc.Square
	Triangle = intosc.Triangle

	StealPoolOrder = intvoice.StealPoolOrder
	StealOldest    = intvoice.StealOldest
)

// Parameter names for SetParameter.
const (
	ParamWaveType       = intengine.ParamWaveType
	ParamTremoloEnabled = intengine.ParamTremoloEnabled
	ParamGainDB         = intengine.ParamGainDB
	ParamTremoloRate    = intengine.ParamTremoloRate
	ParamTremoloDepth   = intengine.ParamTremoloDepth
	ParamAttack         = intengine.ParamAttack
	ParamDecay          = intengine.ParamDecay
	ParamSustain        = intengine.ParamSustain
	ParamRelease        = intengine.ParamRelease
)

var (
	ErrPlaying           = errors.New("synth is playing")
	ErrInvalidSampleRate = intengine.ErrInvalidSampleRate
	ErrUnknownParameter  = intengine.ErrUnknownParameter
)

// DefaultEnvelope and PluckEnvelope are ready-made envelope settings.
func DefaultEnvelope() Envelope { return intenv.DefaultParams() }
func PluckEnvelope() Envelope   { return intenv.PluckParams() }

type Option func(*synthConfig)

type synthConfig struct {
	voices       int
	policy       StealPolicy
	observer     Observer
	log          zerolog.Logger
	sampleTap    func([]float32)
	backend      string
	maxBlockSize int
}

func defaultSynthConfig() synthConfig {
	return synthConfig{
		voices:       intvoice.DefaultVoices,
		policy:       StealPoolOrder,
		log:          zerolog.Nop(),
		backend:      intaudio.BackendEbiten,
		maxBlockSize: 512,
	}
}

// WithVoices sets the polyphony. The default is 6.
func WithVoices(n int) Option {
	return func(cfg *synthConfig) {
		cfg.voices = n
	}
}

func WithStealPolicy(p StealPolicy) Option {
	return func(cfg *synthConfig) {
		cfg.policy = p
	}
}

// WithObserver installs an observer that is told the velocity and display
// frequency of every accepted note-on. It runs on the caller's goroutine.
func WithObserver(o Observer) Option {
	return func(cfg *synthConfig) {
		cfg.observer = o
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(cfg *synthConfig) {
		cfg.log = log
	}
}

// WithSampleTap installs a callback invoked with each generated stereo buffer.
// The callback runs on the audio thread; keep work brief and non-blocking.
func WithSampleTap(tap func([]float32)) Option {
	return func(cfg *synthConfig) {
		cfg.sampleTap = tap
	}
}

// WithBackend selects the audio backend used by Start: "ebiten" (default),
// "oto" or "pulse".
func WithBackend(name string) Option {
	return func(cfg *synthConfig) {
		cfg.backend = name
	}
}

// WithMaxBlockSize sets the largest block rendered in one pass.
func WithMaxBlockSize(frames int) Option {
	return func(cfg *synthConfig) {
		cfg.maxBlockSize = frames
	}
}

// Synth wraps the engine with an audio device and a notification channel.
type Synth struct {
	mu         sync.Mutex
	engine     *intengine.Engine
	sampleRate int
	backend    string
	log        zerolog.Logger
	sampleTap  func([]float32)
	sink       intaudio.Sink
	paused     bool
	watch      watcher
}

func NewSynth(sampleRate int, opts ...Option) (*Synth, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSampleRate, sampleRate)
	}
	cfg := defaultSynthConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	s := &Synth{
		sampleRate: sampleRate,
		backend:    cfg.backend,
		log:        cfg.log,
		sampleTap:  cfg.sampleTap,
	}
	s.watch.next = cfg.observer
	s.engine = intengine.New(intengine.Config{
		SampleRate:   float64(sampleRate),
		MaxBlockSize: cfg.maxBlockSize,
		Voices:       cfg.voices,
		StealPolicy:  cfg.policy,
		Observer:     &s.watch,
		Logger:       cfg.log,
	})
	return s, nil
}

// Prepare changes the sample rate and block size. It fails with ErrPlaying
// while an audio device is open.
func (s *Synth) Prepare(sampleRate, maxBlockSize int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sink != nil {
		return ErrPlaying
	}
	if err := s.engine.Prepare(float64(sampleRate), maxBlockSize); err != nil {
		return err
	}
	s.sampleRate = sampleRate
	return nil
}

func (s *Synth) SampleRate() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sampleRate
}

// NoteOn queues a note start. Channels are 1-based, notes are MIDI numbers
// and velocity is in [0, 1]. It reports false if the note was rejected or
// the event queue is full.
func (s *Synth) NoteOn(channel, note int, velocity float64) bool {
	return s.engine.NoteOn(channel, note, velocity)
}

func (s *Synth) NoteOff(channel, note int, velocity float64) bool {
	return s.engine.NoteOff(channel, note, velocity)
}

// AllNotesOff releases every sounding voice; release tails still play.
func (s *Synth) AllNotesOff(channel int) bool {
	return s.engine.AllNotesOff(channel)
}

// AllSoundOff silences every voice at the next block.
func (s *Synth) AllSoundOff(channel int) bool {
	return s.engine.AllSoundOff(channel)
}

// Submit queues an already decoded event.
func (s *Synth) Submit(ev Event) bool {
	return s.engine.Submit(ev)
}

// SetParameter sets a named parameter. Values are clamped to the
// parameter's range; unknown names return ErrUnknownParameter.
func (s *Synth) SetParameter(name string, value float64) error {
	return s.engine.SetParameter(name, value)
}

func (s *Synth) SetEnvelope(env Envelope) {
	s.engine.SetEnvelope(env)
}

func (s *Synth) SetWaveform(w Waveform) error {
	return s.engine.SetParameter(ParamWaveType, float64(w))
}

func (s *Synth) Parameters() Parameters {
	return s.engine.Parameters()
}

func (s *Synth) ActiveVoices() int {
	return s.engine.ActiveVoices()
}

func (s *Synth) DroppedEvents() uint64 {
	return s.engine.DroppedEvents()
}

// Process renders len(dst)/2 stereo frames. It is the audio callback and
// must not be called concurrently with itself.
func (s *Synth) Process(dst []float32) {
	s.engine.Process(dst)
	if s.sampleTap != nil {
		s.sampleTap(dst)
	}
}

// Start opens the configured audio backend and begins playback. Calling
// Start on a paused synth resumes it.
func (s *Synth) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sink == nil {
		sink, err := intaudio.Open(s.backend, s.sampleRate, s, s.log)
		if err != nil {
			return err
		}
		s.sink = sink
	}
	s.sink.Play()
	s.paused = false
	return nil
}

func (s *Synth) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sink != nil {
		s.sink.Pause()
		s.paused = true
	}
}

func (s *Synth) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sink != nil {
		s.sink.Play()
		s.paused = false
	}
}

// Playing reports whether an audio device is open and not paused.
func (s *Synth) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sink != nil && !s.paused
}

// Stop closes the audio device. Sounding voices are cut so that a later
// Start begins from silence.
func (s *Synth) Stop() error {
	s.mu.Lock()
	sink := s.sink
	s.sink = nil
	s.paused = false
	s.mu.Unlock()
	if sink == nil {
		return nil
	}
	err := sink.Close()
	s.engine.AllSoundOff(1)
	return err
}

// Watch returns a channel that receives note notifications:
//   - NotifyVelocity and NotifyFrequency for every accepted note-on
//   - NotifyNoteOff for every accepted note-off
//
// The channel is buffered (cap 16) and notifications are dropped while it
// is full. Only the most recent Watch channel receives notifications.
func (s *Synth) Watch() <-chan Notification {
	return s.watch.subscribe(16)
}

// watcher forwards engine notifications to the current Watch channel and
// to the observer given by WithObserver.
type watcher struct {
	mu   sync.Mutex
	ch   *intengine.ChanObserver
	next Observer
}

func (w *watcher) subscribe(size int) <-chan Notification {
	ch := intengine.NewChanObserver(size)
	w.mu.Lock()
	w.ch = ch
	w.mu.Unlock()
	return ch.C
}

func (w *watcher) current() *intengine.ChanObserver {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ch
}

func (w *watcher) VelocityChanged(velocity float32) {
	if ch := w.current(); ch != nil {
		ch.VelocityChanged(velocity)
	}
	if w.next != nil {
		w.next.VelocityChanged(velocity)
	}
}

func (w *watcher) FrequencyChanged(frequency float32) {
	if ch := w.current(); ch != nil {
		ch.FrequencyChanged(frequency)
	}
	if w.next != nil {
		w.next.FrequencyChanged(frequency)
	}
}

func (w *watcher) NoteReleased(channel, note int) {
	if ch := w.current(); ch != nil {
		ch.NoteReleased(channel, note)
	}
	if g, ok := w.next.(intengine.GateObserver); ok {
		g.NoteReleased(channel, note)
	}
}
