package polysynth

import (
	"errors"
	"math"
	"testing"
)

type countingObserver struct {
	velocities int
	released   int
}

func (c *countingObserver) VelocityChanged(float32)  { c.velocities++ }
func (c *countingObserver) FrequencyChanged(float32) {}
func (c *countingObserver) NoteReleased(int, int)    { c.released++ }

func TestNewSynthRejectsSampleRate(t *testing.T) {
	if _, err := NewSynth(0); !errors.Is(err, ErrInvalidSampleRate) {
		t.Fatalf("error = %v", err)
	}
}

func TestSynthWatchNotifications(t *testing.T) {
	obs := &countingObserver{}
	s, err := NewSynth(48000, WithObserver(obs))
	if err != nil {
		t.Fatal(err)
	}
	ch := s.Watch()
	if !s.NoteOn(1, 69, 0.5) {
		t.Fatal("note on rejected")
	}
	if !s.NoteOff(1, 69, 0) {
		t.Fatal("note off rejected")
	}
	want := []Notification{
		{Kind: NotifyVelocity, Value: 0.5},
		{Kind: NotifyFrequency, Value: float32(math.Log2(440) * 440)},
		{Kind: NotifyNoteOff, Channel: 1, Note: 69},
	}
	for i, w := range want {
		got := <-ch
		if got != w {
			t.Fatalf("notification %d = %+v, want %+v", i, got, w)
		}
	}
	if obs.velocities != 1 || obs.released != 1 {
		t.Fatalf("observer saw %+v", obs)
	}
}

func TestSynthWatchReplacesChannel(t *testing.T) {
	s, err := NewSynth(48000)
	if err != nil {
		t.Fatal(err)
	}
	old := s.Watch()
	cur := s.Watch()
	s.NoteOn(1, 60, 1)
	if len(old) != 0 {
		t.Fatal("stale watch channel still receives")
	}
	if len(cur) != 2 {
		t.Fatalf("current channel has %d notifications, want 2", len(cur))
	}
}

func TestSynthSampleTap(t *testing.T) {
	var seen int
	s, err := NewSynth(48000, WithSampleTap(func(buf []float32) { seen += len(buf) }))
	if err != nil {
		t.Fatal(err)
	}
	s.Process(make([]float32, 256))
	if seen != 256 {
		t.Fatalf("tap saw %d samples", seen)
	}
}

func TestSynthPrepare(t *testing.T) {
	s, err := NewSynth(44100, WithVoices(2), WithStealPolicy(StealOldest))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Prepare(-1, 128); !errors.Is(err, ErrInvalidSampleRate) {
		t.Fatalf("error = %v", err)
	}
	if s.SampleRate() != 44100 {
		t.Fatalf("sample rate changed to %d", s.SampleRate())
	}
	if err := s.Prepare(22050, 128); err != nil {
		t.Fatal(err)
	}
	if s.SampleRate() != 22050 {
		t.Fatalf("sample rate = %d", s.SampleRate())
	}
	if s.Playing() {
		t.Fatal("playing without a device")
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("stop without start: %v", err)
	}
}

func TestSynthParameters(t *testing.T) {
	s, err := NewSynth(48000)
	if err != nil {
		t.Fatal(err)
	}
	p := s.Parameters()
	if p.Waveform != Sine || p.Tremolo || math.Abs(p.Gain-0.3) > 1e-12 {
		t.Fatalf("defaults = %+v", p)
	}
	if p.Envelope != DefaultEnvelope() {
		t.Fatalf("envelope = %+v", p.Envelope)
	}
	if err := s.SetWaveform(Triangle); err != nil {
		t.Fatal(err)
	}
	s.SetEnvelope(PluckEnvelope())
	if err := s.SetParameter("cutoff", 1); !errors.Is(err, ErrUnknownParameter) {
		t.Fatalf("error = %v", err)
	}
	p = s.Parameters()
	if p.Waveform != Triangle || p.Envelope != PluckEnvelope() {
		t.Fatalf("parameters = %+v", p)
	}
}
