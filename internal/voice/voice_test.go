package voice

import (
	"math"
	"testing"

	"github.com/cbegin/polysynth-go/internal/envelope"
	"github.com/cbegin/polysynth-go/internal/lfo"
	"github.com/cbegin/polysynth-go/internal/osc"
)

const testRate = 48000

func TestVoiceStartNoteA4(t *testing.T) {
	v := New(testRate)
	v.SetWaveform(osc.Saw)
	v.StartNote(69, 1.0, 1)

	buf := make([]float32, 2)
	v.Render(buf, 0, 1)

	if got, want := v.PhaseIncrement(), 440.0/testRate; math.Abs(got-want) > 1e-12 {
		t.Fatalf("phase increment = %g, want %g", got, want)
	}
	if buf[0] == 0 || buf[0] != buf[1] {
		t.Fatalf("expected identical non-zero stereo sample, got %v", buf)
	}
	env := v.Envelope()
	if env.Stage() != envelope.Attack || env.Level() <= 0 {
		t.Fatalf("expected mid-attack, got %s at %f", env.Stage(), env.Level())
	}
	if v.State() != Playing || v.Note() != 69 {
		t.Fatalf("state=%s note=%d", v.State(), v.Note())
	}
}

func TestVoiceIdleRendersNothing(t *testing.T) {
	v := New(testRate)
	buf := []float32{0.5, 0.5, 0.5, 0.5}
	v.Render(buf, 0, 2)
	for i, s := range buf {
		if s != 0.5 {
			t.Fatalf("idle voice touched sample %d: %f", i, s)
		}
	}
	if v.Note() != NoNote || v.Active() {
		t.Fatal("new voice should be unassigned")
	}
}

func TestVoiceReleaseEndsAndLeavesTailUntouched(t *testing.T) {
	v := New(1000)
	v.SetEnvelope(envelope.Params{Attack: 0, Decay: 0, Sustain: 1, Release: 0.01})
	v.StartNote(60, 1, 1)
	v.StopNote(0, true)
	if v.State() != Releasing {
		t.Fatalf("expected releasing, got %s", v.State())
	}

	const frames = 64
	buf := make([]float32, frames*2)
	for i := range buf {
		buf[i] = 7
	}
	v.Render(buf, 0, frames)

	if v.State() != Idle || v.Note() != NoNote {
		t.Fatalf("expected idle after release, got %s note %d", v.State(), v.Note())
	}
	// 10 release samples, the last of which reaches zero.
	for f := 10; f < frames; f++ {
		if buf[2*f] != 7 || buf[2*f+1] != 7 {
			t.Fatalf("frame %d written after voice finished", f)
		}
	}
}

func TestVoiceHardStop(t *testing.T) {
	v := New(testRate)
	v.StartNote(60, 0.8, 1)
	v.StopNote(0, false)
	if v.State() != Idle || v.Note() != NoNote || v.Envelope().Active() {
		t.Fatalf("hard stop should force idle, got %s", v.State())
	}
}

func TestVoiceTremoloMultipliesByModulator(t *testing.T) {
	const frames = 2048
	plain := New(testRate)
	trem := New(testRate)
	trem.SetTremolo(true)
	plain.StartNote(57, 0.9, 1)
	trem.StartNote(57, 0.9, 1)

	a := make([]float32, frames*2)
	b := make([]float32, frames*2)
	plain.Render(a, 0, frames)
	trem.Render(b, 0, frames)

	mod := lfo.New(testRate)
	mod.Set(testRate, lfo.DefaultRate, lfo.DefaultDepth)
	for f := 0; f < frames; f++ {
		m := mod.Next()
		want := float64(a[2*f]) * m
		if math.Abs(float64(b[2*f])-want) > 1e-7 {
			t.Fatalf("frame %d: got %g, want %g", f, b[2*f], want)
		}
		if math.Abs(float64(b[2*f])) > math.Abs(float64(a[2*f]))*lfo.DefaultDepth+1e-7 {
			t.Fatalf("frame %d exceeds depth bound", f)
		}
	}
}

func TestVoiceRetriggerKeepsLevel(t *testing.T) {
	v := New(1000)
	v.StartNote(60, 1, 1)
	buf := make([]float32, 100)
	v.Render(buf, 0, 50)
	lvl := v.Envelope().Level()
	v.StartNote(64, 1, 1)
	if v.Envelope().Level() != lvl {
		t.Fatalf("retrigger jumped envelope from %f to %f", lvl, v.Envelope().Level())
	}
	if v.Note() != 64 {
		t.Fatalf("note = %d, want 64", v.Note())
	}
}

func TestVoiceCapability(t *testing.T) {
	v := New(testRate)
	if !v.CanPlay(CapabilityTone) {
		t.Fatal("voice should play tones")
	}
	if v.CanPlay(Capability(42)) {
		t.Fatal("unknown capability accepted")
	}
}
