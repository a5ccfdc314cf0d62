package osc

import (
	"math"
	"testing"
)

func TestOscillatorRangeAndPhase(t *testing.T) {
	for _, w := range []Waveform{Sine, Saw, Square, Triangle} {
		t.Run(w.String(), func(t *testing.T) {
			var o Oscillator
			o.SetWaveform(w)
			o.SetFrequency(1234.5, 44100)
			for i := 0; i < 100000; i++ {
				v := o.Next()
				if v < -1 || v > 1 {
					t.Fatalf("sample %d out of range: %f", i, v)
				}
				if p := o.Phase(); p < 0 || p >= 1 {
					t.Fatalf("phase %d out of range: %f", i, p)
				}
			}
		})
	}
}

func TestOscillatorSilentBeforeFrequency(t *testing.T) {
	var o Oscillator
	for i := 0; i < 16; i++ {
		if v := o.Next(); v != 0 {
			t.Fatalf("expected silence before SetFrequency, got %f", v)
		}
	}
	if o.Phase() != 0 {
		t.Fatalf("phase should not advance, got %f", o.Phase())
	}
	o.SetFrequency(440, -1)
	if v := o.Next(); v != 0 {
		t.Fatalf("negative sample rate should be silent, got %f", v)
	}
}

func TestOscillatorReturnsPreAdvancePhase(t *testing.T) {
	var o Oscillator
	o.SetWaveform(Saw)
	o.SetFrequency(100, 400) // increment 0.25
	want := []float64{-1, -0.5, 0, 0.5, -1}
	for i, w := range want {
		if got := o.Next(); math.Abs(got-w) > 1e-12 {
			t.Fatalf("sample %d: got %f, want %f", i, got, w)
		}
	}
}

func TestSetFrequencyKeepsPhase(t *testing.T) {
	var o Oscillator
	o.SetFrequency(100, 1000)
	o.Next()
	o.Next()
	before := o.Phase()
	o.SetFrequency(200, 1000)
	if o.Phase() != before {
		t.Fatalf("phase changed from %f to %f", before, o.Phase())
	}
	o.ResetPhase()
	if o.Phase() != 0 {
		t.Fatalf("ResetPhase left %f", o.Phase())
	}
}

func TestShapeKeyPoints(t *testing.T) {
	cases := []struct {
		w    Waveform
		p    float64
		want float64
	}{
		{Sine, 0, 0},
		{Sine, 0.25, 1},
		{Saw, 0.5, 0},
		{Square, 0.25, 1},
		{Square, 0.75, -1},
		{Triangle, 0, -1},
		{Triangle, 0.5, 1},
	}
	for _, tc := range cases {
		if got := Shape(tc.w, tc.p); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("%s at %.2f: got %f, want %f", tc.w, tc.p, got, tc.want)
		}
	}
}

func TestNoteToFrequency(t *testing.T) {
	if f := NoteToFrequency(69); f != 440 {
		t.Fatalf("A4 = %f, want 440", f)
	}
	if f := NoteToFrequency(60); math.Abs(f-261.6256) > 1e-3 {
		t.Fatalf("C4 = %f", f)
	}
}

func TestParseWaveform(t *testing.T) {
	for _, w := range []Waveform{Sine, Saw, Square, Triangle} {
		got, ok := ParseWaveform(w.String())
		if !ok || got != w {
			t.Errorf("ParseWaveform(%q) = %v, %v", w.String(), got, ok)
		}
	}
	if _, ok := ParseWaveform("noise"); ok {
		t.Error("unknown name should not parse")
	}
}
