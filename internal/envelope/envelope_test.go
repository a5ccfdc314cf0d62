package envelope

import (
	"math"
	"testing"
)

func TestEnvelopeStagesAreMonotonic(t *testing.T) {
	e := New(1000)
	e.SetParams(Params{Attack: 0.05, Decay: 0.05, Sustain: 0.4, Release: 0.05})
	e.NoteOn()

	prev := e.Level()
	prevStage := e.Stage()
	seen := map[Stage]bool{}
	check := func(i int) {
		lvl := e.Next()
		st := e.Stage()
		seen[st] = true
		if st == prevStage {
			switch st {
			case Attack:
				if lvl < prev {
					t.Fatalf("sample %d: attack decreased %f -> %f", i, prev, lvl)
				}
			case Decay, Release:
				if lvl > prev {
					t.Fatalf("sample %d: %s increased %f -> %f", i, st, prev, lvl)
				}
			case Sustain:
				if lvl != prev {
					t.Fatalf("sample %d: sustain changed %f -> %f", i, prev, lvl)
				}
			}
		}
		if lvl < 0 || lvl > 1 {
			t.Fatalf("sample %d: level out of range %f", i, lvl)
		}
		if e.Active() != (st != Idle) {
			t.Fatalf("sample %d: Active()=%v in stage %s", i, e.Active(), st)
		}
		prev, prevStage = lvl, st
	}
	for i := 0; i < 200; i++ {
		check(i)
	}
	if e.Stage() != Sustain {
		t.Fatalf("expected sustain after 200 samples, got %s", e.Stage())
	}
	e.NoteOff()
	for i := 200; i < 400; i++ {
		check(i)
	}
	for _, st := range []Stage{Attack, Decay, Sustain, Release, Idle} {
		if !seen[st] {
			t.Errorf("stage %s never observed", st)
		}
	}
	if e.Active() || e.Level() != 0 {
		t.Fatalf("expected idle at zero, got %s %f", e.Stage(), e.Level())
	}
}

func TestEnvelopeAttackLength(t *testing.T) {
	e := New(1000)
	e.SetParams(Params{Attack: 0.01, Decay: 0, Sustain: 1, Release: 0.01})
	e.NoteOn()
	for i := 0; i < 9; i++ {
		e.Next()
	}
	if e.Stage() != Attack {
		t.Fatalf("attack ended early at %s", e.Stage())
	}
	if lvl := e.Next(); math.Abs(lvl-1) > 1e-9 {
		t.Fatalf("level after 10 samples = %f, want 1", lvl)
	}
	if e.Stage() != Sustain {
		t.Fatalf("zero decay should go straight to sustain, got %s", e.Stage())
	}
}

func TestEnvelopeIdleProducesZero(t *testing.T) {
	e := New(44100)
	if e.Active() {
		t.Fatal("new envelope should be idle")
	}
	for i := 0; i < 10; i++ {
		if v := e.Next(); v != 0 {
			t.Fatalf("idle envelope produced %f", v)
		}
	}
	e.NoteOff()
	if e.Stage() != Idle {
		t.Fatalf("note-off on idle envelope moved to %s", e.Stage())
	}
}

func TestEnvelopeRetriggerContinuesFromLevel(t *testing.T) {
	e := New(1000)
	e.SetParams(Params{Attack: 0.1, Decay: 0.1, Sustain: 0.5, Release: 0.1})
	e.NoteOn()
	for i := 0; i < 50; i++ {
		e.Next()
	}
	lvl := e.Level()
	e.NoteOff()
	e.NoteOn()
	if e.Stage() != Attack {
		t.Fatalf("retrigger should enter attack, got %s", e.Stage())
	}
	if e.Level() != lvl {
		t.Fatalf("retrigger jumped from %f to %f", lvl, e.Level())
	}
	if next := e.Next(); next < lvl {
		t.Fatalf("attack after retrigger went down: %f -> %f", lvl, next)
	}
}

func TestEnvelopeNoteOffWhileReleasingIsNoop(t *testing.T) {
	e := New(1000)
	e.NoteOn()
	for i := 0; i < 150; i++ {
		e.Next()
	}
	e.NoteOff()
	e.Next()
	before := e
	e.NoteOff()
	if e != before {
		t.Fatal("second note-off changed envelope state")
	}
}

func TestEnvelopeZeroRelease(t *testing.T) {
	e := New(1000)
	e.SetParams(Params{Attack: 0, Decay: 0, Sustain: 0.8, Release: 0})
	e.NoteOn()
	if e.Stage() != Sustain || e.Level() != 0.8 {
		t.Fatalf("zero attack/decay should jump to sustain, got %s %f", e.Stage(), e.Level())
	}
	e.NoteOff()
	if e.Active() {
		t.Fatal("zero release should go idle immediately")
	}
}

func TestParamsClamped(t *testing.T) {
	p := Params{Attack: -1, Decay: math.NaN(), Sustain: 3, Release: -0.5}.Clamped()
	if p.Attack != 0 || p.Decay != 0 || p.Sustain != 1 || p.Release != 0 {
		t.Fatalf("unexpected clamp result %+v", p)
	}
}

func TestEnvelopeReleaseKeepsSlopeWhenParamsRepeat(t *testing.T) {
	p := Params{Attack: 0, Decay: 0, Sustain: 1, Release: 0.1}
	e := New(1000)
	e.SetParams(p)
	e.NoteOn()
	e.NoteOff()

	samples := 0
	for e.Active() {
		// a republished but unchanged release time must not restart the tail
		e.SetParams(p)
		e.Next()
		samples++
		if samples > 1000 {
			t.Fatal("release never finished")
		}
	}
	if samples < 99 || samples > 101 {
		t.Fatalf("release lasted %d samples, want about 100", samples)
	}
}

func TestEnvelopeReleaseFollowsNewReleaseTime(t *testing.T) {
	e := New(1000)
	e.SetParams(Params{Attack: 0, Decay: 0, Sustain: 1, Release: 1})
	e.NoteOn()
	e.NoteOff()
	for i := 0; i < 500; i++ {
		e.Next()
	}
	e.SetParams(Params{Attack: 0, Decay: 0, Sustain: 1, Release: 0.1})
	samples := 0
	for e.Active() && samples < 1000 {
		e.Next()
		samples++
	}
	if samples < 99 || samples > 101 {
		t.Fatalf("shortened release lasted %d samples, want about 100", samples)
	}

	e.NoteOn()
	e.NoteOff()
	e.SetParams(Params{Attack: 0, Decay: 0, Sustain: 1, Release: 0})
	if e.Active() {
		t.Fatal("zero release time should stop a running release")
	}
}
