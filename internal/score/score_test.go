package score

import (
	"errors"
	"testing"

	"github.com/cbegin/polysynth-go/internal/engine"
)

func TestParseNote(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"60", 60},
		{"C4", 60},
		{"A4", 69},
		{"c#4", 61},
		{"Bb3", 58},
		{"C-1", 0},
		{"G9", 127},
	}
	for _, tc := range cases {
		got, err := ParseNote(tc.in)
		if err != nil || got != tc.want {
			t.Errorf("ParseNote(%q) = %d, %v; want %d", tc.in, got, err, tc.want)
		}
	}
	for _, bad := range []string{"", "H4", "C", "128", "G#9", "Cx"} {
		if _, err := ParseNote(bad); !errors.Is(err, ErrSyntax) {
			t.Errorf("ParseNote(%q) error = %v, want ErrSyntax", bad, err)
		}
	}
}

func TestParseScore(t *testing.T) {
	s, err := ParseString(`
# chord
0.5 off 1 C4
0   on 1 C4 0.8
0   on 1 E4
1.0 alloff 1   # release everything
1.2 allsoundoff 2
`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := []TimedEvent{
		{0, engine.NoteOn(1, 60, 0.8)},
		{0, engine.NoteOn(1, 64, 1)},
		{0.5, engine.NoteOff(1, 60, 0)},
		{1.0, engine.AllNotesOff(1)},
		{1.2, engine.AllSoundOff(2)},
	}
	if len(s.Events) != len(want) {
		t.Fatalf("got %d events, want %d", len(s.Events), len(want))
	}
	for i := range want {
		if s.Events[i] != want[i] {
			t.Errorf("event %d = %+v, want %+v", i, s.Events[i], want[i])
		}
	}
	if s.Duration() != 1.2 {
		t.Fatalf("duration = %f", s.Duration())
	}
}

func TestParseScoreErrors(t *testing.T) {
	for _, text := range []string{
		"x on 1 60",
		"0 strum 1 60",
		"0 on 17 60",
		"0 on 1",
		"0 on 1 60 1.5",
		"0 alloff 1 60",
		"-1 on 1 60",
	} {
		if _, err := ParseString(text); !errors.Is(err, ErrSyntax) {
			t.Errorf("%q: error = %v, want ErrSyntax", text, err)
		}
	}
}
