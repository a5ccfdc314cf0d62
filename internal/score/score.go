// Package score reads timed note events for offline rendering.
//
// Each non-empty line holds one event:
//
//	<seconds> on <channel> <note> [velocity]
//	<seconds> off <channel> <note> [velocity]
//	<seconds> alloff <channel>
//	<seconds> allsoundoff <channel>
//
// Notes are MIDI numbers or names such as C4, F#3 or Bb5 (C4 = 60).
// Velocity is in [0, 1] and defaults to 1 for note-on, 0 for note-off.
// Text after '#' is ignored.
package score

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/cbegin/polysynth-go/internal/engine"
)

var ErrSyntax = errors.New("score syntax error")

// TimedEvent is an event due at Time seconds from the start.
type TimedEvent struct {
	Time  float64
	Event engine.Event
}

type Score struct {
	Events []TimedEvent
}

// Duration returns the time of the last event.
func (s *Score) Duration() float64 {
	if len(s.Events) == 0 {
		return 0
	}
	return s.Events[len(s.Events)-1].Time
}

func Load(path string) (*Score, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

func ParseString(text string) (*Score, error) {
	return Parse(strings.NewReader(text))
}

// Parse reads a score. Events are ordered by time; events at the same time
// keep their order in the file.
func Parse(r io.Reader) (*Score, error) {
	s := &Score{}
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}
		ev, err := parseLine(fields)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		s.Events = append(s.Events, ev)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	sort.SliceStable(s.Events, func(i, j int) bool {
		return s.Events[i].Time < s.Events[j].Time
	})
	return s, nil
}

func parseLine(fields []string) (TimedEvent, error) {
	if len(fields) < 3 {
		return TimedEvent{}, fmt.Errorf("%w: want <seconds> <kind> <channel> ...", ErrSyntax)
	}
	at, err := strconv.ParseFloat(fields[0], 64)
	if err != nil || at < 0 {
		return TimedEvent{}, fmt.Errorf("%w: bad time %q", ErrSyntax, fields[0])
	}
	kind, ok := engine.ParseEventKind(strings.ToLower(fields[1]))
	if !ok {
		return TimedEvent{}, fmt.Errorf("%w: unknown event %q", ErrSyntax, fields[1])
	}
	ch, err := strconv.Atoi(fields[2])
	if err != nil || ch < 1 || ch > 16 {
		return TimedEvent{}, fmt.Errorf("%w: bad channel %q", ErrSyntax, fields[2])
	}
	ev := engine.Event{Kind: kind, Channel: ch}
	switch kind {
	case engine.EventNoteOn, engine.EventNoteOff:
		if len(fields) < 4 || len(fields) > 5 {
			return TimedEvent{}, fmt.Errorf("%w: %s wants a note and optional velocity", ErrSyntax, kind)
		}
		note, err := ParseNote(fields[3])
		if err != nil {
			return TimedEvent{}, err
		}
		ev.Note = note
		if kind == engine.EventNoteOn {
			ev.Velocity = 1
		}
		if len(fields) == 5 {
			v, err := strconv.ParseFloat(fields[4], 64)
			if err != nil || v < 0 || v > 1 {
				return TimedEvent{}, fmt.Errorf("%w: bad velocity %q", ErrSyntax, fields[4])
			}
			ev.Velocity = v
		}
	default:
		if len(fields) != 3 {
			return TimedEvent{}, fmt.Errorf("%w: %s takes only a channel", ErrSyntax, kind)
		}
	}
	return TimedEvent{Time: at, Event: ev}, nil
}

var semitones = map[byte]int{'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11}

// ParseNote accepts a MIDI number (0-127) or a note name with octave.
func ParseNote(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 || n > 127 {
			return 0, fmt.Errorf("%w: note %d out of range", ErrSyntax, n)
		}
		return n, nil
	}
	if len(s) < 2 {
		return 0, fmt.Errorf("%w: bad note %q", ErrSyntax, s)
	}
	base, ok := semitones[strings.ToUpper(s[:1])[0]]
	if !ok {
		return 0, fmt.Errorf("%w: bad note %q", ErrSyntax, s)
	}
	rest := s[1:]
	switch rest[0] {
	case '#':
		base++
		rest = rest[1:]
	case 'b':
		base--
		rest = rest[1:]
	}
	octave, err := strconv.Atoi(rest)
	if err != nil {
		return 0, fmt.Errorf("%w: bad octave in %q", ErrSyntax, s)
	}
	n := (octave+1)*12 + base
	if n < 0 || n > 127 {
		return 0, fmt.Errorf("%w: note %q out of range", ErrSyntax, s)
	}
	return n, nil
}
