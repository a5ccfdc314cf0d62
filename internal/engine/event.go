package engine

import "fmt"

// EventKind identifies a decoded note event.
type EventKind int

const (
	EventNoteOn EventKind = iota
	EventNoteOff
	EventAllNotesOff
	EventAllSoundOff
)

func (k EventKind) String() string {
	switch k {
	case EventNoteOn:
		return "on"
	case EventNoteOff:
		return "off"
	case EventAllNotesOff:
		return "alloff"
	case EventAllSoundOff:
		return "allsoundoff"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// ParseEventKind is the inverse of EventKind.String.
func ParseEventKind(s string) (EventKind, bool) {
	for k := EventNoteOn; k <= EventAllSoundOff; k++ {
		if k.String() == s {
			return k, true
		}
	}
	return 0, false
}

// Event is a note event already decoded from MIDI or a keyboard.
// Velocity is normalized to [0, 1].
type Event struct {
	Kind     EventKind
	Channel  int
	Note     int
	Velocity float64
}

func NoteOn(channel, note int, velocity float64) Event {
	return Event{Kind: EventNoteOn, Channel: channel, Note: note, Velocity: velocity}
}

func NoteOff(channel, note int, velocity float64) Event {
	return Event{Kind: EventNoteOff, Channel: channel, Note: note, Velocity: velocity}
}

func AllNotesOff(channel int) Event {
	return Event{Kind: EventAllNotesOff, Channel: channel}
}

func AllSoundOff(channel int) Event {
	return Event{Kind: EventAllSoundOff, Channel: channel}
}
