// Package midiin turns MIDI input into engine events.
package midiin

import (
	"fmt"

	"github.com/rs/zerolog"
	"gitlab.com/gomidi/midi/v2"

	"github.com/cbegin/polysynth-go/internal/engine"
)

// Channel mode controllers handled by Decode.
const (
	ccAllSoundOff = 120
	ccAllNotesOff = 123
)

// Decode maps one MIDI message to an event. Channels are 1-based and
// velocities are scaled to [0, 1]. A note-on with velocity zero is a
// note-off. Messages the synth does not use return false.
func Decode(msg midi.Message) (engine.Event, bool) {
	var ch, key, vel uint8
	switch {
	case msg.GetNoteStart(&ch, &key, &vel):
		return engine.NoteOn(int(ch)+1, int(key), float64(vel)/127), true
	case msg.GetNoteOff(&ch, &key, &vel):
		return engine.NoteOff(int(ch)+1, int(key), float64(vel)/127), true
	case msg.GetNoteEnd(&ch, &key):
		return engine.NoteOff(int(ch)+1, int(key), 0), true
	}
	var cc, val uint8
	if msg.GetControlChange(&ch, &cc, &val) {
		switch cc {
		case ccAllNotesOff:
			return engine.AllNotesOff(int(ch) + 1), true
		case ccAllSoundOff:
			return engine.AllSoundOff(int(ch) + 1), true
		}
	}
	return engine.Event{}, false
}

// Ports lists the names of the available MIDI inputs.
func Ports() []string {
	var names []string
	for _, in := range midi.GetInPorts() {
		names = append(names, in.String())
	}
	return names
}

// Listen opens the named input and passes every decoded event to submit.
// submit runs on the driver's goroutine. The returned func stops listening.
func Listen(portName string, submit func(engine.Event) bool, log zerolog.Logger) (func(), error) {
	in, err := midi.FindInPort(portName)
	if err != nil {
		return nil, fmt.Errorf("midi input %q: %w", portName, err)
	}
	stop, err := midi.ListenTo(in, func(msg midi.Message, _ int32) {
		ev, ok := Decode(msg)
		if !ok {
			log.Trace().Str("msg", msg.String()).Msg("midi ignored")
			return
		}
		if !submit(ev) {
			log.Warn().Stringer("kind", ev.Kind).Int("note", ev.Note).Msg("midi event dropped")
		}
	}, midi.HandleError(func(err error) {
		log.Warn().Err(err).Str("port", portName).Msg("midi input")
	}))
	if err != nil {
		return nil, fmt.Errorf("listen %q: %w", portName, err)
	}
	log.Info().Str("port", in.String()).Msg("midi input connected")
	return stop, nil
}
