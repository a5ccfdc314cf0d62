package tui

import (
	"context"
	"time"

	"github.com/eiannone/keyboard"
	"github.com/rs/zerolog"
)

// RunRaw reads single key presses straight from the terminal and logs
// status changes instead of drawing a screen. It returns when ctx is done
// or a quit key is pressed.
func RunRaw(ctx context.Context, ctl Controller, hold time.Duration, log zerolog.Logger) error {
	if hold <= 0 {
		hold = DefaultHold
	}
	presses, err := keyboard.GetKeys(16)
	if err != nil {
		return err
	}
	defer keyboard.Close()

	keys := NewKeys()
	var g gate
	for {
		select {
		case <-ctx.Done():
			ctl.AllNotesOff(Channel)
			return nil
		case ev := <-presses:
			if ev.Err != nil {
				return ev.Err
			}
			res := keys.Press(ctl, keyName(ev))
			if res.Quit {
				return nil
			}
			if res.Status != "" {
				log.Info().Msg(res.Status)
			}
			if res.Note >= 0 {
				note := res.Note
				g.press(note)
				log.Debug().Str("note", noteName(note)).Msg("note on")
				time.AfterFunc(hold, func() {
					if g.release(note) {
						ctl.NoteOff(Channel, note, 0)
					}
				})
			}
		}
	}
}

func keyName(ev keyboard.KeyEvent) string {
	if ev.Rune != 0 {
		return string(ev.Rune)
	}
	switch ev.Key {
	case keyboard.KeyEsc:
		return "esc"
	case keyboard.KeyCtrlC:
		return "ctrl+c"
	case keyboard.KeySpace:
		return " "
	}
	return ""
}
