package audio

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Sink plays a SampleSource on an audio device.
type Sink interface {
	Play()
	Pause()
	Close() error
}

// Backend names accepted by Open.
const (
	BackendEbiten = "ebiten"
	BackendOto    = "oto"
	BackendPulse  = "pulse"
)

// Backends lists the supported backend names.
func Backends() []string {
	return []string{BackendEbiten, BackendOto, BackendPulse}
}

// Open creates a sink for the named backend. The sink starts paused.
func Open(backend string, sampleRate int, source SampleSource, log zerolog.Logger) (Sink, error) {
	var (
		sink Sink
		err  error
	)
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case BackendEbiten, "":
		sink, err = NewEbitenSink(sampleRate, source)
	case BackendOto:
		sink, err = NewOtoSink(sampleRate, source)
	case BackendPulse:
		sink, err = NewPulseSink(sampleRate, source, "polysynth")
	default:
		return nil, fmt.Errorf("unknown audio backend %q (expected %s)", backend, strings.Join(Backends(), "|"))
	}
	if err != nil {
		return nil, fmt.Errorf("open %s backend: %w", backend, err)
	}
	log.Info().Str("backend", backend).Int("sample_rate", sampleRate).Msg("audio sink opened")
	return sink, nil
}

func errContextRate(have, want int) error {
	return fmt.Errorf("audio context already initialized at %d Hz (requested %d Hz)", have, want)
}
