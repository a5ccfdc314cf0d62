package audio

import (
	"fmt"

	"github.com/jfreymuth/pulse"
)

// PulseSink plays through a PulseAudio (or PipeWire-pulse) server.
type PulseSink struct {
	client  *pulse.Client
	stream  *pulse.PlaybackStream
	source  SampleSource
	started bool
}

func NewPulseSink(sampleRate int, source SampleSource, appName string) (*PulseSink, error) {
	pc, err := pulse.NewClient(pulse.ClientApplicationName(appName))
	if err != nil {
		return nil, fmt.Errorf("pulse.NewClient failed: %w", err)
	}
	s := &PulseSink{client: pc, source: source}
	stream, err := pc.NewPlayback(pulse.Float32Reader(s.generate),
		pulse.PlaybackStereo,
		pulse.PlaybackLatency(0.02),
		pulse.PlaybackSampleRate(sampleRate),
	)
	if err != nil {
		pc.Close()
		return nil, fmt.Errorf("pulse.NewPlayback failed: %w", err)
	}
	s.stream = stream
	return s, nil
}

// generate is called by the pulse client with an interleaved stereo buffer.
func (s *PulseSink) generate(out []float32) (int, error) {
	n := len(out) &^ 1
	s.source.Process(out[:n])
	return n, nil
}

func (s *PulseSink) Play() {
	if !s.started {
		s.stream.Start()
		s.started = true
		return
	}
	s.stream.Resume()
}

func (s *PulseSink) Pause() { s.stream.Pause() }

func (s *PulseSink) Close() error {
	s.stream.Close()
	s.client.Close()
	return nil
}
