package audio

import (
	"sync"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

var (
	audioContextOnce sync.Once
	audioContext     *ebitaudio.Context
	audioSampleRate  int
)

// ebiten allows a single audio context per process.
func sharedAudioContext(sampleRate int) (*ebitaudio.Context, error) {
	audioContextOnce.Do(func() {
		audioSampleRate = sampleRate
		audioContext = ebitaudio.NewContext(sampleRate)
	})
	if audioSampleRate != sampleRate {
		return nil, errContextRate(audioSampleRate, sampleRate)
	}
	return audioContext, nil
}

type EbitenSink struct {
	player *ebitaudio.Player
	reader *StreamReader
}

func NewEbitenSink(sampleRate int, source SampleSource) (*EbitenSink, error) {
	ctx, err := sharedAudioContext(sampleRate)
	if err != nil {
		return nil, err
	}
	reader := NewStreamReader(source, 0)
	pl, err := ctx.NewPlayerF32(reader)
	if err != nil {
		return nil, err
	}
	return &EbitenSink{player: pl, reader: reader}, nil
}

func (s *EbitenSink) Play()  { s.player.Play() }
func (s *EbitenSink) Pause() { s.player.Pause() }

func (s *EbitenSink) Close() error {
	s.player.Pause()
	if err := s.player.Close(); err != nil {
		return err
	}
	return s.reader.Close()
}
