package audio

import (
	"sync"

	"github.com/ebitengine/oto/v3"
)

var (
	otoOnce sync.Once
	otoCtx  *oto.Context
	otoErr  error
	otoRate int
)

func sharedOtoContext(sampleRate int) (*oto.Context, error) {
	otoOnce.Do(func() {
		otoRate = sampleRate
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: 2,
			Format:       oto.FormatFloat32LE,
		})
		if err != nil {
			otoErr = err
			return
		}
		<-ready
		otoCtx = ctx
	})
	if otoErr != nil {
		return nil, otoErr
	}
	if otoRate != sampleRate {
		return nil, errContextRate(otoRate, sampleRate)
	}
	return otoCtx, nil
}

// OtoSink plays through oto directly, without the ebiten audio layer.
type OtoSink struct {
	player *oto.Player
	reader *StreamReader
}

func NewOtoSink(sampleRate int, source SampleSource) (*OtoSink, error) {
	ctx, err := sharedOtoContext(sampleRate)
	if err != nil {
		return nil, err
	}
	reader := NewStreamReader(source, 0)
	return &OtoSink{player: ctx.NewPlayer(reader), reader: reader}, nil
}

func (s *OtoSink) Play()  { s.player.Play() }
func (s *OtoSink) Pause() { s.player.Pause() }

func (s *OtoSink) Close() error {
	s.player.Pause()
	if err := s.player.Close(); err != nil {
		return err
	}
	return s.reader.Close()
}
