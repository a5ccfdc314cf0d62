package polysynth

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	intscore "github.com/cbegin/polysynth-go/internal/score"
)

type Score = intscore.Score

// ErrTooManyEvents is returned by RenderScore when more events fall into a
// single block than the event queue holds.
var ErrTooManyEvents = errors.New("too many events in one block")

var ErrNilScore = errors.New("nil score")

// releaseTail is rendered after the last event when RenderScore is given
// no explicit length.
const releaseTail = 1.0

// ParseScore reads the text score format used by RenderScore.
func ParseScore(text string) (*Score, error) {
	return intscore.ParseString(text)
}

func LoadScore(path string) (*Score, error) {
	return intscore.Load(path)
}

// RenderScore plays score through a fresh synth and returns interleaved
// stereo samples. Each event takes effect at the start of the block that
// contains its time. With seconds <= 0 the render runs one second past the
// last event. To render with non-default parameters, build a Synth, set
// them and call its Render method.
func RenderScore(score *Score, sampleRate int, seconds float64, opts ...Option) ([]float32, error) {
	s, err := NewSynth(sampleRate, opts...)
	if err != nil {
		return nil, err
	}
	return s.Render(score, seconds)
}

// Render drives s offline through score. It fails with ErrPlaying while an
// audio device is open.
func (s *Synth) Render(score *Score, seconds float64) ([]float32, error) {
	if score == nil {
		return nil, ErrNilScore
	}
	s.mu.Lock()
	open := s.sink != nil
	sr := s.sampleRate
	s.mu.Unlock()
	if open {
		return nil, ErrPlaying
	}
	if seconds <= 0 {
		seconds = score.Duration() + releaseTail
	}
	frames := int(float64(sr) * seconds)
	out := make([]float32, frames*2)
	block := s.engine.MaxBlockSize()
	next := 0
	for off := 0; off < frames; off += block {
		n := min(block, frames-off)
		end := off + n
		for next < len(score.Events) {
			te := score.Events[next]
			if int(te.Time*float64(sr)) >= end {
				break
			}
			if !s.Submit(te.Event) {
				return nil, fmt.Errorf("%w at %.3fs (%d dropped)", ErrTooManyEvents, te.Time, s.DroppedEvents())
			}
			next++
		}
		s.Process(out[off*2 : end*2])
	}
	s.log.Debug().Int("frames", frames).Int("events", next).Msg("score rendered")
	return out, nil
}

// WriteWAV encodes interleaved stereo samples as 16-bit PCM. Samples are
// clipped to [-1, 1].
func WriteWAV(w io.WriteSeeker, samples []float32, sampleRate int) error {
	enc := wav.NewEncoder(w, sampleRate, 16, 2, 1)
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: 2,
			SampleRate:  sampleRate,
		},
		Data:           make([]int, len(samples)),
		SourceBitDepth: 16,
	}
	for i, v := range samples {
		buf.Data[i] = int(math.Round(float64(clip(v)) * math.MaxInt16))
	}
	if err := enc.Write(buf); err != nil {
		return err
	}
	return enc.Close()
}

func clip(v float32) float32 {
	switch {
	case v > 1:
		return 1
	case v < -1:
		return -1
	}
	return v
}
