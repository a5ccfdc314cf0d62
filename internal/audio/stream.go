package audio

import (
	"encoding/binary"
	"math"
)

// SampleSource fills dst with interleaved stereo float32 frames.
type SampleSource interface {
	Process(dst []float32)
}

// StreamReader adapts a SampleSource to an io.Reader of little-endian
// float32 stereo frames. Read is called from one audio goroutine only.
type StreamReader struct {
	source SampleSource
	buf    []float32
}

func NewStreamReader(source SampleSource, framesHint int) *StreamReader {
	if framesHint <= 0 {
		framesHint = 4096
	}
	return &StreamReader{source: source, buf: make([]float32, framesHint*2)}
}

func (r *StreamReader) Read(p []byte) (int, error) {
	frames := len(p) / 8
	if frames == 0 {
		return 0, nil
	}
	need := frames * 2
	if cap(r.buf) < need {
		r.buf = make([]float32, need)
	}
	r.buf = r.buf[:need]
	r.source.Process(r.buf)
	for i := 0; i < need; i++ {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(r.buf[i]))
	}
	return frames * 8, nil
}

func (r *StreamReader) Close() error { return nil }
