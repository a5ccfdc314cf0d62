package audio

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/rs/zerolog"
)

type rampSource struct {
	next float32
}

func (r *rampSource) Process(dst []float32) {
	for i := range dst {
		dst[i] = r.next
		r.next += 0.25
	}
}

func TestStreamReaderEncodesFloat32LE(t *testing.T) {
	r := NewStreamReader(&rampSource{}, 2)
	p := make([]byte, 8*3+5) // trailing partial frame is ignored
	n, err := r.Read(p)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if n != 24 {
		t.Fatalf("read %d bytes, want 24", n)
	}
	for i := 0; i < 6; i++ {
		got := math.Float32frombits(binary.LittleEndian.Uint32(p[i*4:]))
		if want := float32(i) * 0.25; got != want {
			t.Fatalf("sample %d = %f, want %f", i, got, want)
		}
	}
}

func TestStreamReaderShortBuffer(t *testing.T) {
	r := NewStreamReader(&rampSource{}, 0)
	n, err := r.Read(make([]byte, 7))
	if n != 0 || err != nil {
		t.Fatalf("short read = %d, %v", n, err)
	}
}

func TestOpenRejectsUnknownBackend(t *testing.T) {
	if _, err := Open("jack", 48000, &rampSource{}, zerolog.Nop()); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}
