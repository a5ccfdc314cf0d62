// Package scope keeps a short history of rendered audio for display and
// computes a log-frequency spectrum from it.
package scope

import (
	"math"
	"math/cmplx"
	"sync"
)

// Analyzer folds stereo blocks to mono and keeps the most recent samples.
type Analyzer struct {
	mu     sync.Mutex
	ring   []float32
	pos    int
	filled int
}

func NewAnalyzer(size int) *Analyzer {
	if size < 2 {
		size = 2
	}
	return &Analyzer{ring: make([]float32, size)}
}

// Tap is installed as the synth's sample tap and runs on the audio thread.
func (a *Analyzer) Tap(samples []float32) {
	a.mu.Lock()
	for i := 0; i+1 < len(samples); i += 2 {
		a.ring[a.pos] = (samples[i] + samples[i+1]) * 0.5
		a.pos++
		if a.pos == len(a.ring) {
			a.pos = 0
		}
	}
	a.filled = min(len(a.ring), a.filled+len(samples)/2)
	a.mu.Unlock()
}

// Latest fills dst with the newest samples, oldest first. Slots older than
// anything tapped are zero.
func (a *Analyzer) Latest(dst []float32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := min(len(dst), len(a.ring))
	clear(dst)
	have := min(n, a.filled)
	start := a.pos - have
	if start < 0 {
		start += len(a.ring)
	}
	off := len(dst) - have
	for i := 0; i < have; i++ {
		dst[off+i] = a.ring[(start+i)%len(a.ring)]
	}
}

// RisingZero returns the first index within search where samples cross
// zero upward, or 0. It keeps a periodic waveform still between frames.
func RisingZero(samples []float32, search int) int {
	search = min(search, len(samples)-1)
	for i := 1; i < search; i++ {
		if samples[i-1] <= 0 && samples[i] > 0 {
			return i
		}
	}
	return 0
}

// Spectrum windows samples (length a power of two), transforms them and
// averages the magnitudes into len(bands) log-spaced bands up to maxHz.
// Each band is in [0, 1], mapping -80 dB..0 dB.
func Spectrum(samples []float32, sampleRate, maxHz float64, bands []float64) {
	n := len(samples)
	if n < 4 || n&(n-1) != 0 || len(bands) == 0 {
		return
	}
	buf := make([]complex128, n)
	for i, s := range samples {
		w := 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
		buf[i] = complex(float64(s)*w, 0)
	}
	FFT(buf)

	half := n / 2
	top := min(half, int(maxHz/(sampleRate/2)*float64(half)))
	if top < 2 {
		top = 2
	}
	logLo, logHi := 0.0, math.Log(float64(top))
	for i := range bands {
		lo := int(math.Exp(logLo + float64(i)/float64(len(bands))*(logHi-logLo)))
		hi := int(math.Exp(logLo + float64(i+1)/float64(len(bands))*(logHi-logLo)))
		lo = max(lo, 1)
		hi = min(max(hi, lo+1), half)
		sum := 0.0
		for b := lo; b < hi; b++ {
			sum += cmplx.Abs(buf[b])
		}
		avg := sum / float64(max(1, hi-lo))
		db := 20 * math.Log10(avg/float64(n)+1e-10)
		bands[i] = math.Max(0, math.Min(1, (db+80)/80))
	}
}

// FFT is an in-place iterative radix-2 transform. len(x) must be a power
// of two.
func FFT(x []complex128) {
	n := len(x)
	if n <= 1 {
		return
	}
	for i, j := 1, 0; i < n; i++ {
		bit := n >> 1
		for ; j&bit != 0; bit >>= 1 {
			j ^= bit
		}
		j ^= bit
		if i < j {
			x[i], x[j] = x[j], x[i]
		}
	}
	for size := 2; size <= n; size <<= 1 {
		half := size / 2
		step := -2 * math.Pi / float64(size)
		for start := 0; start < n; start += size {
			for k := 0; k < half; k++ {
				t := cmplx.Rect(1, step*float64(k)) * x[start+k+half]
				x[start+k+half] = x[start+k] - t
				x[start+k] += t
			}
		}
	}
}
