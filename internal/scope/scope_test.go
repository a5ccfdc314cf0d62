package scope

import (
	"math"
	"math/cmplx"
	"testing"
)

func TestAnalyzerLatest(t *testing.T) {
	a := NewAnalyzer(4)
	a.Tap([]float32{1, 1, 2, 2, 3, 3})
	got := make([]float32, 4)
	a.Latest(got)
	want := []float32{0, 1, 2, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("latest = %v, want %v", got, want)
		}
	}
	a.Tap([]float32{4, 4, 5, 5, 0, 2})
	a.Latest(got)
	want = []float32{3, 4, 5, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("after wrap latest = %v, want %v", got, want)
		}
	}
}

func TestFFTFindsTone(t *testing.T) {
	const n = 64
	x := make([]complex128, n)
	for i := range x {
		x[i] = complex(math.Sin(2*math.Pi*5*float64(i)/n), 0)
	}
	FFT(x)
	peak := 0
	for i := 1; i < n/2; i++ {
		if cmplx.Abs(x[i]) > cmplx.Abs(x[peak]) {
			peak = i
		}
	}
	if peak != 5 {
		t.Fatalf("peak bin = %d, want 5", peak)
	}
	if got := cmplx.Abs(x[5]); math.Abs(got-n/2) > 1e-9 {
		t.Fatalf("|X[5]| = %f, want %d", got, n/2)
	}
}

func TestSpectrumSilenceAndTone(t *testing.T) {
	bands := make([]float64, 16)
	Spectrum(make([]float32, 1024), 48000, 18000, bands)
	for i, b := range bands {
		if b != 0 {
			t.Fatalf("silent band %d = %f", i, b)
		}
	}
	tone := make([]float32, 1024)
	for i := range tone {
		tone[i] = float32(math.Sin(2 * math.Pi * 1000 * float64(i) / 48000))
	}
	Spectrum(tone, 48000, 18000, bands)
	loudest := 0
	for i := range bands {
		if bands[i] > bands[loudest] {
			loudest = i
		}
	}
	if bands[loudest] < 0.5 {
		t.Fatalf("tone too quiet: %v", bands)
	}
}

func TestRisingZero(t *testing.T) {
	if got := RisingZero([]float32{0.5, -0.2, -0.1, 0.3, 0.6}, 5); got != 3 {
		t.Fatalf("got %d", got)
	}
	if got := RisingZero([]float32{1, 1, 1}, 3); got != 0 {
		t.Fatalf("got %d", got)
	}
}
