package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/rs/zerolog"
	log "github.com/rs/zerolog/log"

	"github.com/cbegin/polysynth-go"
	"github.com/cbegin/polysynth-go/internal/patch"
	"github.com/cbegin/polysynth-go/internal/scope"
	"github.com/cbegin/polysynth-go/internal/tui"
)

const (
	windowW = 960
	windowH = 600

	scopeSamples = 2048
	specBands    = 96
	firstNote    = 48 // C3
	whiteKeys    = 15 // two octaves and a top C
)

var (
	bgColor     = color.RGBA{28, 30, 38, 255}
	panelColor  = color.RGBA{14, 16, 22, 255}
	buttonColor = color.RGBA{58, 62, 78, 255}
	activeColor = color.RGBA{80, 200, 255, 255}
	waveColor   = color.RGBA{80, 200, 255, 220}
	whiteKey    = color.RGBA{235, 235, 235, 255}
	blackKey    = color.RGBA{20, 20, 20, 255}
	litKey      = color.RGBA{66, 210, 140, 255}
)

// computer keys in the same layout as the terminal keyboard
var pianoKeys = map[ebiten.Key]string{
	ebiten.KeyA: "a", ebiten.KeyW: "w", ebiten.KeyS: "s", ebiten.KeyE: "e",
	ebiten.KeyD: "d", ebiten.KeyF: "f", ebiten.KeyT: "t", ebiten.KeyG: "g",
	ebiten.KeyY: "y", ebiten.KeyH: "h", ebiten.KeyU: "u", ebiten.KeyJ: "j",
	ebiten.KeyK: "k",
}

type pianoKey struct {
	note  int
	rect  image.Rectangle
	black bool
}

type ui struct {
	synth    *polysynth.Synth
	analyzer *scope.Analyzer
	keys     *tui.Keys

	snap     []float32
	bands    []float64
	wavePeak float64

	held      map[ebiten.Key]int
	mouseNote int
	lit       map[int]int

	piano   []pianoKey
	buttons []button
	gain    image.Rectangle
	status  string
}

type button struct {
	rect   image.Rectangle
	label  func() string
	active func() bool
	press  func()
}

func newUI(s *polysynth.Synth, a *scope.Analyzer) *ui {
	u := &ui{
		synth:     s,
		analyzer:  a,
		keys:      tui.NewKeys(),
		snap:      make([]float32, scopeSamples),
		bands:     make([]float64, specBands),
		held:      make(map[ebiten.Key]int),
		lit:       make(map[int]int),
		mouseNote: -1,
		status:    "click the keys or play a-k; z/x octave",
	}
	u.layout()
	return u
}

func (u *ui) layout() {
	top := 330
	keyW := (windowW - 40) / whiteKeys
	white := []int{0, 2, 4, 5, 7, 9, 11}
	for i := 0; i < whiteKeys; i++ {
		note := firstNote + 12*(i/7) + white[i%7]
		x := 20 + i*keyW
		u.piano = append(u.piano, pianoKey{note: note, rect: image.Rect(x, top, x+keyW-2, windowH-20)})
	}
	for i := 0; i < whiteKeys-1; i++ {
		if st := white[i%7]; st == 4 || st == 11 {
			continue
		}
		x := 20 + i*keyW + keyW*2/3
		note := firstNote + 12*(i/7) + white[i%7] + 1
		// black keys first so they win hit tests
		u.piano = append([]pianoKey{{note: note, black: true, rect: image.Rect(x, top, x+keyW*2/3, top+150)}}, u.piano...)
	}

	x := 20
	for w := polysynth.Sine; w <= polysynth.Triangle; w++ {
		w := w
		u.buttons = append(u.buttons, button{
			rect:   image.Rect(x, 270, x+90, 300),
			label:  w.String,
			active: func() bool { return u.synth.Parameters().Waveform == w },
			press:  func() { u.set(polysynth.ParamWaveType, float64(w)) },
		})
		x += 100
	}
	u.buttons = append(u.buttons, button{
		rect:   image.Rect(x, 270, x+110, 300),
		label:  func() string { return "tremolo" },
		active: func() bool { return u.synth.Parameters().Tremolo },
		press: func() {
			v := 1.0
			if u.synth.Parameters().Tremolo {
				v = 0
			}
			u.set(polysynth.ParamTremoloEnabled, v)
		},
	})
	x += 130
	u.gain = image.Rect(x, 275, windowW-20, 295)
}

func (u *ui) set(name string, v float64) {
	if err := u.synth.SetParameter(name, v); err != nil {
		u.status = err.Error()
	}
}

func (u *ui) noteOn(n int) {
	if u.synth.NoteOn(tui.Channel, n, u.keys.Velocity) {
		u.lit[n]++
	}
}

func (u *ui) noteOff(n int) {
	u.synth.NoteOff(tui.Channel, n, 0)
	if u.lit[n] > 0 {
		u.lit[n]--
	}
}

func (u *ui) Update() error {
	for k, name := range pianoKeys {
		if inpututil.IsKeyJustPressed(k) {
			if n, ok := u.keys.Note(name); ok {
				u.held[k] = n
				u.noteOn(n)
			}
		}
		if inpututil.IsKeyJustReleased(k) {
			if n, ok := u.held[k]; ok {
				delete(u.held, k)
				u.noteOff(n)
			}
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyZ) {
		u.status = u.keys.Press(u.synth, "z").Status
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyX) {
		u.status = u.keys.Press(u.synth, "x").Status
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		u.status = u.keys.Press(u.synth, " ").Status
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		u.synth.AllNotesOff(tui.Channel)
		return ebiten.Termination
	}

	mx, my := ebiten.CursorPosition()
	pt := image.Pt(mx, my)
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		for _, b := range u.buttons {
			if pt.In(b.rect) {
				b.press()
			}
		}
		for _, k := range u.piano {
			if pt.In(k.rect) {
				u.mouseNote = k.note
				u.noteOn(k.note)
				break
			}
		}
	}
	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) && pt.In(u.gain) {
		frac := float64(mx-u.gain.Min.X) / float64(u.gain.Dx())
		u.set(polysynth.ParamGainDB, -60+frac*66)
	}
	if inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft) && u.mouseNote >= 0 {
		u.noteOff(u.mouseNote)
		u.mouseNote = -1
	}
	return nil
}

func (u *ui) Draw(screen *ebiten.Image) {
	screen.Fill(bgColor)
	u.analyzer.Latest(u.snap)

	wave := image.Rect(20, 20, windowW/2-10, 250)
	specRect := image.Rect(windowW/2+10, 20, windowW-20, 250)
	fillRect(screen, wave, panelColor)
	fillRect(screen, specRect, panelColor)
	u.drawWave(screen, wave)
	u.drawSpectrum(screen, specRect)

	for _, b := range u.buttons {
		c := buttonColor
		if b.active() {
			c = activeColor
		}
		fillRect(screen, b.rect, c)
		ebitenutil.DebugPrintAt(screen, b.label(), b.rect.Min.X+8, b.rect.Min.Y+8)
	}
	p := u.synth.Parameters()
	fillRect(screen, u.gain, buttonColor)
	frac := (p.GainDB + 60) / 66
	fill := u.gain
	fill.Max.X = fill.Min.X + int(float64(u.gain.Dx())*max(0, min(1, frac)))
	fillRect(screen, fill, activeColor)
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("gain %.1f dB", p.GainDB), u.gain.Min.X, u.gain.Min.Y-16)

	for i := len(u.piano) - 1; i >= 0; i-- {
		k := u.piano[i]
		c := whiteKey
		if k.black {
			c = blackKey
		}
		if u.lit[k.note] > 0 {
			c = litKey
		}
		fillRect(screen, k.rect, c)
	}

	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%s   voices %d   octave %+d", u.status, u.synth.ActiveVoices(), u.keys.Octave), 20, 306)
}

func (u *ui) drawWave(dst *ebiten.Image, r image.Rectangle) {
	mid := float64(r.Min.Y + r.Dy()/2)
	peak := 0.0
	for _, s := range u.snap {
		peak = max(peak, float64(max(s, -s)))
	}
	// fast attack, slow release
	if peak > u.wavePeak {
		u.wavePeak = u.wavePeak*0.3 + peak*0.7
	} else {
		u.wavePeak = u.wavePeak*0.995 + peak*0.005
	}
	scale := float64(r.Dy()/2-4) / max(u.wavePeak, 0.01)

	start := scope.RisingZero(u.snap, len(u.snap)/4)
	visible := len(u.snap) - start
	w := r.Dx()
	prevY := mid - float64(u.snap[start])*scale
	for px := 1; px < w; px++ {
		i := min(start+px*visible/w, len(u.snap)-1)
		y := mid - float64(u.snap[i])*scale
		ebitenutil.DrawLine(dst, float64(r.Min.X+px-1), prevY, float64(r.Min.X+px), y, waveColor)
		prevY = y
	}
}

func (u *ui) drawSpectrum(dst *ebiten.Image, r image.Rectangle) {
	scope.Spectrum(u.snap, float64(u.synth.SampleRate()), 18000, u.bands)
	barW := float64(r.Dx()) / float64(len(u.bands))
	for i, v := range u.bands {
		h := max(1, v*float64(r.Dy()-4))
		x := float64(r.Min.X) + float64(i)*barW
		ebitenutil.DrawRect(dst, x+1, float64(r.Max.Y-2)-h, barW-1, h, color.RGBA{uint8(40 + 200*v), uint8(200 - 80*v), 255 - uint8(150*v), 220})
	}
}

func (u *ui) Layout(int, int) (int, int) { return windowW, windowH }

func fillRect(dst *ebiten.Image, r image.Rectangle, c color.Color) {
	ebitenutil.DrawRect(dst, float64(r.Min.X), float64(r.Min.Y), float64(r.Dx()), float64(r.Dy()), c)
}

func main() {
	var (
		sampleRate = flag.Int("sample-rate", 48000, "output sample rate")
		voices     = flag.Int("voices", 6, "number of voices")
		patchPath  = flag.String("patch", "", "JSON patch to load")
		logLevel   = flag.String("log-level", "info", "minimum level of messages to log to console")
	)
	flag.Parse()

	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		log.Fatal().Str("level", *logLevel).Msg("Unknown log level")
	}
	zerolog.SetGlobalLevel(level)

	a := scope.NewAnalyzer(scopeSamples * 4)
	synth, err := polysynth.NewSynth(*sampleRate,
		polysynth.WithVoices(*voices),
		polysynth.WithSampleTap(a.Tap),
		polysynth.WithLogger(log.Logger),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("NewSynth failed")
	}
	if *patchPath != "" {
		p, err := patch.Load(*patchPath)
		if err != nil {
			log.Fatal().Err(err).Msg("patch load failed")
		}
		if err := p.Apply(synth); err != nil {
			log.Fatal().Err(err).Msg("patch apply failed")
		}
	}
	if err := synth.Start(); err != nil {
		log.Fatal().Err(err).Msg("audio start failed")
	}
	defer synth.Stop()

	ebiten.SetWindowSize(windowW, windowH)
	ebiten.SetWindowTitle("polysynth")
	if err := ebiten.RunGame(newUI(synth, a)); err != nil {
		log.Error().Err(err).Send()
	}
}
