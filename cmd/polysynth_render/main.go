package main

import (
	"flag"
	"os"
	"strings"

	"github.com/rs/zerolog"
	log "github.com/rs/zerolog/log"

	"github.com/cbegin/polysynth-go"
	"github.com/cbegin/polysynth-go/internal/patch"
)

const defaultScore = `
0.0 on 1 C4 0.8
0.0 on 1 E4 0.8
0.0 on 1 G4 0.8
1.0 alloff 1
1.2 on 1 A4 1
1.8 off 1 A4
`

func main() {
	var (
		scorePath  = flag.String("score", "", "path to a score file (default: a short chord)")
		outPath    = flag.String("out", "out.wav", "output WAV file")
		seconds    = flag.Float64("seconds", 0, "length to render; 0 renders one second past the last event")
		sampleRate = flag.Int("sample-rate", 48000, "output sample rate")
		patchPath  = flag.String("patch", "", "JSON patch to apply before rendering")
		voices     = flag.Int("voices", 6, "number of voices")
		logLevel   = flag.String("log-level", "info", "minimum level of messages to log to console")
	)
	flag.Parse()

	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		log.Fatal().Str("level", *logLevel).Msg("Unknown log level")
	}
	zerolog.SetGlobalLevel(level)

	var score *polysynth.Score
	if strings.TrimSpace(*scorePath) != "" {
		score, err = polysynth.LoadScore(*scorePath)
	} else {
		score, err = polysynth.ParseScore(defaultScore)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("score")
	}

	synth, err := polysynth.NewSynth(*sampleRate, polysynth.WithVoices(*voices), polysynth.WithLogger(log.Logger))
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

	samples, err := synth.Render(score, *seconds)
	if err != nil {
		log.Fatal().Err(err).Msg("render failed")
	}
	f, err := os.Create(*outPath)
	if err != nil {
		log.Fatal().Err(err).Send()
	}
	if err := polysynth.WriteWAV(f, samples, *sampleRate); err != nil {
		f.Close()
		log.Fatal().Err(err).Msg("write failed")
	}
	if err := f.Close(); err != nil {
		log.Fatal().Err(err).Send()
	}
	log.Info().Str("out", *outPath).Int("frames", len(samples)/2).Msg("rendered")
}
