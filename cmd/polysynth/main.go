package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/rs/zerolog"
	log "github.com/rs/zerolog/log"
	"gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
	"golang.org/x/term"

	"github.com/cbegin/polysynth-go"
	"github.com/cbegin/polysynth-go/internal/midiin"
	"github.com/cbegin/polysynth-go/internal/patch"
	"github.com/cbegin/polysynth-go/internal/tui"
)

var cfg struct {
	Backend    string
	SampleRate int
	Block      int
	Voices     int
	Steal      string
	Patch      string
	MIDIPort   string
	ListMIDI   bool
	UI         string
	Hold       time.Duration
	LogLevel   string
}

func init() {
	flag.StringVar(&cfg.Backend, "backend", "ebiten", "audio backend: ebiten|oto|pulse")
	flag.IntVar(&cfg.SampleRate, "sample-rate", 48000, "output sample rate")
	flag.IntVar(&cfg.Block, "block", 512, "maximum frames rendered per block")
	flag.IntVar(&cfg.Voices, "voices", 6, "number of voices")
	flag.StringVar(&cfg.Steal, "steal", "pool-order", "voice stealing: pool-order|oldest")
	flag.StringVar(&cfg.Patch, "patch", "", "JSON patch to load and watch for changes")
	flag.StringVar(&cfg.MIDIPort, "midi", "", "MIDI input port to play from")
	flag.BoolVar(&cfg.ListMIDI, "list-midi", false, "list MIDI input ports and exit")
	flag.StringVar(&cfg.UI, "tui", "auto", "keyboard interface: auto|bubble|raw|none")
	flag.DurationVar(&cfg.Hold, "hold", tui.DefaultHold, "how long a key press sounds")
	flag.StringVar(&cfg.LogLevel, "log-level", "info", "minimum level of messages to log to console")
}

func main() {
	log.Logger = zerolog.New(
		zerolog.ConsoleWriter{
			Out: os.Stderr,
		},
	).With().Timestamp().Logger()

	flag.Parse()

	logLevel, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatal().Str("level", cfg.LogLevel).Msg("Unknown log level")
	}
	zerolog.SetGlobalLevel(logLevel)

	if cfg.ListMIDI {
		defer midi.CloseDriver()
		for _, name := range midiin.Ports() {
			fmt.Println(name)
		}
		return
	}

	policy, err := parseStealPolicy(cfg.Steal)
	if err != nil {
		log.Fatal().Err(err).Send()
	}
	ui, err := resolveUI(cfg.UI)
	if err != nil {
		log.Fatal().Err(err).Send()
	}
	if ui == "bubble" && logLevel < zerolog.ErrorLevel {
		// The alternate screen owns the terminal.
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	}

	synth, err := polysynth.NewSynth(cfg.SampleRate,
		polysynth.WithBackend(cfg.Backend),
		polysynth.WithVoices(cfg.Voices),
		polysynth.WithStealPolicy(policy),
		polysynth.WithMaxBlockSize(cfg.Block),
		polysynth.WithLogger(log.Logger),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("NewSynth failed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt)
		<-c
		log.Info().Msg("Exit on SIGINT")
		cancel()
	}()

	if cfg.Patch != "" {
		p, err := patch.Load(cfg.Patch)
		if err != nil {
			log.Fatal().Err(err).Msg("patch load failed")
		}
		if err := p.Apply(synth); err != nil {
			log.Fatal().Err(err).Msg("patch apply failed")
		}
		go func() {
			apply := func(p *patch.Patch) error { return p.Apply(synth) }
			if err := patch.Watch(ctx, cfg.Patch, apply, log.Logger); err != nil {
				log.Warn().Err(err).Msg("patch watch stopped")
			}
		}()
	}

	if err := synth.Start(); err != nil {
		log.Fatal().Err(err).Msg("audio start failed")
	}
	defer synth.Stop()

	if cfg.MIDIPort != "" {
		defer midi.CloseDriver()
		stop, err := midiin.Listen(cfg.MIDIPort, synth.Submit, log.Logger)
		if err != nil {
			log.Fatal().Err(err).Msg("MIDI input failed")
		}
		defer stop()
	}

	switch ui {
	case "bubble":
		err = tui.Run(synth, synth.Watch(), cfg.Hold)
	case "raw":
		err = tui.RunRaw(ctx, synth, cfg.Hold, log.Logger)
	default:
		log.Info().Msg("no keyboard interface; press Ctrl-C to quit")
		<-ctx.Done()
	}
	if err != nil {
		log.Error().Err(err).Msg("keyboard interface failed")
	}
	synth.AllNotesOff(tui.Channel)
	log.Info().Uint64("dropped_events", synth.DroppedEvents()).Msg("stopped")
}

func parseStealPolicy(name string) (polysynth.StealPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "pool-order", "pool":
		return polysynth.StealPoolOrder, nil
	case "oldest":
		return polysynth.StealOldest, nil
	default:
		return 0, fmt.Errorf("invalid -steal %q (expected pool-order|oldest)", name)
	}
}

func resolveUI(name string) (string, error) {
	switch mode := strings.ToLower(strings.TrimSpace(name)); mode {
	case "auto":
		if term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd())) {
			return "bubble", nil
		}
		return "none", nil
	case "bubble", "raw", "none":
		return mode, nil
	default:
		return "", fmt.Errorf("invalid -tui %q (expected auto|bubble|raw|none)", name)
	}
}
