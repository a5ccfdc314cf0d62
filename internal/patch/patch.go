// Package patch loads synth settings from JSON files.
package patch

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/Masterminds/semver/v3"

	"github.com/cbegin/polysynth-go/internal/engine"
	"github.com/cbegin/polysynth-go/internal/osc"
)

// FormatVersion is written by Encode.
const FormatVersion = "1.0.0"

// supported is the range of patch format versions Parse accepts.
const supported = ">= 1.0.0, < 2.0.0"

var (
	ErrUnsupportedPatchVersion = errors.New("unsupported patch version")
	ErrUnknownWaveform         = errors.New("unknown waveform")
)

// Envelope holds ADSR times in seconds and a sustain level in [0, 1].
type Envelope struct {
	Attack  *float64 `json:"attack,omitempty"`
	Decay   *float64 `json:"decay,omitempty"`
	Sustain *float64 `json:"sustain,omitempty"`
	Release *float64 `json:"release,omitempty"`
}

// Patch is a partial set of parameters. Nil fields are left unchanged by
// Apply.
type Patch struct {
	Version      string    `json:"version"`
	Name         string    `json:"name,omitempty"`
	WaveType     string    `json:"waveType,omitempty"`
	Tremolo      *bool     `json:"tremolo,omitempty"`
	TremoloRate  *float64  `json:"tremoloRate,omitempty"`
	TremoloDepth *float64  `json:"tremoloDepth,omitempty"`
	GainDB       *float64  `json:"gainDb,omitempty"`
	Envelope     *Envelope `json:"envelope,omitempty"`
}

// ParameterSetter is implemented by the engine and the Synth facade.
type ParameterSetter interface {
	SetParameter(name string, value float64) error
}

func Load(path string) (*Patch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Parse decodes a patch and checks its format version. Unknown fields are
// rejected.
func Parse(data []byte) (*Patch, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var p Patch
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("decode patch: %w", err)
	}
	if err := checkVersion(p.Version); err != nil {
		return nil, err
	}
	if p.WaveType != "" {
		if _, ok := osc.ParseWaveform(p.WaveType); !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownWaveform, p.WaveType)
		}
	}
	return &p, nil
}

func checkVersion(v string) error {
	if v == "" {
		return fmt.Errorf("%w: missing version", ErrUnsupportedPatchVersion)
	}
	sv, err := semver.NewVersion(v)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrUnsupportedPatchVersion, v, err)
	}
	c, err := semver.NewConstraint(supported)
	if err != nil {
		return err
	}
	if !c.Check(sv) {
		return fmt.Errorf("%w: %s not in %s", ErrUnsupportedPatchVersion, sv, supported)
	}
	return nil
}

// Encode writes p as indented JSON, filling in the current format version
// when none is set.
func (p *Patch) Encode() ([]byte, error) {
	out := *p
	if out.Version == "" {
		out.Version = FormatVersion
	}
	return json.MarshalIndent(&out, "", "  ")
}

// Apply sends every set field to s. It stops at the first error.
func (p *Patch) Apply(s ParameterSetter) error {
	type setting struct {
		name  string
		value *float64
	}
	var settings []setting
	if p.WaveType != "" {
		w, ok := osc.ParseWaveform(p.WaveType)
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownWaveform, p.WaveType)
		}
		v := float64(w)
		settings = append(settings, setting{engine.ParamWaveType, &v})
	}
	if p.Tremolo != nil {
		v := 0.0
		if *p.Tremolo {
			v = 1
		}
		settings = append(settings, setting{engine.ParamTremoloEnabled, &v})
	}
	settings = append(settings,
		setting{engine.ParamTremoloRate, p.TremoloRate},
		setting{engine.ParamTremoloDepth, p.TremoloDepth},
		setting{engine.ParamGainDB, p.GainDB},
	)
	if env := p.Envelope; env != nil {
		settings = append(settings,
			setting{engine.ParamAttack, env.Attack},
			setting{engine.ParamDecay, env.Decay},
			setting{engine.ParamSustain, env.Sustain},
			setting{engine.ParamRelease, env.Release},
		)
	}
	for _, st := range settings {
		if st.value == nil {
			continue
		}
		if err := s.SetParameter(st.name, *st.value); err != nil {
			return fmt.Errorf("patch %s: %w", st.name, err)
		}
	}
	return nil
}

// FromSnapshot captures the engine's current settings as a patch.
func FromSnapshot(snap engine.Snapshot) *Patch {
	f := func(v float64) *float64 { return &v }
	tremolo := snap.Tremolo
	return &Patch{
		Version:      FormatVersion,
		WaveType:     snap.Waveform.String(),
		Tremolo:      &tremolo,
		TremoloRate:  f(snap.TremoloRate),
		TremoloDepth: f(snap.TremoloDepth),
		GainDB:       f(snap.GainDB),
		Envelope: &Envelope{
			Attack:  f(snap.Envelope.Attack),
			Decay:   f(snap.Envelope.Decay),
			Sustain: f(snap.Envelope.Sustain),
			Release: f(snap.Envelope.Release),
		},
	}
}
