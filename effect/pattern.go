// Package effect holds the brightness patterns the engine plays on each channel.
//
// A pattern maps the time elapsed in the current engine cycle to a brightness
// between 0 and 255. The engine asks for a value every tick.
package effect

import (
	"fmt"
	"sort"
	"time"
)

const (
	NameOff    = "off"
	NameSolid  = "solid"
	NameStrobe = "strobe"
	NamePulse  = "pulse"
	NameRamp   = "ramp"
	NameFade   = "fade"
	NameBeat   = "beat"
)

// Pattern interface defines the methods that should be implemented by a pattern.
type Pattern interface {
	Name() string
	Brightness(elapsed time.Duration) uint8
}

// Params tune a pattern. Zero values select the pattern's defaults.
type Params struct {
	// Level is the peak brightness
	Level uint8
	// Period is the length of one repetition
	Period time.Duration
	// Tempo is the beat pattern's bpm
	Tempo float64
}

var constructors = map[string]func(Params) (Pattern, error){
	NameOff:    func(Params) (Pattern, error) { return Off{}, nil },
	NameSolid:  func(p Params) (Pattern, error) { return NewSolid(p), nil },
	NameStrobe: func(p Params) (Pattern, error) { return NewStrobe(p) },
	NamePulse:  func(p Params) (Pattern, error) { return NewPulse(p), nil },
	NameRamp:   func(p Params) (Pattern, error) { return NewRamp(p), nil },
	NameFade:   func(p Params) (Pattern, error) { return NewFade(p), nil },
	NameBeat:   func(p Params) (Pattern, error) { return NewBeat(p), nil },
}

// New creates the pattern registered under name.
func New(name string, params Params) (Pattern, error) {
	ctor, found := constructors[name]
	if !found {
		return nil, fmt.Errorf("unknown pattern %q", name)
	}
	return ctor(params)
}

// Names returns the sorted names of all known patterns.
func Names() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func levelOr(level, def uint8) uint8 {
	if level == 0 {
		return def
	}
	return level
}

func periodOr(period, def time.Duration) time.Duration {
	if period <= 0 {
		return def
	}
	return period
}

// Off keeps the channel dark.
type Off struct{}

func (Off) Name() string                    { return NameOff }
func (Off) Brightness(time.Duration) uint8 { return 0 }

// Solid holds a constant level.
type Solid struct {
	Level uint8
}

func NewSolid(p Params) Solid {
	return Solid{Level: levelOr(p.Level, 255)}
}

func (s Solid) Name() string                    { return NameSolid }
func (s Solid) Brightness(time.Duration) uint8 { return s.Level }
