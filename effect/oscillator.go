package effect

import (
	"math"
	"time"

	"github.com/fogleman/ease"

	"github.com/robmorgan/legopi/rhythm"
	"github.com/robmorgan/legopi/utils"
)

const TWO_PI = (2 * math.Pi)

const (
	DefaultPulsePeriod = 3000 * time.Millisecond
	DefaultPulseLevel  = 250
	DefaultRampPeriod  = 1000 * time.Millisecond
	DefaultFadePeriod  = 2000 * time.Millisecond
)

// ShapeFn maps a phase in [0, 1) to an amplitude in [-1, 1].
type ShapeFn func(phase float64) float64

func sineWaveFunc(phase float64) float64 {
	return math.Sin(TWO_PI * phase)
}

func sawtoothFunc(phase float64) float64 {
	return 2*phase - 1
}

func phaseOf(elapsed, period time.Duration) float64 {
	return float64(elapsed%period) / float64(period)
}

// Pulse follows a sine wave between 0 and Level.
type Pulse struct {
	Level  uint8
	Period time.Duration
	shape  ShapeFn
}

func NewPulse(p Params) Pulse {
	return Pulse{
		Level:  levelOr(p.Level, DefaultPulseLevel),
		Period: periodOr(p.Period, DefaultPulsePeriod),
		shape:  sineWaveFunc,
	}
}

func (p Pulse) Name() string { return NamePulse }

func (p Pulse) Brightness(elapsed time.Duration) uint8 {
	amplitude := float64(p.Level) / 2
	return utils.ToByte(amplitude + amplitude*p.shape(phaseOf(elapsed, p.Period)))
}

// Ramp rises linearly from 0 to Level every period.
type Ramp struct {
	Level  uint8
	Period time.Duration
	shape  ShapeFn
}

func NewRamp(p Params) Ramp {
	return Ramp{
		Level:  levelOr(p.Level, 255),
		Period: periodOr(p.Period, DefaultRampPeriod),
		shape:  sawtoothFunc,
	}
}

func (r Ramp) Name() string { return NameRamp }

func (r Ramp) Brightness(elapsed time.Duration) uint8 {
	amplitude := float64(r.Level) / 2
	return utils.ToByte(amplitude + amplitude*r.shape(phaseOf(elapsed, r.Period)))
}

// Fade eases from 0 up to Level over Period and then holds until the cycle wraps.
type Fade struct {
	Level      uint8
	Period     time.Duration
	EasingFunc ease.Function
}

func NewFade(p Params) Fade {
	return Fade{
		Level:      levelOr(p.Level, 255),
		Period:     periodOr(p.Period, DefaultFadePeriod),
		EasingFunc: ease.InOutQuad,
	}
}

func (f Fade) Name() string { return NameFade }

func (f Fade) Brightness(elapsed time.Duration) uint8 {
	progress := utils.Clamp(float64(elapsed)/float64(f.Period), 0, 1)
	return utils.ToByte(float64(f.Level) * f.EasingFunc(progress))
}

// OffBeatLevel is the share of Level a beat other than the downbeat flashes at.
const OffBeatLevel = 0.75

// Beat flashes at the start of every metronome beat and decays until the next one.
// The first beat of each bar flashes at full level.
type Beat struct {
	Level     uint8
	Metronome *rhythm.Metronome
}

func NewBeat(p Params) *Beat {
	return &Beat{
		Level:     levelOr(p.Level, 255),
		Metronome: rhythm.NewMetronome(p.Tempo),
	}
}

func (b *Beat) Name() string { return NameBeat }

func (b *Beat) Brightness(elapsed time.Duration) uint8 {
	level := float64(b.Level)
	if !b.Metronome.IsDownBeat(elapsed) {
		level *= OffBeatLevel
	}
	phase := b.Metronome.BeatPhase(elapsed)
	return utils.ToByte(level * (1 - ease.OutQuad(phase)))
}

// SetTempo changes the beat tempo without jumping the current beat.
func (b *Beat) SetTempo(bpm float64, at time.Duration) {
	b.Metronome.SetTempo(bpm, at)
}
