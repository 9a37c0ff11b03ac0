package effect

import (
	"fmt"
	"time"
)

const (
	DefaultStrobeOnTime = 50 * time.Millisecond
	DefaultStrobeGap    = 200 * time.Millisecond
	DefaultStrobePeriod = 1500 * time.Millisecond
	DefaultStrobeLevel  = 200
)

// Strobe flashes twice per period.
//
//	__|""""|____|""""|_____________________
type Strobe struct {
	OnTime time.Duration
	Gap    time.Duration
	Period time.Duration
	Level  uint8
}

func NewStrobe(p Params) (Strobe, error) {
	s := Strobe{
		OnTime: DefaultStrobeOnTime,
		Gap:    DefaultStrobeGap,
		Period: periodOr(p.Period, DefaultStrobePeriod),
		Level:  levelOr(p.Level, DefaultStrobeLevel),
	}
	if s.Period < 2*s.OnTime+s.Gap {
		return s, fmt.Errorf("strobe period %s is shorter than both flashes (%s)", s.Period, 2*s.OnTime+s.Gap)
	}
	return s, nil
}

func (s Strobe) Name() string { return NameStrobe }

// On returns true if the LEDs should be lit at the given time.
func (s Strobe) On(elapsed time.Duration) bool {
	t := elapsed % s.Period
	switch {
	case t < s.OnTime:
		return true
	case t < s.OnTime+s.Gap:
		return false
	case t < s.OnTime+s.Gap+s.OnTime:
		return true
	default:
		return false
	}
}

func (s Strobe) Brightness(elapsed time.Duration) uint8 {
	if s.On(elapsed) {
		return s.Level
	}
	return 0
}
