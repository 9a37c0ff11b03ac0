package rhythm

import (
	"math"
	"sync"
	"time"
)

const (
	DefaultTempo       = 120.0
	DefaultBeatsPerBar = 4
)

// Metronome keeps a beat timeline over the engine's elapsed time.
// Originally based on https://github.com/Deep-Symmetry/electro/blob/main/src/main/java/org/deepsymmetry/electro/Metronome.java#L449
type Metronome struct {
	mu          sync.Mutex
	origin      time.Duration
	tempo       float64
	beatsPerBar int
}

// NewMetronome creates a new Metronome at the given tempo, falling back to 120 bpm.
func NewMetronome(bpm float64) *Metronome {
	if bpm <= 0 {
		bpm = DefaultTempo
	}
	return &Metronome{
		tempo:       bpm,
		beatsPerBar: DefaultBeatsPerBar,
	}
}

func (m *Metronome) Tempo() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tempo
}

// BeatInterval returns how long a beat lasts.
func (m *Metronome) BeatInterval() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return beatsToDuration(1, m.tempo)
}

// SetTempo sets a new tempo. The origin is adjusted so that the beat and phase
// at the given instant are unaffected by the tempo change.
func (m *Metronome) SetTempo(bpm float64, at time.Duration) {
	if bpm <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	interval := beatsToDuration(1, m.tempo)
	beat := markerNumber(at, m.origin, interval)
	phase := markerPhase(at, m.origin, interval)
	newInterval := beatsToDuration(1, bpm)
	m.origin = at - time.Duration(math.Round(float64(newInterval)*(phase+float64(beat)-1)))
	m.tempo = bpm
}

// Beat returns the 1-based beat number at the given instant.
func (m *Metronome) Beat(at time.Duration) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return markerNumber(at, m.origin, beatsToDuration(1, m.tempo))
}

// BeatPhase returns how far into the current beat the instant is, in [0, 1).
func (m *Metronome) BeatPhase(at time.Duration) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return markerPhase(at, m.origin, beatsToDuration(1, m.tempo))
}

// BeatWithinBar returns the 1-based beat number relative to the start of the bar.
func (m *Metronome) BeatWithinBar(at time.Duration) int {
	beat := m.Beat(at)
	n := int64(m.beatsPerBar)
	return int(((beat-1)%n+n)%n) + 1
}

// IsDownBeat checks whether the beat at the instant is the first in its bar.
func (m *Metronome) IsDownBeat(at time.Duration) bool {
	return m.BeatWithinBar(at) == 1
}

func beatsToDuration(beats int, tempo float64) time.Duration {
	return time.Duration(float64(time.Minute) / tempo * float64(beats))
}

func markerNumber(instant, start, interval time.Duration) int64 {
	return int64(math.Floor(float64(instant-start)/float64(interval))) + 1
}

func markerPhase(instant, start, interval time.Duration) float64 {
	ratio := float64(instant-start) / float64(interval)
	return ratio - math.Floor(ratio)
}
