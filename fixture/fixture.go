package fixture

import (
	"sync"

	"github.com/robmorgan/legopi/controller"
	"github.com/robmorgan/legopi/utils"
)

// Fixture is an LED fixture: a run of LEDs on one GPIO pin, painted in one
// colour and dimmed through a channel of its shared controller.
type Fixture struct {
	mu sync.RWMutex

	Name string

	// GPIO is the pin the strip is wired to
	GPIO uint8

	// Num is the number of LEDs in the fixture
	Num uint8

	// Channel is the controller output channel the fixture is dimmed through
	Channel uint8

	// Control is the controller shared with the other fixtures
	Control *controller.Controller

	color       utils.Color
	needsUpdate bool
}

// NewFixture creates a fixture. It is not attached to its controller yet.
func NewFixture(name string, gpio, num uint8, color utils.Color, channel uint8, control *controller.Controller) *Fixture {
	return &Fixture{
		Name:        name,
		GPIO:        gpio,
		Num:         num,
		Channel:     channel,
		Control:     control,
		color:       color,
		needsUpdate: true,
	}
}

func (f *Fixture) GetName() string   { return f.Name }
func (f *Fixture) GetGPIO() uint8    { return f.GPIO }
func (f *Fixture) GetNum() uint8     { return f.Num }
func (f *Fixture) GetChannel() uint8 { return f.Channel }

func (f *Fixture) GetColor() utils.Color {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.color
}

// SetColor changes the colour painted on every LED of the fixture.
func (f *Fixture) SetColor(color utils.Color) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.color != color {
		f.color = color
		f.needsUpdate = true
	}
}

// GetBrightness returns the brightness of the fixture's channel.
func (f *Fixture) GetBrightness() uint8 {
	if f.Control == nil {
		return 0
	}
	b, err := f.Control.Brightness(f.Channel)
	if err != nil {
		return 0
	}
	return b
}

// NeedsUpdate returns true if the fixture changed since it was last rendered.
func (f *Fixture) NeedsUpdate() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.needsUpdate
}

// HasUpdated is called once the fixture has been rendered.
func (f *Fixture) HasUpdated() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.needsUpdate = false
}

// Pixels returns the packed value of every LED at the given brightness.
func (f *Fixture) Pixels(brightness uint8) []uint32 {
	c := uint32(f.GetColor().Scale(brightness))
	out := make([]uint32, f.Num)
	for i := range out {
		out[i] = c
	}
	return out
}
