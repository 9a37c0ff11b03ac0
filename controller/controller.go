// Package controller implements the strip controller shared by LED fixtures.
//
// A controller owns one strip per GPIO pin its fixtures are wired to. Fixtures
// on the same pin are chained in the order they are attached. Strips generated
// by the same peripheral (both PWM channels) share one device. Brightness is set
// per logical channel and applied to every fixture on that channel when the
// controller renders.
package controller

import (
	"fmt"
	"sort"
	"sync"

	"github.com/gruntwork-io/go-commons/errors"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"github.com/robmorgan/legopi/driver"
	"github.com/robmorgan/legopi/logger"
)

// Source is the part of a fixture the controller needs to render it.
type Source interface {
	GetName() string
	GetGPIO() uint8
	GetNum() uint8
	GetChannel() uint8
	// Pixels returns the packed value of every LED of the fixture at the given brightness
	Pixels(brightness uint8) []uint32
	NeedsUpdate() bool
	HasUpdated()
}

// Config holds the hardware settings of a controller.
type Config struct {
	Frequency int
	DMA       int
	StripType string
	// White is false for strips without a white LED; the white byte is then dropped
	White bool
}

type segment struct {
	fixture Source
	offset  int
	// level is the brightness the fixture was last written at
	level   uint8
	written bool
}

type strip struct {
	gpio      uint8
	hwChannel int
	ledCount  int
	segments  []*segment
}

// device is one driver instance and the strips of its peripheral.
type device struct {
	peripheral string
	strips     []*strip
	dev        driver.Device
}

// Controller drives every strip its fixtures are wired to.
type Controller struct {
	mu         sync.Mutex
	name       string
	config     Config
	devices    []*device
	pins       map[uint8]*strip
	brightness map[uint8]uint8
	opened     bool
	log        *logrus.Entry
}

// New creates a controller. No hardware is touched until Open.
func New(name string, cfg Config) *Controller {
	return &Controller{
		name:       name,
		config:     cfg,
		pins:       make(map[uint8]*strip),
		brightness: make(map[uint8]uint8),
		log:        logger.GetProjectLogger().WithField("controller", name),
	}
}

func (c *Controller) Name() string {
	return c.name
}

// Attach chains the fixture onto the strip of its GPIO pin.
func (c *Controller) Attach(f Source) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.opened {
		return fmt.Errorf("controller %s: cannot attach %s after open", c.name, f.GetName())
	}
	if f.GetNum() == 0 {
		return fmt.Errorf("controller %s: fixture %s has no leds", c.name, f.GetName())
	}
	gpio := f.GetGPIO()
	if !driver.ValidPin(int(gpio)) {
		return fmt.Errorf("controller %s: fixture %s uses gpio %d which cannot drive a strip", c.name, f.GetName(), gpio)
	}

	s, found := c.pins[gpio]
	if !found {
		s = &strip{gpio: gpio, hwChannel: driver.HardwareChannel(int(gpio))}
		d := c.deviceFor(driver.Peripheral(int(gpio)))
		for _, other := range d.strips {
			if other.hwChannel == s.hwChannel {
				return fmt.Errorf("controller %s: gpio %d and gpio %d both need %s channel %d", c.name, gpio, other.gpio, d.peripheral, s.hwChannel)
			}
		}
		d.strips = append(d.strips, s)
		c.pins[gpio] = s
	}
	s.segments = append(s.segments, &segment{fixture: f, offset: s.ledCount})
	s.ledCount += int(f.GetNum())

	if _, found := c.brightness[f.GetChannel()]; !found {
		c.brightness[f.GetChannel()] = 0
	}
	return nil
}

func (c *Controller) deviceFor(peripheral string) *device {
	for _, d := range c.devices {
		if d.peripheral == peripheral {
			return d
		}
	}
	d := &device{peripheral: peripheral}
	c.devices = append(c.devices, d)
	return d
}

// Open creates and initializes a device per peripheral. Every device gets its own DMA channel.
func (c *Controller) Open(factory driver.Factory) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.opened {
		return nil
	}
	for i, d := range c.devices {
		opts := driver.Options{
			Frequency:  c.config.Frequency,
			DMA:        c.config.DMA + i,
			StripType:  c.config.StripType,
			Brightness: 255,
		}
		for _, s := range d.strips {
			opts.Channels[s.hwChannel] = driver.ChannelOptions{GPIO: int(s.gpio), LedCount: s.ledCount}
			for _, seg := range s.segments {
				seg.written = false
			}
		}
		if opts.DMA > driver.MaxDMA {
			c.finiLocked()
			return fmt.Errorf("controller %s: out of dma channels for gpio %v", c.name, opts.Pins())
		}
		dev, err := factory(opts)
		if err != nil {
			c.finiLocked()
			return errors.WithStackTraceAndPrefix(err, "controller %s: creating device for gpio %v", c.name, opts.Pins())
		}
		d.dev = dev
		if err := dev.Init(); err != nil {
			c.finiLocked()
			return errors.WithStackTraceAndPrefix(err, "controller %s: initializing device for gpio %v", c.name, opts.Pins())
		}
		c.log.WithFields(logrus.Fields{"gpio": opts.Pins(), "peripheral": d.peripheral, "dma": opts.DMA}).Info("device initialized")
	}
	c.opened = true
	return nil
}

// Channels returns the sorted logical channels used by the attached fixtures.
func (c *Controller) Channels() []uint8 {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]uint8, 0, len(c.brightness))
	for ch := range c.brightness {
		out = append(out, ch)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// SetBrightness sets the brightness of every fixture on the given channel.
// It takes effect on the next Render.
func (c *Controller) SetBrightness(channel uint8, brightness uint8) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, found := c.brightness[channel]; !found {
		return fmt.Errorf("controller %s has no channel %d", c.name, channel)
	}
	c.brightness[channel] = brightness
	return nil
}

// Brightness returns the current brightness of a channel.
func (c *Controller) Brightness(channel uint8) (uint8, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, found := c.brightness[channel]
	if !found {
		return 0, fmt.Errorf("controller %s has no channel %d", c.name, channel)
	}
	return b, nil
}

// Render writes every fixture to its strip and pushes the strips out.
func (c *Controller) Render() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.renderLocked()
}

func (c *Controller) renderLocked() error {
	if !c.opened {
		return fmt.Errorf("controller %s is not open", c.name)
	}

	var result error
	for _, d := range c.devices {
		for _, s := range d.strips {
			c.writeStripLocked(d.dev.Leds(s.hwChannel), s)
		}
		if err := d.dev.Render(); err != nil {
			result = multierr.Append(result, fmt.Errorf("%s device: %v", d.peripheral, err))
		}
	}
	return result
}

// writeStripLocked rewrites the fixtures whose colour or channel brightness
// changed since they were last written.
func (c *Controller) writeStripLocked(leds []uint32, s *strip) {
	for _, seg := range s.segments {
		level := c.brightness[seg.fixture.GetChannel()]
		dirty := seg.fixture.NeedsUpdate()
		if seg.written && !dirty && seg.level == level {
			continue
		}
		for i, px := range seg.fixture.Pixels(level) {
			if !c.config.White {
				px &= 0x00FFFFFF
			}
			if idx := seg.offset + i; idx < len(leds) {
				leds[idx] = px
			}
		}
		seg.level, seg.written = level, true
		if dirty {
			c.log.WithField("fixture", seg.fixture.GetName()).Debug("fixture changed")
			seg.fixture.HasUpdated()
		}
	}
}

// Wait blocks until the last render reached the LEDs.
func (c *Controller) Wait() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.opened {
		return nil
	}
	var result error
	for _, d := range c.devices {
		result = multierr.Append(result, d.dev.Wait())
	}
	return result
}

// Off sets every channel to zero and renders.
func (c *Controller) Off() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for ch := range c.brightness {
		c.brightness[ch] = 0
	}
	if !c.opened {
		return nil
	}
	return c.renderLocked()
}

// Close releases the devices.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.finiLocked()
	c.opened = false
	return nil
}

func (c *Controller) finiLocked() {
	for _, d := range c.devices {
		if d.dev != nil {
			d.dev.Fini()
			d.dev = nil
		}
	}
}
