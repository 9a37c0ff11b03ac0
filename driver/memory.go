package driver

import (
	"fmt"
	"sync"
)

// MemoryDevice keeps the strip in memory. It backs the mock driver and tests.
type MemoryDevice struct {
	mu          sync.Mutex
	opts        Options
	leds        [NumChannels][]uint32
	rendered    [NumChannels][]uint32
	renderCount int
	initialized bool
	finalized   bool

	// RenderErr, when set, is returned by Render.
	RenderErr error
}

// NewMemoryDevice creates an in-memory device for the given options.
func NewMemoryDevice(opts Options) *MemoryDevice {
	d := &MemoryDevice{opts: opts}
	for i, ch := range opts.Channels {
		d.leds[i] = make([]uint32, ch.LedCount)
	}
	return d
}

// MemoryFactory is a Factory producing MemoryDevices. Every created device is
// recorded so tests can inspect it.
type MemoryFactory struct {
	mu      sync.Mutex
	Devices []*MemoryDevice
}

// New implements Factory.
func (f *MemoryFactory) New(opts Options) (Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d := NewMemoryDevice(opts)
	f.Devices = append(f.Devices, d)
	return d, nil
}

// ByPin returns the device driving the given GPIO pin.
func (f *MemoryFactory) ByPin(pin int) *MemoryDevice {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.Devices {
		for _, p := range d.opts.Pins() {
			if p == pin {
				return d
			}
		}
	}
	return nil
}

func (d *MemoryDevice) Init() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.finalized {
		return fmt.Errorf("device on gpio %v already finalized", d.opts.Pins())
	}
	d.initialized = true
	return nil
}

func (d *MemoryDevice) Render() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized || d.finalized {
		return fmt.Errorf("device on gpio %v not initialized", d.opts.Pins())
	}
	if d.RenderErr != nil {
		return d.RenderErr
	}
	for ch := range d.leds {
		d.rendered[ch] = append(d.rendered[ch][:0], d.leds[ch]...)
	}
	d.renderCount++
	return nil
}

func (d *MemoryDevice) Wait() error {
	return nil
}

func (d *MemoryDevice) Fini() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.finalized = true
}

func (d *MemoryDevice) Leds(channel int) []uint32 {
	return d.leds[channel]
}

// Options returns the options the device was created with.
func (d *MemoryDevice) Options() Options {
	return d.opts
}

// Rendered returns a copy of the pixels sent by the last Render on the given channel.
func (d *MemoryDevice) Rendered(channel int) []uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]uint32(nil), d.rendered[channel]...)
}

// RenderCount returns the number of successful renders.
func (d *MemoryDevice) RenderCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.renderCount
}

// Finalized returns true once Fini has been called.
func (d *MemoryDevice) Finalized() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.finalized
}
