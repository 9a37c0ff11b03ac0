// Package driver talks to addressable LED strips.
package driver

const (
	// DefaultFrequency is the WS281x signal frequency in Hz.
	DefaultFrequency = 800000
	// DefaultDMA is the DMA channel rpi_ws281x recommends.
	DefaultDMA = 10
	// MaxDMA is the highest DMA channel usable for strips.
	MaxDMA = 14
)

// NumChannels is the number of hardware channels of one rpi_ws281x instance.
const NumChannels = 2

// Device is a single rpi_ws281x instance driving up to two strips.
type Device interface {
	Init() error
	Render() error
	Wait() error
	Fini()
	// Leds returns the pixel buffer of the given hardware channel, one 0xWWRRGGBB value per LED.
	Leds(channel int) []uint32
}

// ChannelOptions configure one hardware channel. A zero GPIO leaves the channel unused.
type ChannelOptions struct {
	GPIO     int
	LedCount int
}

// Options configure a Device.
type Options struct {
	Frequency int
	DMA       int
	StripType string
	// Brightness is the hardware brightness of the strips, 0 to 255
	Brightness int
	Channels   [NumChannels]ChannelOptions
}

// Pins returns the GPIO pins of the used channels.
func (o Options) Pins() []int {
	var pins []int
	for _, ch := range o.Channels {
		if ch.GPIO != 0 {
			pins = append(pins, ch.GPIO)
		}
	}
	return pins
}

// Factory creates devices. New is the production factory.
type Factory func(opts Options) (Device, error)

var (
	pwm0Pins = []int{12, 18, 40, 52}
	pwm1Pins = []int{13, 19, 41, 45, 53}
	pcmPins  = []int{21, 31}
	spiPins  = []int{10}
)

func contains(pins []int, pin int) bool {
	for _, p := range pins {
		if p == pin {
			return true
		}
	}
	return false
}

// ValidPin returns true if rpi_ws281x can drive a strip from the given GPIO pin.
func ValidPin(pin int) bool {
	return contains(pwm0Pins, pin) || contains(pwm1Pins, pin) || contains(pcmPins, pin) || contains(spiPins, pin)
}

// Peripheral names the Pi peripheral generating the signal on the given pin.
// Strips on the same peripheral must share one Device, since each instance
// programs the whole peripheral.
func Peripheral(pin int) string {
	switch {
	case contains(pwm0Pins, pin), contains(pwm1Pins, pin):
		return "pwm"
	case contains(pcmPins, pin):
		return "pcm"
	case contains(spiPins, pin):
		return "spi"
	}
	return ""
}

// HardwareChannel returns the rpi_ws281x channel the given pin must be configured on.
func HardwareChannel(pin int) int {
	if contains(pwm1Pins, pin) {
		return 1
	}
	return 0
}
