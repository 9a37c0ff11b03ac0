package utils

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Color is a packed LED colour in the 0xWWRRGGBB layout used by rpi_ws281x.
type Color uint32

const (
	ColorOff   Color = 0x00000000
	ColorWhite Color = 0x00FFFFFF
	ColorRed   Color = 0x00FF0000
	ColorGreen Color = 0x0000FF00
	ColorBlue  Color = 0x000000FF
	// ColorNeon is neon green (#39FF14) with the white LED at 100.
	ColorNeon Color = 0x6439FF14
)

var namedColors = map[string]Color{
	"off":   ColorOff,
	"black": ColorOff,
	"white": ColorWhite,
	"red":   ColorRed,
	"green": ColorGreen,
	"blue":  ColorBlue,
	"neon":  ColorNeon,
}

// NewColor packs the given components.
func NewColor(r, g, b, w uint8) Color {
	return Color(uint32(w)<<24 | uint32(r)<<16 | uint32(g)<<8 | uint32(b))
}

func (c Color) R() uint8 { return uint8(c >> 16) }
func (c Color) G() uint8 { return uint8(c >> 8) }
func (c Color) B() uint8 { return uint8(c) }
func (c Color) W() uint8 { return uint8(c >> 24) }

// Hex returns the RGB part of the colour as #rrggbb.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R(), c.G(), c.B())
}

// String implements fmt.Stringer.
func (c Color) String() string {
	return fmt.Sprintf("0x%08X", uint32(c))
}

// Scale dims every component of the colour by brightness/255.
func (c Color) Scale(brightness uint8) Color {
	if brightness == 255 {
		return c
	}
	scale := func(v uint8) uint8 {
		return uint8(uint32(v) * uint32(brightness) / 255)
	}
	return NewColor(scale(c.R()), scale(c.G()), scale(c.B()), scale(c.W()))
}

// ParseColor accepts a colour name, an #RRGGBB hex string or a packed 0xWWRRGGBB value.
func ParseColor(s string) (Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, found := namedColors[s]; found {
		return c, nil
	}

	switch {
	case strings.HasPrefix(s, "#"):
		col, err := colorful.Hex(s)
		if err != nil {
			return ColorOff, fmt.Errorf("invalid hex colour %q: %v", s, err)
		}
		r, g, b := col.RGB255()
		return NewColor(r, g, b, 0), nil
	case strings.HasPrefix(s, "0x"):
		v, err := strconv.ParseUint(s[2:], 16, 32)
		if err != nil {
			return ColorOff, fmt.Errorf("invalid packed colour %q: %v", s, err)
		}
		return Color(v), nil
	}

	return ColorOff, fmt.Errorf("unknown colour %q", s)
}
