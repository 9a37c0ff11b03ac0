//go:build pi

package driver

import (
	"fmt"

	ws2811 "github.com/rpi-ws281x/rpi-ws281x-go"
)

var stripTypes = map[string]int{
	"ws2811-rgb":  ws2811.WS2811StripRGB,
	"ws2811-grb":  ws2811.WS2811StripGRB,
	"ws2812":      ws2811.WS2812Strip,
	"sk6812":      ws2811.SK6812Strip,
	"sk6812-rgbw": ws2811.SK6812StripRGBW,
}

// New creates an rpi_ws281x instance driving every channel of opts.
func New(opts Options) (Device, error) {
	stripType, found := stripTypes[opts.StripType]
	if !found {
		return nil, fmt.Errorf("unsupported strip type %q", opts.StripType)
	}

	opt := ws2811.DefaultOptions
	opt.Frequency = opts.Frequency
	opt.DmaNum = opts.DMA

	channels := make([]ws2811.ChannelOption, NumChannels)
	for i, ch := range opts.Channels {
		if ch.GPIO == 0 {
			continue
		}
		channels[i] = ws2811.ChannelOption{
			GpioPin:    ch.GPIO,
			LedCount:   ch.LedCount,
			Brightness: opts.Brightness,
			StripeType: stripType,
		}
	}
	opt.Channels = channels

	dev, err := ws2811.MakeWS2811(&opt)
	if err != nil {
		return nil, err
	}
	return dev, nil
}
