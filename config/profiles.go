package config

// StripProfile holds info for an LED strip type.
type StripProfile struct {
	Name string
	// Order is the byte order the strip expects on the wire
	Order string
	// White is true if the strip has a dedicated white LED
	White bool
}

var stripProfiles = map[string]StripProfile{
	"ws2811-rgb": {
		Name:  "WS2811 RGB",
		Order: "RGB",
	},
	"ws2811-grb": {
		Name:  "WS2811 GRB",
		Order: "GRB",
	},
	"ws2812": {
		Name:  "WS2812 / WS2812B",
		Order: "GRB",
	},
	"sk6812": {
		Name:  "SK6812 RGB",
		Order: "GRB",
	},
	"sk6812-rgbw": {
		Name:  "SK6812 RGBW",
		Order: "RGBW",
		White: true,
	},
}

// GetStripProfile looks up a strip profile by its config name.
func GetStripProfile(name string) (StripProfile, bool) {
	p, found := stripProfiles[name]
	return p, found
}
