package config

import "github.com/robmorgan/legopi/driver"

// DefaultController is the controller every default fixture is patched onto.
const DefaultController = "controller0"

// PatchedFixture stores config info for an LED fixture
type PatchedFixture struct {
	Name string `toml:"name"`
	// GPIO is the pin the fixture's strip is wired to
	GPIO uint8 `toml:"gpio"`
	// Num is the number of LEDs in the fixture
	Num        uint8  `toml:"num"`
	Color      string `toml:"color"`
	Channel    uint8  `toml:"channel"`
	Controller string `toml:"controller"`
}

func defaultControllers() []ControllerConfig {
	return []ControllerConfig{
		{
			Name:      DefaultController,
			Frequency: driver.DefaultFrequency,
			DMA:       driver.DefaultDMA,
			StripType: "ws2812",
		},
	}
}

func PatchFixtures() []PatchedFixture {
	return []PatchedFixture{
		// front light
		{Name: "FR_LED", GPIO: 21, Num: 2, Color: "white", Channel: 0, Controller: DefaultController},
		// rear light
		{Name: "RR_LED", GPIO: 18, Num: 2, Color: "red", Channel: 0, Controller: DefaultController},
		// backpack
		{Name: "BP_LED", GPIO: 13, Num: 2, Color: "neon", Channel: 0, Controller: DefaultController},
	}
}
