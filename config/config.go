package config

import (
	"fmt"
	"os"
	"time"

	"github.com/gruntwork-io/go-commons/errors"
	"github.com/pelletier/go-toml/v2"
	"go.uber.org/multierr"

	"github.com/robmorgan/legopi/driver"
	"github.com/robmorgan/legopi/effect"
	"github.com/robmorgan/legopi/utils"
)

// LegoPiConfig represents options that configure the global behavior of the program
type LegoPiConfig struct {
	Engine EngineConfig `toml:"engine"`

	// Controllers are the shared strip controllers fixtures are patched onto
	Controllers []ControllerConfig `toml:"controllers"`

	// PatchedFixtures stores all of the patched fixtures
	PatchedFixtures []PatchedFixture `toml:"fixtures"`

	// Channels binds a pattern to every logical output channel
	Channels []ChannelBinding `toml:"channels"`

	OSC       OSCConfig       `toml:"osc"`
	HTTP      HTTPConfig      `toml:"http"`
	StatusLED StatusLEDConfig `toml:"status_led"`
}

// EngineConfig holds the render loop timing.
type EngineConfig struct {
	// Tick is the time between two frames
	Tick string `toml:"tick"`
	// Cycle is the length after which the pattern clock wraps around
	Cycle string `toml:"cycle"`
}

// ControllerConfig describes a shared strip controller.
type ControllerConfig struct {
	Name      string `toml:"name"`
	Frequency int    `toml:"frequency"`
	DMA       int    `toml:"dma"`
	StripType string `toml:"strip_type"`
}

// ChannelBinding assigns a pattern to a channel of a controller.
type ChannelBinding struct {
	Controller string  `toml:"controller"`
	Channel    uint8   `toml:"channel"`
	Pattern    string  `toml:"pattern"`
	Level      uint8   `toml:"level"`
	Period     string  `toml:"period"`
	Tempo      float64 `toml:"tempo"`
}

type OSCConfig struct {
	// Addr is the UDP address to listen on, empty disables OSC
	Addr string `toml:"addr"`
}

type HTTPConfig struct {
	// Addr is the TCP address to listen on, empty disables the HTTP API
	Addr string `toml:"addr"`
}

type StatusLEDConfig struct {
	// Pin is the GPIO of the heartbeat LED, -1 disables it
	Pin   int    `toml:"pin"`
	Blink string `toml:"blink"`
}

// NewLegoPiConfig creates a new LegoPiConfig object with reasonable defaults for real usage
func NewLegoPiConfig() *LegoPiConfig {
	return &LegoPiConfig{
		Engine: EngineConfig{
			Tick:  "10ms",
			Cycle: "12s",
		},
		Controllers:     defaultControllers(),
		PatchedFixtures: PatchFixtures(),
		Channels: []ChannelBinding{
			{Controller: DefaultController, Channel: 0, Pattern: effect.NameStrobe, Level: 200},
		},
		OSC:       OSCConfig{Addr: "0.0.0.0:9000"},
		HTTP:      HTTPConfig{Addr: "0.0.0.0:7130"},
		StatusLED: StatusLEDConfig{Pin: -1, Blink: "500ms"},
	}
}

// Load reads a TOML config file on top of the defaults.
func Load(path string) (*LegoPiConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithStackTraceAndPrefix(err, "reading config %s", path)
	}

	// Lists in the file replace the default lists instead of extending them.
	cfg := NewLegoPiConfig()
	defaults := *cfg
	cfg.Controllers, cfg.PatchedFixtures, cfg.Channels = nil, nil, nil
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, errors.WithStackTraceAndPrefix(err, "parsing config %s", path)
	}
	if cfg.Controllers == nil {
		cfg.Controllers = defaults.Controllers
	}
	if cfg.PatchedFixtures == nil {
		cfg.PatchedFixtures = defaults.PatchedFixtures
	}
	if cfg.Channels == nil {
		cfg.Channels = defaults.Channels
	}
	return cfg, nil
}

// TickDuration returns the parsed engine tick.
func (c *LegoPiConfig) TickDuration() (time.Duration, error) {
	return time.ParseDuration(c.Engine.Tick)
}

// CycleDuration returns the parsed engine cycle.
func (c *LegoPiConfig) CycleDuration() (time.Duration, error) {
	return time.ParseDuration(c.Engine.Cycle)
}

// StatusBlinkDuration returns the parsed status LED blink delay.
func (c *LegoPiConfig) StatusBlinkDuration() (time.Duration, error) {
	return time.ParseDuration(c.StatusLED.Blink)
}

// GetController returns the controller with the given name.
func (c *LegoPiConfig) GetController(name string) (ControllerConfig, bool) {
	for _, cc := range c.Controllers {
		if cc.Name == name {
			return cc, true
		}
	}
	return ControllerConfig{}, false
}

// Params converts the binding into pattern parameters.
func (b ChannelBinding) Params() (effect.Params, error) {
	p := effect.Params{Level: b.Level, Tempo: b.Tempo}
	if b.Period != "" {
		d, err := time.ParseDuration(b.Period)
		if err != nil {
			return p, fmt.Errorf("invalid period %q: %v", b.Period, err)
		}
		p.Period = d
	}
	return p, nil
}

// Validate checks the whole config and returns every problem found.
func (c *LegoPiConfig) Validate() error {
	var result error

	tick, err := c.TickDuration()
	if err != nil {
		result = multierr.Append(result, fmt.Errorf("engine tick: %v", err))
	} else if tick <= 0 {
		result = multierr.Append(result, fmt.Errorf("engine tick must be positive, got %s", tick))
	}
	cycle, err := c.CycleDuration()
	if err != nil {
		result = multierr.Append(result, fmt.Errorf("engine cycle: %v", err))
	} else if tick > 0 && cycle < tick {
		result = multierr.Append(result, fmt.Errorf("engine cycle %s is shorter than tick %s", cycle, tick))
	}

	controllers := make(map[string]bool)
	for _, cc := range c.Controllers {
		if cc.Name == "" {
			result = multierr.Append(result, fmt.Errorf("controller without a name"))
			continue
		}
		if controllers[cc.Name] {
			result = multierr.Append(result, fmt.Errorf("duplicate controller found! name=%s", cc.Name))
		}
		controllers[cc.Name] = true
		if _, found := GetStripProfile(cc.StripType); !found {
			result = multierr.Append(result, fmt.Errorf("controller %s: unknown strip type %q", cc.Name, cc.StripType))
		}
		if cc.Frequency <= 0 {
			result = multierr.Append(result, fmt.Errorf("controller %s: frequency must be positive", cc.Name))
		}
		if cc.DMA < 0 || cc.DMA > driver.MaxDMA {
			result = multierr.Append(result, fmt.Errorf("controller %s: dma %d out of range", cc.Name, cc.DMA))
		}
	}

	type channelKey struct {
		controller string
		channel    uint8
	}
	type outputKey struct {
		controller string
		peripheral string
		hwChannel  int
	}
	usedChannels := make(map[channelKey]bool)
	outputs := make(map[outputKey]uint8)
	peripherals := make(map[string]string)
	fixtures := make(map[string]bool)
	for _, f := range c.PatchedFixtures {
		if fixtures[f.Name] {
			result = multierr.Append(result, fmt.Errorf("duplicate fixtures found! name=%s", f.Name))
		}
		fixtures[f.Name] = true
		if !controllers[f.Controller] {
			result = multierr.Append(result, fmt.Errorf("fixture %s: unknown controller %q", f.Name, f.Controller))
		}
		if f.Num == 0 {
			result = multierr.Append(result, fmt.Errorf("fixture %s: led count must be at least 1", f.Name))
		}
		if !driver.ValidPin(int(f.GPIO)) {
			result = multierr.Append(result, fmt.Errorf("fixture %s: gpio %d cannot drive a strip", f.Name, f.GPIO))
		} else if controllers[f.Controller] {
			peripheral := driver.Peripheral(int(f.GPIO))
			key := outputKey{f.Controller, peripheral, driver.HardwareChannel(int(f.GPIO))}
			if other, found := outputs[key]; found && other != f.GPIO {
				result = multierr.Append(result, fmt.Errorf("fixture %s: gpio %d and gpio %d both need %s channel %d", f.Name, f.GPIO, other, peripheral, key.hwChannel))
			}
			outputs[key] = f.GPIO
			if owner, found := peripherals[peripheral]; found && owner != f.Controller {
				result = multierr.Append(result, fmt.Errorf("fixture %s: %s is already driven by controller %s", f.Name, peripheral, owner))
			} else {
				peripherals[peripheral] = f.Controller
			}
		}
		if _, err := utils.ParseColor(f.Color); err != nil {
			result = multierr.Append(result, fmt.Errorf("fixture %s: %v", f.Name, err))
		}
		usedChannels[channelKey{f.Controller, f.Channel}] = true
	}

	bound := make(map[channelKey]bool)
	for _, b := range c.Channels {
		if !controllers[b.Controller] {
			result = multierr.Append(result, fmt.Errorf("channel binding: unknown controller %q", b.Controller))
			continue
		}
		if bound[channelKey{b.Controller, b.Channel}] {
			result = multierr.Append(result, fmt.Errorf("duplicate channel binding found! channel=%s/%d", b.Controller, b.Channel))
		}
		bound[channelKey{b.Controller, b.Channel}] = true
		if !usedChannels[channelKey{b.Controller, b.Channel}] {
			result = multierr.Append(result, fmt.Errorf("channel binding: no fixture uses channel %d of %s", b.Channel, b.Controller))
		}
		params, err := b.Params()
		if err != nil {
			result = multierr.Append(result, fmt.Errorf("channel binding %s/%d: %v", b.Controller, b.Channel, err))
			continue
		}
		if _, err := effect.New(b.Pattern, params); err != nil {
			result = multierr.Append(result, fmt.Errorf("channel binding %s/%d: %v", b.Controller, b.Channel, err))
		}
	}

	if _, err := c.StatusBlinkDuration(); c.StatusLED.Pin >= 0 && err != nil {
		result = multierr.Append(result, fmt.Errorf("status led blink: %v", err))
	}

	return result
}
