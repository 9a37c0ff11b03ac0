// Package engine runs the render loop that plays patterns on controller channels.
package engine

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gruntwork-io/go-commons/errors"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
	"k8s.io/utils/clock"

	"github.com/robmorgan/legopi/config"
	"github.com/robmorgan/legopi/controller"
	"github.com/robmorgan/legopi/effect"
	"github.com/robmorgan/legopi/logger"
	"github.com/robmorgan/legopi/rhythm"
)

const (
	Banner          = "------Lego Pi------"
	StartedMessage  = "Program started, press Ctrl-C to exit"
	shutdownMessage = "SIGINT/Ctrl+C received, turning off all LEDs and closing program..."
)

// Options holds the loop timing.
type Options struct {
	// Tick is the time between two frames
	Tick time.Duration
	// Cycle is the length after which elapsed wraps to zero
	Cycle time.Duration
}

// Binding describes the pattern playing on a controller channel.
type Binding struct {
	Controller string `json:"controller"`
	Channel    uint8  `json:"channel"`
	Pattern    string `json:"pattern"`
	Brightness uint8  `json:"brightness"`
}

type binding struct {
	ctrl    *controller.Controller
	channel uint8
	pattern effect.Pattern
	level   uint8
}

// Engine is the render loop. It is safe for concurrent use.
type Engine struct {
	mu          sync.Mutex
	clock       clock.WithTicker
	opts        Options
	elapsed     time.Duration
	tempo       float64
	controllers []*controller.Controller
	byName      map[string]*controller.Controller
	bindings    []*binding
	log         *logrus.Logger
}

// New creates an engine rendering the given controllers.
func New(cl clock.WithTicker, controllers []*controller.Controller, opts Options) (*Engine, error) {
	if opts.Tick <= 0 {
		return nil, fmt.Errorf("tick must be positive, got %s", opts.Tick)
	}
	if opts.Cycle < opts.Tick {
		return nil, fmt.Errorf("cycle %s is shorter than tick %s", opts.Cycle, opts.Tick)
	}
	e := &Engine{
		clock:       cl,
		opts:        opts,
		tempo:       rhythm.DefaultTempo,
		controllers: controllers,
		byName:      make(map[string]*controller.Controller),
		log:         logger.GetProjectLogger(),
	}
	for _, c := range controllers {
		e.byName[c.Name()] = c
	}
	return e, nil
}

// SetPattern plays the pattern on a controller channel, replacing the current one.
func (e *Engine) SetPattern(controllerName string, channel uint8, pattern effect.Pattern) error {
	ctrl, found := e.byName[controllerName]
	if !found {
		return fmt.Errorf("unknown controller %q", controllerName)
	}
	if _, err := ctrl.Brightness(channel); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.setPatternLocked(ctrl, channel, pattern)
	return nil
}

func (e *Engine) setPatternLocked(ctrl *controller.Controller, channel uint8, pattern effect.Pattern) {
	for _, b := range e.bindings {
		if b.ctrl == ctrl && b.channel == channel {
			if b.pattern.Name() != pattern.Name() {
				e.log.WithFields(logrus.Fields{"controller": ctrl.Name(), "channel": channel, "pattern": pattern.Name()}).Info("pattern changed")
			}
			b.pattern = pattern
			patternChanges.WithLabelValues(pattern.Name()).Inc()
			return
		}
	}
	e.bindings = append(e.bindings, &binding{ctrl: ctrl, channel: channel, pattern: pattern})
	e.log.WithFields(logrus.Fields{"controller": ctrl.Name(), "channel": channel, "pattern": pattern.Name()}).Info("pattern bound")
	patternChanges.WithLabelValues(pattern.Name()).Inc()
}

// SetPatternByName creates the named pattern with its defaults and the current tempo.
func (e *Engine) SetPatternByName(controllerName string, channel uint8, name string) error {
	pattern, err := effect.New(name, effect.Params{Tempo: e.Tempo()})
	if err != nil {
		return err
	}
	return e.SetPattern(controllerName, channel, pattern)
}

// ApplyConfig binds every channel listed in the config.
func (e *Engine) ApplyConfig(cfg *config.LegoPiConfig) error {
	var result error
	for _, cb := range cfg.Channels {
		params, err := cb.Params()
		if err != nil {
			result = multierr.Append(result, fmt.Errorf("channel %s/%d: %v", cb.Controller, cb.Channel, err))
			continue
		}
		if params.Tempo == 0 {
			params.Tempo = e.Tempo()
		}
		pattern, err := effect.New(cb.Pattern, params)
		if err != nil {
			result = multierr.Append(result, fmt.Errorf("channel %s/%d: %v", cb.Controller, cb.Channel, err))
			continue
		}
		if err := e.SetPattern(cb.Controller, cb.Channel, pattern); err != nil {
			result = multierr.Append(result, err)
		}
	}
	return result
}

// Tempo returns the tempo used by beat patterns.
func (e *Engine) Tempo() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tempo
}

// SetTempo changes the tempo of every beat pattern.
func (e *Engine) SetTempo(bpm float64) error {
	if bpm <= 0 {
		return fmt.Errorf("invalid tempo %v", bpm)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.tempo = bpm
	for _, b := range e.bindings {
		if beat, ok := b.pattern.(*effect.Beat); ok {
			beat.SetTempo(bpm, e.elapsed)
		}
	}
	e.log.WithField("bpm", bpm).Info("tempo changed")
	return nil
}

// Blackout switches every bound channel to the off pattern.
func (e *Engine) Blackout() {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, b := range e.bindings {
		b.pattern = effect.Off{}
	}
	patternChanges.WithLabelValues(effect.NameOff).Add(float64(len(e.bindings)))
	e.log.Info("blackout")
}

// Bindings returns the current bindings.
func (e *Engine) Bindings() []Binding {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Binding, 0, len(e.bindings))
	for _, b := range e.bindings {
		out = append(out, Binding{
			Controller: b.ctrl.Name(),
			Channel:    b.channel,
			Pattern:    b.pattern.Name(),
			Brightness: b.level,
		})
	}
	return out
}

// Elapsed returns the position in the current cycle.
func (e *Engine) Elapsed() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.elapsed
}

// Run renders a frame on every tick until ctx is done, then turns every LED off.
func (e *Engine) Run(ctx context.Context) error {
	ticker := e.clock.NewTicker(e.opts.Tick)
	defer ticker.Stop()

	e.log.WithFields(logrus.Fields{"tick": e.opts.Tick, "cycle": e.opts.Cycle}).Info("render loop started")
	for {
		select {
		case <-ctx.Done():
			return e.shutdown()
		case <-ticker.C():
			e.frame()
		}
	}
}

// frame sets every bound channel from its pattern, renders each controller once
// and advances elapsed.
func (e *Engine) frame() {
	e.mu.Lock()
	for _, b := range e.bindings {
		b.level = b.pattern.Brightness(e.elapsed)
		if err := b.ctrl.SetBrightness(b.channel, b.level); err != nil {
			e.log.WithError(err).Warn("cannot set channel brightness")
			continue
		}
		channelLevel.WithLabelValues(b.ctrl.Name(), strconv.Itoa(int(b.channel))).Set(float64(b.level))
	}
	e.elapsed = (e.elapsed + e.opts.Tick) % e.opts.Cycle
	e.mu.Unlock()

	start := e.clock.Now()
	for _, c := range e.controllers {
		if err := c.Render(); err != nil {
			renderErrors.Inc()
			e.log.WithError(err).WithField("controller", c.Name()).Error("render failed")
		}
	}
	renderDuration.Observe(e.clock.Since(start).Seconds())
	framesRendered.Inc()
}

func (e *Engine) shutdown() error {
	e.log.Info(Banner)
	e.log.Info(shutdownMessage)

	var result error
	for _, c := range e.controllers {
		if err := c.Off(); err != nil {
			result = multierr.Append(result, err)
		}
		if err := c.Wait(); err != nil {
			result = multierr.Append(result, err)
		}
		result = multierr.Append(result, c.Close())
	}
	if result != nil {
		return errors.WithStackTraceAndPrefix(result, "turning off LEDs")
	}
	return nil
}
