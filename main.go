package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gruntwork-io/go-commons/errors"
	terminate "github.com/pulcy/go-terminate"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
	"k8s.io/utils/clock"

	"github.com/robmorgan/legopi/config"
	"github.com/robmorgan/legopi/driver"
	"github.com/robmorgan/legopi/engine"
	"github.com/robmorgan/legopi/fixture"
	"github.com/robmorgan/legopi/logger"
	"github.com/robmorgan/legopi/osctrigger"
	"github.com/robmorgan/legopi/server"
	"github.com/robmorgan/legopi/statusled"
)

type options struct {
	configPath   string
	level        string
	oscAddr      string
	httpAddr     string
	statusLEDPin int
	pattern      string
}

func main() {
	var opts options
	pflag.StringVarP(&opts.configPath, "config", "c", "", "Path of the TOML config file, reloaded on change")
	pflag.StringVarP(&opts.level, "level", "l", "info", "Set log level")
	pflag.StringVar(&opts.oscAddr, "osc-addr", "", "UDP address to listen on for OSC messages, overrides the config")
	pflag.StringVar(&opts.httpAddr, "http-addr", "", "Address the HTTP server will listen on, overrides the config")
	pflag.IntVar(&opts.statusLEDPin, "status-led-pin", -1, "GPIO of the status LED, -1 disables it")
	pflag.StringVarP(&opts.pattern, "pattern", "p", "", "Pattern played on every configured channel")
	pflag.Parse()

	if err := logger.SetLevel(opts.level); err != nil {
		Exitf("Invalid log level '%s': %v\n", opts.level, err)
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		logger.GetProjectLogger().Debug(errors.PrintErrorWithStackTrace(err))
		Exitf("Failed to load config: %v\n", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	log := logger.GetProjectLogger()
	t := terminate.NewTerminator(func(template string, args ...interface{}) {
		log.Infof(template, args...)
	}, cancel)
	go t.ListenSignals()

	if err := Run(ctx, cfg, opts.configPath); err != nil {
		log.Debug(errors.PrintErrorWithStackTrace(err))
		Exitf("LegoPi run failed: %v\n", err)
	}
}

// loadConfig reads the config file if any and applies the command line overrides.
func loadConfig(opts options) (*config.LegoPiConfig, error) {
	cfg := config.NewLegoPiConfig()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.Load(opts.configPath); err != nil {
			return nil, err
		}
	}
	if opts.oscAddr != "" {
		cfg.OSC.Addr = opts.oscAddr
	}
	if opts.httpAddr != "" {
		cfg.HTTP.Addr = opts.httpAddr
	}
	if pflag.CommandLine.Changed("status-led-pin") {
		cfg.StatusLED.Pin = opts.statusLEDPin
	}
	if opts.pattern != "" {
		for i := range cfg.Channels {
			cfg.Channels[i].Pattern = opts.pattern
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Run drives the LEDs until ctx is canceled
func Run(ctx context.Context, cfg *config.LegoPiConfig, configPath string) error {
	log := logger.GetProjectLogger()
	log.Info(engine.Banner)
	log.Info(engine.StartedMessage)

	log.Info("Initializing fixture manager...")
	fm, err := fixture.NewManager(cfg)
	if err != nil {
		return err
	}
	if err := fm.Open(driver.New); err != nil {
		return err
	}
	defer fm.Close()

	tick, _ := cfg.TickDuration()
	cycle, _ := cfg.CycleDuration()
	e, err := engine.New(clock.RealClock{}, fm.Controllers(), engine.Options{Tick: tick, Cycle: cycle})
	if err != nil {
		return errors.WithStackTrace(err)
	}
	if err := e.ApplyConfig(cfg); err != nil {
		return errors.WithStackTrace(err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return e.Run(ctx) })

	if cfg.OSC.Addr != "" {
		listener := osctrigger.NewListener(e, fm)
		g.Go(func() error { return listener.ListenAndServe(ctx, cfg.OSC.Addr) })
	}
	if cfg.HTTP.Addr != "" {
		srv := server.New(fm, e)
		g.Go(func() error { return srv.Run(ctx, cfg.HTTP.Addr) })
	}
	if configPath != "" {
		watcher := config.NewWatcher(configPath, config.DefaultDebounce)
		watcher.OnReload(func(newCfg *config.LegoPiConfig) {
			if err := fm.ApplyColors(newCfg); err != nil {
				log.WithError(err).Warn("cannot apply fixture colours")
			}
			if err := e.ApplyConfig(newCfg); err != nil {
				log.WithError(err).Warn("cannot apply channel patterns")
			}
		})
		g.Go(func() error { return watcher.Run(ctx) })
	}
	if cfg.StatusLED.Pin >= 0 {
		led, err := statusled.Open(cfg.StatusLED.Pin)
		if err != nil {
			log.WithError(err).Warn("status led disabled")
		} else {
			blink, _ := cfg.StatusBlinkDuration()
			g.Go(func() error { return led.Blink(ctx, blink) })
		}
	}

	return g.Wait()
}

// Exitf prints the given error message and exits with code 1
func Exitf(message string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, message, args...)
	os.Exit(1)
}
