// Package statusled blinks a heartbeat LED while the render loop runs.
package statusled

import (
	"context"
	"sync"
	"time"

	"github.com/gruntwork-io/go-commons/errors"
	"github.com/sirupsen/logrus"
	"k8s.io/utils/clock"

	"github.com/robmorgan/legopi/logger"
)

// Pin is a digital output.
type Pin interface {
	Write(on bool) error
}

// LED is a status LED on a plain GPIO pin.
type LED struct {
	mu    sync.Mutex
	pin   Pin
	clock clock.WithTicker
	on    bool
	log   *logrus.Entry
}

// Open initializes the status LED on the given GPIO pin.
func Open(pinNumber int) (*LED, error) {
	pin, err := openPin(pinNumber)
	if err != nil {
		return nil, errors.WithStackTraceAndPrefix(err, "opening status led on gpio %d", pinNumber)
	}
	return NewLED(pin, clock.RealClock{}), nil
}

// NewLED wraps an output pin.
func NewLED(pin Pin, cl clock.WithTicker) *LED {
	return &LED{
		pin:   pin,
		clock: cl,
		log:   logger.GetProjectLogger().WithField("component", "statusled"),
	}
}

// Set turns the led on or off.
func (l *LED) Set(on bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.pin.Write(on); err != nil {
		return errors.WithStackTraceAndPrefix(err, "writing status led")
	}
	l.on = on
	return nil
}

// IsOn returns the last value written.
func (l *LED) IsOn() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.on
}

// Blink toggles the led every delay until ctx is done and leaves it off.
func (l *LED) Blink(ctx context.Context, delay time.Duration) error {
	ticker := l.clock.NewTicker(delay)
	defer ticker.Stop()

	value := true
	for {
		if err := l.Set(value); err != nil {
			l.log.WithError(err).Warn("cannot blink status led")
		}
		value = !value

		select {
		case <-ctx.Done():
			return l.Set(false)
		case <-ticker.C():
		}
	}
}
