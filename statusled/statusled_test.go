package statusled

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testingclock "k8s.io/utils/clock/testing"
)

type recordingPin struct {
	mu     sync.Mutex
	writes []bool
	err    error
}

func (p *recordingPin) Write(on bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.writes = append(p.writes, on)
	return nil
}

func (p *recordingPin) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.writes)
}

func (p *recordingPin) values() []bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]bool(nil), p.writes...)
}

func TestSet(t *testing.T) {
	t.Parallel()

	pin := &recordingPin{}
	led := NewLED(pin, testingclock.NewFakeClock(time.Now()))
	require.NoError(t, led.Set(true))
	assert.True(t, led.IsOn())

	pin.err = fmt.Errorf("gpio busy")
	require.Error(t, led.Set(false))
	assert.True(t, led.IsOn())
}

func TestBlink(t *testing.T) {
	t.Parallel()

	pin := &recordingPin{}
	fc := testingclock.NewFakeClock(time.Now())
	led := NewLED(pin, fc)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- led.Blink(ctx, 500*time.Millisecond) }()

	require.Eventually(t, func() bool { return pin.count() == 1 }, time.Second, time.Millisecond)
	require.Eventually(t, fc.HasWaiters, time.Second, time.Millisecond)
	fc.Step(500 * time.Millisecond)
	require.Eventually(t, func() bool { return pin.count() == 2 }, time.Second, time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, []bool{true, false, false}, pin.values())
	assert.False(t, led.IsOn())
}
