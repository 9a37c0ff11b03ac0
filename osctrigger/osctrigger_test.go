package osctrigger

import (
	"context"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/hypebeast/go-osc/osc"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robmorgan/legopi/utils"
)

type call struct {
	controller string
	channel    uint8
	pattern    string
}

type fakePlayer struct {
	mu       sync.Mutex
	patterns []call
	tempo    float64
	blackout int
}

func (p *fakePlayer) SetPatternByName(controller string, channel uint8, name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if name == "disco" {
		return fmt.Errorf("unknown pattern %q", name)
	}
	p.patterns = append(p.patterns, call{controller, channel, name})
	return nil
}

func (p *fakePlayer) SetTempo(bpm float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tempo = bpm
	return nil
}

func (p *fakePlayer) Blackout() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.blackout++
}

func (p *fakePlayer) blackouts() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.blackout
}

type fakePainter struct {
	colors map[string]utils.Color
}

func (p *fakePainter) SetColor(fixture string, color utils.Color) error {
	if fixture != "FR_LED" {
		return fmt.Errorf("unknown fixture %q", fixture)
	}
	p.colors[fixture] = color
	return nil
}

func newTestListener() (*Listener, *fakePlayer, *fakePainter) {
	player := &fakePlayer{}
	painter := &fakePainter{colors: map[string]utils.Color{}}
	return NewListener(player, painter), player, painter
}

func TestDispatchPattern(t *testing.T) {
	l, player, _ := newTestListener()

	l.Dispatch(osc.NewMessage("/legopi/pattern/controller0/0", "pulse"))
	require.Len(t, player.patterns, 1)
	assert.Equal(t, call{"controller0", 0, "pulse"}, player.patterns[0])
}

func TestDispatchColor(t *testing.T) {
	l, _, painter := newTestListener()

	l.Dispatch(osc.NewMessage("/legopi/color/FR_LED", "neon"))
	assert.Equal(t, utils.ColorNeon, painter.colors["FR_LED"])

	l.Dispatch(osc.NewMessage("/legopi/color/FR_LED", int32(0x00FF0000)))
	assert.Equal(t, utils.ColorRed, painter.colors["FR_LED"])
}

func TestDispatchTempoAndBlackout(t *testing.T) {
	l, player, _ := newTestListener()

	l.Dispatch(osc.NewMessage("/legopi/tempo", float32(128)))
	assert.Equal(t, 128.0, player.tempo)

	l.Dispatch(osc.NewMessage("/legopi/blackout"))
	assert.Equal(t, 1, player.blackouts())
}

func TestDispatchBundle(t *testing.T) {
	l, player, _ := newTestListener()

	bundle := osc.NewBundle(time.Now())
	require.NoError(t, bundle.Append(osc.NewMessage("/legopi/pattern/controller0/0", "solid")))
	require.NoError(t, bundle.Append(osc.NewMessage("/legopi/blackout")))
	l.Dispatch(bundle)

	assert.Len(t, player.patterns, 1)
	assert.Equal(t, 1, player.blackouts())
}

func TestDispatchCountsBadMessages(t *testing.T) {
	l, player, _ := newTestListener()

	invalid := testutil.ToFloat64(messagesReceived.WithLabelValues(outcomeInvalid))
	unknown := testutil.ToFloat64(messagesReceived.WithLabelValues(outcomeUnknown))

	testCases := []*osc.Message{
		osc.NewMessage("/legopi/pattern/controller0/x", "pulse"),
		osc.NewMessage("/legopi/pattern/controller0/0"),
		osc.NewMessage("/legopi/pattern/controller0/0", int32(3)),
		osc.NewMessage("/legopi/pattern/controller0/0", "disco"),
		osc.NewMessage("/legopi/color/FR_LED", "mauve"),
		osc.NewMessage("/legopi/color/XX_LED", "red"),
		osc.NewMessage("/legopi/tempo", "fast"),
	}
	for _, msg := range testCases {
		l.Dispatch(msg)
	}
	l.Dispatch(osc.NewMessage("/legopi/nope"))
	l.Dispatch(osc.NewMessage("/other/thing", int32(1)))

	assert.Empty(t, player.patterns)
	assert.Equal(t, invalid+float64(len(testCases)), testutil.ToFloat64(messagesReceived.WithLabelValues(outcomeInvalid)))
	assert.Equal(t, unknown+2, testutil.ToFloat64(messagesReceived.WithLabelValues(outcomeUnknown)))
}

func TestServeOverUDP(t *testing.T) {
	l, player, _ := newTestListener()

	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	port := conn.LocalAddr().(*net.UDPAddr).Port

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Serve(ctx, conn) }()

	client := osc.NewClient("127.0.0.1", port)
	require.Eventually(t, func() bool {
		_ = client.Send(osc.NewMessage("/legopi/blackout"))
		return player.blackouts() > 0
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
