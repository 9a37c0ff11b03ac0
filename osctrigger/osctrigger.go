// Package osctrigger lets a lighting desk or a tablet drive the engine over OSC.
//
// Supported addresses:
//
//	/legopi/pattern/<controller>/<channel> <name>
//	/legopi/color/<fixture> <colour>
//	/legopi/tempo <bpm>
//	/legopi/blackout
package osctrigger

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/gruntwork-io/go-commons/errors"
	"github.com/hypebeast/go-osc/osc"
	"github.com/sirupsen/logrus"

	"github.com/robmorgan/legopi/logger"
	"github.com/robmorgan/legopi/utils"
)

const prefix = "/legopi/"

// Player is the part of the engine OSC messages control.
type Player interface {
	SetPatternByName(controller string, channel uint8, name string) error
	SetTempo(bpm float64) error
	Blackout()
}

// Painter changes fixture colours.
type Painter interface {
	SetColor(fixture string, color utils.Color) error
}

// Listener dispatches incoming OSC packets to the engine and the fixtures.
type Listener struct {
	player  Player
	painter Painter
	log     *logrus.Logger
}

// NewListener creates a listener.
func NewListener(player Player, painter Painter) *Listener {
	return &Listener{
		player:  player,
		painter: painter,
		log:     logger.GetProjectLogger(),
	}
}

// ListenAndServe listens on the UDP address until ctx is done.
func (l *Listener) ListenAndServe(ctx context.Context, addr string) error {
	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		return errors.WithStackTraceAndPrefix(err, "listening for OSC on %s", addr)
	}
	return l.Serve(ctx, conn)
}

// Serve reads packets from conn until ctx is done. conn is closed on return.
func (l *Listener) Serve(ctx context.Context, conn net.PacketConn) error {
	server := &osc.Server{Dispatcher: l}

	done := make(chan error, 1)
	go func() { done <- server.Serve(conn) }()
	l.log.WithField("addr", conn.LocalAddr().String()).Info("listening for OSC messages")

	select {
	case <-ctx.Done():
		conn.Close()
		<-done
		return nil
	case err := <-done:
		conn.Close()
		return errors.WithStackTrace(err)
	}
}

// Dispatch implements osc.Dispatcher.
func (l *Listener) Dispatch(packet osc.Packet) {
	switch packet := packet.(type) {
	case *osc.Message:
		l.handle(packet)
	case *osc.Bundle:
		for _, msg := range packet.Messages {
			l.handle(msg)
		}
		for _, bundle := range packet.Bundles {
			l.Dispatch(bundle)
		}
	}
}

func (l *Listener) handle(msg *osc.Message) {
	entry := l.log.WithField("address", msg.Address)

	err := l.apply(msg)
	switch {
	case err == nil:
		messagesReceived.WithLabelValues(outcomeOK).Inc()
		entry.Debugf("OSC message: %s", msg)
	case isUnknown(err):
		messagesReceived.WithLabelValues(outcomeUnknown).Inc()
		entry.Debug("ignoring OSC message")
	default:
		messagesReceived.WithLabelValues(outcomeInvalid).Inc()
		entry.WithError(err).Warn("invalid OSC message")
	}
}

type unknownAddressError string

func (e unknownAddressError) Error() string {
	return fmt.Sprintf("unknown address %s", string(e))
}

func isUnknown(err error) bool {
	_, ok := err.(unknownAddressError)
	return ok
}

func (l *Listener) apply(msg *osc.Message) error {
	if !strings.HasPrefix(msg.Address, prefix) {
		return unknownAddressError(msg.Address)
	}
	parts := strings.Split(strings.TrimPrefix(msg.Address, prefix), "/")

	switch {
	case parts[0] == "pattern" && len(parts) == 3:
		channel, err := strconv.ParseUint(parts[2], 10, 8)
		if err != nil {
			return fmt.Errorf("invalid channel %q", parts[2])
		}
		name, err := stringArg(msg)
		if err != nil {
			return err
		}
		return l.player.SetPatternByName(parts[1], uint8(channel), name)

	case parts[0] == "color" && len(parts) == 2:
		color, err := colorArg(msg)
		if err != nil {
			return err
		}
		return l.painter.SetColor(parts[1], color)

	case parts[0] == "tempo" && len(parts) == 1:
		bpm, err := floatArg(msg)
		if err != nil {
			return err
		}
		return l.player.SetTempo(bpm)

	case parts[0] == "blackout" && len(parts) == 1:
		l.player.Blackout()
		return nil
	}
	return unknownAddressError(msg.Address)
}

func firstArg(msg *osc.Message) (interface{}, error) {
	if len(msg.Arguments) == 0 {
		return nil, fmt.Errorf("missing argument")
	}
	return msg.Arguments[0], nil
}

func stringArg(msg *osc.Message) (string, error) {
	arg, err := firstArg(msg)
	if err != nil {
		return "", err
	}
	s, ok := arg.(string)
	if !ok {
		return "", fmt.Errorf("expected a string, got %T", arg)
	}
	return s, nil
}

func floatArg(msg *osc.Message) (float64, error) {
	arg, err := firstArg(msg)
	if err != nil {
		return 0, err
	}
	switch v := arg.(type) {
	case float32:
		return float64(v), nil
	case float64:
		return v, nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	}
	return 0, fmt.Errorf("expected a number, got %T", arg)
}

// colorArg accepts a colour string or a packed 0xWWRRGGBB integer.
func colorArg(msg *osc.Message) (utils.Color, error) {
	arg, err := firstArg(msg)
	if err != nil {
		return 0, err
	}
	switch v := arg.(type) {
	case string:
		return utils.ParseColor(v)
	case int32:
		return utils.Color(uint32(v)), nil
	case int64:
		return utils.Color(uint32(v)), nil
	}
	return 0, fmt.Errorf("expected a colour, got %T", arg)
}
