//go:build !pi

package driver

import (
	"github.com/sirupsen/logrus"

	"github.com/robmorgan/legopi/logger"
)

type mockDevice struct {
	*MemoryDevice
	log *logrus.Entry
}

// New returns an in-memory strip that logs every frame. Build with -tags pi
// to drive real hardware.
func New(opts Options) (Device, error) {
	log := logger.GetProjectLogger().WithFields(logrus.Fields{"gpio": opts.Pins(), "dma": opts.DMA})
	log.Warn("built without the pi tag, strip output is simulated")
	return &mockDevice{MemoryDevice: NewMemoryDevice(opts), log: log}, nil
}

func (d *mockDevice) Render() error {
	if err := d.MemoryDevice.Render(); err != nil {
		return err
	}
	if d.log.Logger.IsLevelEnabled(logrus.TraceLevel) {
		for ch := 0; ch < NumChannels; ch++ {
			d.log.Tracef("channel %d colors: %#v", ch, d.MemoryDevice.Rendered(ch))
		}
	}
	return nil
}
