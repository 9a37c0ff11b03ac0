//go:build !pi

package statusled

import (
	"github.com/sirupsen/logrus"

	"github.com/robmorgan/legopi/logger"
)

type logPin struct {
	log *logrus.Entry
}

func openPin(pinNumber int) (Pin, error) {
	log := logger.GetProjectLogger().WithField("gpio", pinNumber)
	log.Warn("built without the pi tag, the status led is only logged")
	return &logPin{log: log}, nil
}

func (p *logPin) Write(on bool) error {
	p.log.Tracef("status led on=%v", on)
	return nil
}
