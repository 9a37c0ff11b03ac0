//go:build pi

package statusled

import "github.com/ecc1/gpio"

func openPin(pinNumber int) (Pin, error) {
	activeLow := false
	initialValue := false
	return gpio.Output(pinNumber, activeLow, initialValue)
}
