package osctrigger

import "github.com/robmorgan/legopi/metrics"

const (
	outcomeOK      = "ok"
	outcomeInvalid = "invalid"
	outcomeUnknown = "unknown"
)

var messagesReceived = metrics.MustRegisterCounterVec("osc", "messages_total", "Number of OSC messages received", "outcome")
