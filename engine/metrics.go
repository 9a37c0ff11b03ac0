package engine

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/robmorgan/legopi/metrics"
)

var (
	framesRendered = metrics.MustRegisterCounter("engine", "frames_rendered_total", "Number of frames rendered")
	renderErrors   = metrics.MustRegisterCounter("engine", "render_errors_total", "Number of failed controller renders")
	renderDuration = metrics.MustRegisterHistogram("engine", "render_duration_seconds", "Time spent rendering a frame",
		prometheus.ExponentialBuckets(0.0001, 2, 12))
	patternChanges = metrics.MustRegisterCounterVec("engine", "pattern_changes_total", "Number of pattern changes", "pattern")
	channelLevel   = metrics.MustRegisterGaugeVec("engine", "channel_brightness", "Current brightness of a channel", "controller", "channel")
)
