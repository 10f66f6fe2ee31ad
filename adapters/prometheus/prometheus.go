// Package prometheus provides the Prometheus implementation of
// actor.ActorMetrics.
package prometheus

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/codewandler/actr-go/core/metrics"
)

func newTimer(h prometheus.Observer) metrics.Timer {
	return metrics.Since(func(d time.Duration) { h.Observe(d.Seconds()) })
}

// Default histogram buckets for latency metrics (in seconds).
var defaultBuckets = []float64{
	.0001, .0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5,
}

func boolToStr(b bool) string { return strconv.FormatBool(b) }
