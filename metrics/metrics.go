// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package metrics implements tickit.TickRecorder against Prometheus,
// exposing tick-duration, wake-queue depth, and component timeout counts.
// Entirely optional: a nil *Recorder is never required by the kernel (a nil
// tickit.TickRecorder is a valid no-op), so a binary that doesn't want
// Prometheus never imports this package.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/db47h/tickit"
)

// Recorder implements tickit.TickRecorder against a Prometheus registry.
type Recorder struct {
	tickDuration     prometheus.Histogram
	componentTimeout *prometheus.CounterVec
	wakeQueueDepth   prometheus.Gauge
}

// NewRecorder registers tickit's collectors on reg and returns a Recorder
// ready to pass to tickit.NewMaster/tickit.NewSlave.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tickit",
			Name:      "tick_duration_seconds",
			Help:      "Wall-clock duration of one RunTick call.",
			Buckets:   prometheus.DefBuckets,
		}),
		componentTimeout: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tickit",
			Name:      "component_timeouts_total",
			Help:      "Number of ComponentTimeout errors raised, by component.",
		}, []string{"component"}),
		wakeQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tickit",
			Name:      "wake_queue_depth",
			Help:      "Number of components currently scheduled in the wake queue.",
		}),
	}
	reg.MustRegister(r.tickDuration, r.componentTimeout, r.wakeQueueDepth)
	return r
}

// ObserveTickDuration implements tickit.TickRecorder.
func (r *Recorder) ObserveTickDuration(d time.Duration) {
	r.tickDuration.Observe(d.Seconds())
}

// ObserveComponentTimeout implements tickit.TickRecorder.
func (r *Recorder) ObserveComponentTimeout(component tickit.ComponentId) {
	r.componentTimeout.WithLabelValues(string(component)).Inc()
}

// SetWakeQueueDepth implements tickit.TickRecorder, recording the current
// size of a Master's or Slave's wake queue. The ticker itself never sees the
// wake queue (spec §5's "shared-resource policy" keeps it scheduler-owned),
// so Master and Slave call it directly after each tick.
func (r *Recorder) SetWakeQueueDepth(n int) {
	r.wakeQueueDepth.Set(float64(n))
}
