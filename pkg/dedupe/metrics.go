package dedupe

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	cyclesCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "strava_janitor",
		Subsystem: "dedupe",
		Name:      "cycles_total",
		Help:      "Number of cleanup cycles run, by outcome.",
	}, []string{"outcome"})

	hiddenCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "strava_janitor",
		Subsystem: "dedupe",
		Name:      "activities_hidden_total",
		Help:      "Number of duplicate indoor activities hidden from the feed.",
	})

	listedGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "strava_janitor",
		Subsystem: "dedupe",
		Name:      "last_page_activity_count",
		Help:      "Number of activities returned by the most recent listing.",
	})
)

func init() {
	prometheus.MustRegister(cyclesCounter, hiddenCounter, listedGauge)
}

// recordCycle updates the cycle counter for a finished run.
func recordCycle(outcome string) {
	cyclesCounter.WithLabelValues(outcome).Inc()
}
