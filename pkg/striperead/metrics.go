package striperead

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	stripesStarted prometheus.Counter
	rowsDecoded    prometheus.Counter
	rowsSkipped    prometheus.Counter
	seeks          prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		stripesStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "columnobj",
			Subsystem: "striperead",
			Name:      "stripes_started_total",
			Help:      "Number of stripes the reader tree has been bound to.",
		}),
		rowsDecoded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "columnobj",
			Subsystem: "striperead",
			Name:      "rows_decoded_total",
			Help:      "Number of rows materialized into batches.",
		}),
		rowsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "columnobj",
			Subsystem: "striperead",
			Name:      "rows_skipped_total",
			Help:      "Number of rows skipped without materialization.",
		}),
		seeks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "columnobj",
			Subsystem: "striperead",
			Name:      "seeks_total",
			Help:      "Number of positional seeks applied to the reader tree.",
		}),
	}
}
