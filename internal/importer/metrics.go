package importer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	importRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bookfund",
		Subsystem: "import",
		Name:      "runs_total",
		Help:      "Import calls broken down by kind and result (ok, partial, aborted).",
	}, []string{"kind", "result"})

	importRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bookfund",
		Subsystem: "import",
		Name:      "rows_total",
		Help:      "Spreadsheet rows handled by importers, by kind and outcome.",
	}, []string{"kind", "outcome"})

	importDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "bookfund",
		Subsystem: "import",
		Name:      "duration_seconds",
		Help:      "Wall time of import calls.",
		Buckets: []float64{
			0.01, 0.05, 0.1, 0.25, 0.5,
			1, 2.5, 5, 10, 30, 60,
		},
	}, []string{"kind"})
)

func recordMetrics(kind Kind, res *Result, err error, seconds float64) {
	k := string(kind)
	importDuration.WithLabelValues(k).Observe(seconds)

	switch {
	case err != nil:
		importRuns.WithLabelValues(k, "aborted").Inc()
	case res.Failed():
		importRuns.WithLabelValues(k, "partial").Inc()
	default:
		importRuns.WithLabelValues(k, "ok").Inc()
	}

	if res == nil {
		return
	}
	importRows.WithLabelValues(k, "processed").Add(float64(res.Processed))
	importRows.WithLabelValues(k, "skipped").Add(float64(res.Skipped))
	importRows.WithLabelValues(k, "failed").Add(float64(len(res.Errors)))
}
