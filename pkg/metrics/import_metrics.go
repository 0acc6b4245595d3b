package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ImportRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gamedesk",
		Subsystem: "import",
		Name:      "runs_total",
		Help:      "Import runs by source format and outcome.",
	}, []string{"format", "outcome"})

	ImportGamesWritten = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gamedesk",
		Subsystem: "import",
		Name:      "games_written_total",
		Help:      "Games successfully written by import runs.",
	})

	ImportValidationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gamedesk",
		Subsystem: "import",
		Name:      "validation_errors_total",
		Help:      "Validation findings produced by import runs, by severity.",
	}, []string{"severity"})

	ExportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gamedesk",
		Subsystem: "export",
		Name:      "requests_total",
		Help:      "Export requests by output format.",
	}, []string{"format"})
)
