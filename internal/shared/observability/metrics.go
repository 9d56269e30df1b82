package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	DefinitionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "solnav_definition_seconds",
		Help:    "Time spent resolving a definition query.",
		Buckets: prometheus.DefBuckets,
	})

	DefinitionResults = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "solnav_definition_results",
		Help:    "Number of locations returned per definition query.",
		Buckets: []float64{0, 1, 2, 3, 5, 10},
	})

	ModuleLoads = promauto.NewCounter(prometheus.CounterOpts{
		Name: "solnav_module_loads_total",
		Help: "Total number of modules drawn into definition queries.",
	})

	ParsingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "solnav_parsing_seconds",
		Help:    "Time spent parsing a source file.",
		Buckets: prometheus.DefBuckets,
	})

	ParseFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "solnav_parse_failures_total",
		Help: "Parse outcomes that were not clean, by recovery result.",
	}, []string{"recovered"})

	LintRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "solnav_lint_runs_total",
		Help: "Total number of external linter invocations by outcome.",
	}, []string{"outcome"})

	LintDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "solnav_lint_seconds",
		Help:    "Time spent running the external linter on one file.",
		Buckets: prometheus.DefBuckets,
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "solnav_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	OpenDocuments = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "solnav_open_documents",
		Help: "Current number of editor-owned document overlays.",
	})
)
