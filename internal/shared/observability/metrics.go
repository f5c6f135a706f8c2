package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	NotebooksProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "juparc_notebooks_processed_total",
		Help: "Total number of notebooks processed, by load status.",
	}, []string{"status"})

	NotebookDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "juparc_notebook_seconds",
		Help:    "Time spent loading and analyzing one notebook.",
		Buckets: prometheus.DefBuckets,
	})

	CellsParsed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "juparc_cells_parsed_total",
		Help: "Total number of code cells handed to the Python parser.",
	})

	CellParseErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "juparc_cell_parse_errors_total",
		Help: "Total number of code cells that failed to parse.",
	})

	ParsingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "juparc_parsing_seconds",
		Help:    "Time spent parsing and visiting a code cell.",
		Buckets: prometheus.DefBuckets,
	})

	LocalityListingCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "juparc_locality_listing_cache_total",
		Help: "Directory listing cache lookups by result (hit, miss).",
	}, []string{"result"})

	BatchInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "juparc_batch_in_flight",
		Help: "Current number of notebooks being processed by the batch driver.",
	})

	StoreOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "juparc_store_operations_total",
		Help: "Total number of store operations by operation and result (ok, error).",
	}, []string{"operation", "result"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "juparc_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})
)
