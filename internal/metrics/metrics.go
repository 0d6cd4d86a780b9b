// Package metrics exposes Prometheus counters for the ranking workflow.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DocumentsProcessed counts result documents by outcome
	// (merged, replaced, unparseable).
	DocumentsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rankcli_documents_processed_total",
		Help: "Result documents processed, by outcome.",
	}, []string{"outcome"})

	// RostersLoaded counts roster uploads that passed validation.
	RostersLoaded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rankcli_rosters_loaded_total",
		Help: "Roster files loaded successfully.",
	})

	// RankingsComputed counts successful ranking runs.
	RankingsComputed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rankcli_rankings_computed_total",
		Help: "Ranking computations completed.",
	})

	// ExportsGenerated counts export files written, by format.
	ExportsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rankcli_exports_generated_total",
		Help: "Export files generated, by format.",
	}, []string{"format"})
)
