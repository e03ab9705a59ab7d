package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	NameDocumentResolutions = "document_resolutions"
	NameDocumentFetches     = "document_fetches"
	NameCachedBytes         = "cached_bytes"
	LabelOutcome            = "outcome"
)

const (
	OutcomeHit         = "hit"
	OutcomeMiss        = "miss"
	OutcomeUnavailable = "unavailable"
	OutcomeSucceeded   = "succeeded"
	OutcomeFailed      = "failed"
)

var DocumentResolutions = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name:      NameDocumentResolutions,
		Help:      "Document resolutions by outcome",
		Namespace: Namespace,
	},
	[]string{LabelOutcome},
)

var DocumentFetches = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name:      NameDocumentFetches,
		Help:      "Remote document fetches by outcome",
		Namespace: Namespace,
	},
	[]string{LabelOutcome},
)

var CachedBytes = promauto.NewCounter(
	prometheus.CounterOpts{
		Name:      NameCachedBytes,
		Help:      "Total bytes written to the document cache",
		Namespace: Namespace,
	},
)
