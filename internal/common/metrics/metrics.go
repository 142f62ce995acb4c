// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MessagesHandled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatbot_messages_handled_total",
			Help: "Total number of inbound messages handled",
		},
		[]string{"intent_type"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "chatbot_stage_duration_seconds",
			Help: "Duration of each pipeline stage in seconds",
		},
		[]string{"stage"},
	)

	StageErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatbot_stage_errors_total",
			Help: "Total number of stage errors by error code",
		},
		[]string{"stage", "error_code"},
	)

	IntentResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatbot_intent_resolutions_total",
			Help: "Intent resolutions by path (ai or rules)",
		},
		[]string{"path"},
	)

	CatalogRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatbot_catalog_refreshes_total",
			Help: "Catalog cache refreshes by outcome",
		},
		[]string{"outcome"},
	)

	InvalidIdentifiersStripped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chatbot_invalid_identifiers_stripped_total",
			Help: "Product identifiers removed from generated responses",
		},
	)
)
