package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopassist_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shopassist_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	TurnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopassist_dialogue_turns_total",
			Help: "Total number of dialogue turns handled, by final intent.",
		},
		[]string{"intent"},
	)

	TurnDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "shopassist_dialogue_turn_duration_seconds",
			Help:    "Dialogue turn latency in seconds.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
		},
	)

	IntentClassificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopassist_intent_classifications_total",
			Help: "Intent classifications by intent and source (llm, rules or context).",
		},
		[]string{"intent", "source"},
	)

	ClassifierFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopassist_classifier_fallbacks_total",
			Help: "Rule-based fallbacks taken by the intent classifier, by reason.",
		},
		[]string{"reason"},
	)

	CompletionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shopassist_completion_duration_seconds",
			Help:    "Completion provider call latency in seconds.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 16},
		},
		[]string{"operation", "status"},
	)

	SlotQuestionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopassist_slot_questions_total",
			Help: "Slot-filling follow-up questions asked, by missing slot.",
		},
		[]string{"slot"},
	)

	CartActionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopassist_cart_actions_total",
			Help: "Cart actions dispatched by the assistant, by action and outcome.",
		},
		[]string{"action", "outcome"},
	)

	PersistenceFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopassist_persistence_failures_total",
			Help: "Failed writes to the context or history store.",
		},
		[]string{"store"},
	)

	XMPPMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopassist_xmpp_messages_total",
			Help: "XMPP chat messages processed, by direction.",
		},
		[]string{"direction"},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		TurnsTotal,
		TurnDuration,
		IntentClassificationsTotal,
		ClassifierFallbacksTotal,
		CompletionDuration,
		SlotQuestionsTotal,
		CartActionsTotal,
		PersistenceFailuresTotal,
		XMPPMessagesTotal,
	)
}
