package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(entriesRecordedTotal, validationFailuresTotal)
}

var (
	entriesRecordedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "entries_recorded_total",
			Help: "Weight, discipline and calorie entries written to storage.",
		},
		[]string{"kind"}, // weight, discipline, calories
	)

	validationFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "validation_failures_total",
			Help: "User inputs rejected by validation, by field.",
		},
		[]string{"field"},
	)
)

func IncEntryRecorded(kind string) {
	entriesRecordedTotal.WithLabelValues(label(kind)).Inc()
}

func IncValidationFailure(field string) {
	validationFailuresTotal.WithLabelValues(label(field)).Inc()
}
