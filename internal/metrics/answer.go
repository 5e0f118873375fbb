package metrics

import "github.com/prometheus/client_golang/prometheus"

// Question answering and ingestion metrics.
var (
	AnswersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "answers_total",
			Help:      "Answers served, by the resolver stage that produced them",
		},
		[]string{"stage"},
	)

	IngestChunksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_chunks_total",
			Help:      "Chunks processed by ingestion runs",
		},
		[]string{"status"}, // "stored" / "failed"
	)
)

var answerMetricsRegistered bool

// RegisterAnswerMetrics registers answer and ingest metrics. Must be called once from main.
func RegisterAnswerMetrics() {
	if answerMetricsRegistered {
		return
	}
	prometheus.MustRegister(AnswersTotal)
	prometheus.MustRegister(IngestChunksTotal)
	answerMetricsRegistered = true
}
