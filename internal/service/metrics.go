package service

import (
	"github.com/prometheus/client_golang/prometheus"
)

// IngestMetrics counts pipeline outcomes for the /metrics endpoint.
type IngestMetrics struct {
	documentsIngested prometheus.Counter
	ocrOutcomes       *prometheus.CounterVec
}

// NewIngestMetrics registers the ingest pipeline counters.
func NewIngestMetrics(reg prometheus.Registerer) (*IngestMetrics, error) {
	m := &IngestMetrics{
		documentsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "documents_ingested_total",
			Help: "Total number of documents stored by the ingest pipeline.",
		}),
		ocrOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ocr_jobs_total",
				Help: "Total number of finished OCR jobs by engine and status.",
			},
			[]string{"engine", "status"},
		),
	}
	if err := reg.Register(m.documentsIngested); err != nil {
		return nil, err
	}
	if err := reg.Register(m.ocrOutcomes); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *IngestMetrics) recordIngested() {
	if m != nil {
		m.documentsIngested.Inc()
	}
}

func (m *IngestMetrics) recordOCR(engineID string, status string) {
	if m != nil {
		m.ocrOutcomes.WithLabelValues(engineID, status).Inc()
	}
}
