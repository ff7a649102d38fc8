package tokenization

import "github.com/prometheus/client_golang/prometheus"

// NewInputLengthHistogram builds the histogram fed by Config.InputLength
// and registers it when reg is non-nil. One observation is recorded per
// validated encode request.
func NewInputLengthHistogram(reg prometheus.Registerer) prometheus.Histogram {
	h := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "te_request_input_length",
		Help:    "Token count of validated encode requests.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 16),
	})
	if reg != nil {
		reg.MustRegister(h)
	}
	return h
}
