package phpserialize

import (
	"io"

	"github.com/VictoriaMetrics/metrics"
)

var (
	deserializeTotal  = metrics.NewCounter(`phpserialize_deserialize_total`)
	deserializeErrors = metrics.NewCounter(`phpserialize_deserialize_errors_total`)
	serializeTotal    = metrics.NewCounter(`phpserialize_serialize_total`)
	serializeErrors   = metrics.NewCounter(`phpserialize_serialize_errors_total`)

	fieldCacheHits   = metrics.NewCounter(`phpserialize_cache_requests_total{cache="field",result="hit"}`)
	fieldCacheMisses = metrics.NewCounter(`phpserialize_cache_requests_total{cache="field",result="miss"}`)
	typeCacheHits    = metrics.NewCounter(`phpserialize_cache_requests_total{cache="type",result="hit"}`)
	typeCacheMisses  = metrics.NewCounter(`phpserialize_cache_requests_total{cache="type",result="miss"}`)
)

// WriteMetrics writes the codec counters in Prometheus text format.
func WriteMetrics(w io.Writer) {
	metrics.WritePrometheus(w, false)
}

func countDecode(err error) {
	deserializeTotal.Inc()
	if err != nil {
		deserializeErrors.Inc()
	}
}

func countEncode(err error) {
	serializeTotal.Inc()
	if err != nil {
		serializeErrors.Inc()
	}
}
