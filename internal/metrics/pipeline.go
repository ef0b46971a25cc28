package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sinkWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "audionode",
		Subsystem: "pipeline",
		Name:      "sink_writes_total",
		Help:      "Buffers accepted by a sink",
	}, []string{"source", "sink"})

	sinkDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "audionode",
		Subsystem: "pipeline",
		Name:      "sink_drops_total",
		Help:      "Buffers dropped because a sink queue was full",
	}, []string{"source", "sink"})

	sinkErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "audionode",
		Subsystem: "pipeline",
		Name:      "sink_errors_total",
		Help:      "Write errors reported by a sink",
	}, []string{"source", "sink"})

	levelPeak = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "audionode",
		Subsystem: "audio",
		Name:      "level_peak",
		Help:      "Peak amplitude of the most recent measurement window, 0..1",
	}, []string{"source"})

	levelRMS = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "audionode",
		Subsystem: "audio",
		Name:      "level_rms",
		Help:      "RMS amplitude of the most recent measurement window, 0..1",
	}, []string{"source"})
)

// IncrementSinkWrites counts a buffer accepted by a sink.
func IncrementSinkWrites(source, sink string) {
	sinkWrites.WithLabelValues(source, sink).Inc()
}

// IncrementSinkDrops counts a buffer dropped on a full sink queue.
func IncrementSinkDrops(source, sink string) {
	sinkDrops.WithLabelValues(source, sink).Inc()
}

// IncrementSinkErrors counts a sink write error.
func IncrementSinkErrors(source, sink string) {
	sinkErrors.WithLabelValues(source, sink).Inc()
}

// SetAudioLevel publishes the measured signal level for a source.
func SetAudioLevel(source string, peak, rms float64) {
	levelPeak.WithLabelValues(source).Set(peak)
	levelRMS.WithLabelValues(source).Set(rms)
}

// DeletePipelineMetrics removes all pipeline metrics for a source.
func DeletePipelineMetrics(source string) {
	match := prometheus.Labels{"source": source}
	sinkWrites.DeletePartialMatch(match)
	sinkDrops.DeletePartialMatch(match)
	sinkErrors.DeletePartialMatch(match)
	levelPeak.DeleteLabelValues(source)
	levelRMS.DeleteLabelValues(source)
}
