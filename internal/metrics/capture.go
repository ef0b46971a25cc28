// Package metrics provides Prometheus metrics for capture sessions and the
// audio pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	captureRate = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "audionode",
		Subsystem: "capture",
		Name:      "sample_rate",
		Help:      "Negotiated sample rate of the capture session",
	}, []string{"source"})

	captureChannels = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "audionode",
		Subsystem: "capture",
		Name:      "channels",
		Help:      "Negotiated channel count of the capture session",
	}, []string{"source"})

	captureRunning = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "audionode",
		Subsystem: "capture",
		Name:      "running",
		Help:      "Whether the capture loop is delivering audio (1) or not (0)",
	}, []string{"source"})

	captureBuffers = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "audionode",
		Subsystem: "capture",
		Name:      "buffers_total",
		Help:      "Most recent polled total of delivered buffers",
	}, []string{"source"})

	captureFrames = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "audionode",
		Subsystem: "capture",
		Name:      "frames_total",
		Help:      "Most recent polled total of delivered frames",
	}, []string{"source"})

	captureOverruns = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "audionode",
		Subsystem: "capture",
		Name:      "overruns_total",
		Help:      "Most recent polled total of ring buffer overruns",
	}, []string{"source"})

	captureSuspends = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "audionode",
		Subsystem: "capture",
		Name:      "suspends_total",
		Help:      "Most recent polled total of power management suspensions",
	}, []string{"source"})
)

// SetCaptureSession records the negotiated format of an active session.
func SetCaptureSession(source string, rate, channels int) {
	captureRate.WithLabelValues(source).Set(float64(rate))
	captureChannels.WithLabelValues(source).Set(float64(channels))
}

// SetCaptureRunning marks whether the capture loop is delivering audio.
func SetCaptureRunning(source string, running bool) {
	v := 0.0
	if running {
		v = 1.0
	}
	captureRunning.WithLabelValues(source).Set(v)
}

// SetCaptureStats publishes the polled loop counters for a source.
func SetCaptureStats(source string, buffers, frames, overruns, suspends uint64) {
	captureBuffers.WithLabelValues(source).Set(float64(buffers))
	captureFrames.WithLabelValues(source).Set(float64(frames))
	captureOverruns.WithLabelValues(source).Set(float64(overruns))
	captureSuspends.WithLabelValues(source).Set(float64(suspends))
}

// DeleteCaptureMetrics removes all capture metrics for a source.
func DeleteCaptureMetrics(source string) {
	captureRate.DeleteLabelValues(source)
	captureChannels.DeleteLabelValues(source)
	captureRunning.DeleteLabelValues(source)
	captureBuffers.DeleteLabelValues(source)
	captureFrames.DeleteLabelValues(source)
	captureOverruns.DeleteLabelValues(source)
	captureSuspends.DeleteLabelValues(source)
}
