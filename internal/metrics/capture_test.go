package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCaptureMetrics(t *testing.T) {
	source := "capture-test-source"

	// Set metrics
	SetCaptureSession(source, 48000, 2)
	SetCaptureRunning(source, true)
	SetCaptureStats(source, 120, 720000, 3, 1)

	// Verify values via prometheus testutil
	rateVal := testutil.ToFloat64(captureRate.WithLabelValues(source))
	if rateVal != 48000 {
		t.Errorf("captureRate = %v, want 48000", rateVal)
	}

	chVal := testutil.ToFloat64(captureChannels.WithLabelValues(source))
	if chVal != 2 {
		t.Errorf("captureChannels = %v, want 2", chVal)
	}

	runVal := testutil.ToFloat64(captureRunning.WithLabelValues(source))
	if runVal != 1 {
		t.Errorf("captureRunning = %v, want 1", runVal)
	}

	framesVal := testutil.ToFloat64(captureFrames.WithLabelValues(source))
	if framesVal != 720000 {
		t.Errorf("captureFrames = %v, want 720000", framesVal)
	}

	overrunsVal := testutil.ToFloat64(captureOverruns.WithLabelValues(source))
	if overrunsVal != 3 {
		t.Errorf("captureOverruns = %v, want 3", overrunsVal)
	}

	SetCaptureRunning(source, false)
	runVal = testutil.ToFloat64(captureRunning.WithLabelValues(source))
	if runVal != 0 {
		t.Errorf("captureRunning after stop = %v, want 0", runVal)
	}

	// Delete metrics
	DeleteCaptureMetrics(source)

	// Delete non-existent should not panic
	DeleteCaptureMetrics("non-existent-source")
}
