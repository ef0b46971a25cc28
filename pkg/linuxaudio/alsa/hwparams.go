//go:build linux

package alsa

import (
	"fmt"
	"unsafe"
)

// HwParams is a handle on one device's hardware configuration space. Each
// setter narrows the space and re-refines it against the driver, mirroring
// alsa-lib's snd_pcm_hw_params_set_* calls. The kernel rejects a narrowing
// that empties the space with EINVAL, which surfaces here as an error
// naming the parameter.
type HwParams struct {
	pcm *PCM
	raw snd_pcm_hw_params
}

// HwParamsAny returns the device's full, unconstrained configuration space
func (p *PCM) HwParamsAny() (*HwParams, error) {
	h := &HwParams{pcm: p}
	h.raw.init()
	if err := h.refine("any"); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *HwParams) refine(param string) error {
	h.raw.rmask = 0xffffffff
	if err := ioctl(uintptr(h.pcm.fd), SNDRV_PCM_IOCTL_HW_REFINE, unsafe.Pointer(&h.raw)); err != nil {
		return fmt.Errorf("hw_refine %s on %s: %w", param, h.pcm.path, err)
	}
	return nil
}

// SetAccess restricts the space to a single access mode
func (h *HwParams) SetAccess(access int) error {
	h.raw.setMask(SNDRV_PCM_HW_PARAM_ACCESS, uint32(access))
	return h.refine("access")
}

// SetFormat restricts the space to a single sample format
func (h *HwParams) SetFormat(format int) error {
	h.raw.setMask(SNDRV_PCM_HW_PARAM_FORMAT, uint32(format))
	return h.refine(fmt.Sprintf("format %s", FormatName(format)))
}

// SetChannels restricts the space to an exact channel count
func (h *HwParams) SetChannels(channels int) error {
	h.raw.setInterval(SNDRV_PCM_HW_PARAM_CHANNELS, uint32(channels))
	return h.refine(fmt.Sprintf("channels %d", channels))
}

// SetRateNear restricts the rate to the supported value nearest the request
// and returns what was actually configured
func (h *HwParams) SetRateNear(rate int) (int, error) {
	return h.setIntervalNear(SNDRV_PCM_HW_PARAM_RATE, "rate", rate)
}

// BufferTimeMax returns the largest buffer duration the current space
// admits, in microseconds
func (h *HwParams) BufferTimeMax() int {
	_, max := h.raw.getInterval(SNDRV_PCM_HW_PARAM_BUFFER_TIME)
	return int(max)
}

// PeriodTimeMin returns the smallest period duration the current space
// admits, in microseconds
func (h *HwParams) PeriodTimeMin() int {
	min, _ := h.raw.getInterval(SNDRV_PCM_HW_PARAM_PERIOD_TIME)
	return int(min)
}

// SetBufferTimeNear restricts the buffer duration (µs) to the supported
// value nearest the request and returns what was actually configured
func (h *HwParams) SetBufferTimeNear(us int) (int, error) {
	return h.setIntervalNear(SNDRV_PCM_HW_PARAM_BUFFER_TIME, "buffer time", us)
}

// SetPeriodTimeNear restricts the period duration (µs) to the supported
// value nearest the request and returns what was actually configured
func (h *HwParams) SetPeriodTimeNear(us int) (int, error) {
	return h.setIntervalNear(SNDRV_PCM_HW_PARAM_PERIOD_TIME, "period time", us)
}

// PeriodSize returns the period size in frames. Exact once the space has
// been committed with Apply.
func (h *HwParams) PeriodSize() int {
	min, _ := h.raw.getInterval(SNDRV_PCM_HW_PARAM_PERIOD_SIZE)
	return int(min)
}

// BufferSize returns the buffer size in frames. Exact once the space has
// been committed with Apply.
func (h *HwParams) BufferSize() int {
	min, _ := h.raw.getInterval(SNDRV_PCM_HW_PARAM_BUFFER_SIZE)
	return int(min)
}

func (h *HwParams) setIntervalNear(param int, name string, want int) (int, error) {
	min, max := h.raw.getInterval(param)
	h.raw.setInterval(param, nearest(min, max, uint32(want)))
	if err := h.refine(fmt.Sprintf("%s %d", name, want)); err != nil {
		return 0, err
	}
	got, _ := h.raw.getInterval(param)
	return int(got), nil
}

// nearest clamps want into [min, max]
func nearest(min, max, want uint32) uint32 {
	if want < min {
		return min
	}
	if want > max {
		return max
	}
	return want
}
