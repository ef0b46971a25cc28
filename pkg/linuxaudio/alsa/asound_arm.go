//go:build linux && arm && !arm64

package alsa

import (
	"math"
	"unsafe"
)

// ioctl request numbers for 32-bit arm. snd_pcm_uframes_t and timespec are
// 4 bytes wide here, so every request whose struct contains them encodes a
// smaller size than its 64-bit counterpart.
const (
	SNDRV_CTL_IOCTL_CARD_INFO       = 0x81785501
	SNDRV_CTL_IOCTL_PCM_NEXT_DEVICE = 0x80045530
	SNDRV_CTL_IOCTL_PCM_INFO        = 0xc1205531

	SNDRV_PCM_IOCTL_INFO         = 0x81204101
	SNDRV_PCM_IOCTL_HW_REFINE    = 0xc25c4110 // 604-byte snd_pcm_hw_params
	SNDRV_PCM_IOCTL_HW_PARAMS    = 0xc25c4111
	SNDRV_PCM_IOCTL_SW_PARAMS    = 0xc0684113 // 104-byte snd_pcm_sw_params
	SNDRV_PCM_IOCTL_STATUS       = 0x806c4120 // 108-byte snd_pcm_status
	SNDRV_PCM_IOCTL_DELAY        = 0x80044121 // 4-byte snd_pcm_sframes_t
	SNDRV_PCM_IOCTL_PREPARE      = 0x4140
	SNDRV_PCM_IOCTL_START        = 0x4142
	SNDRV_PCM_IOCTL_DROP         = 0x4143
	SNDRV_PCM_IOCTL_RESUME       = 0x4147
	SNDRV_PCM_IOCTL_READN_FRAMES = 0x800c4153 // 12-byte snd_xfern
)

// snd_ctl_card_info mirrors struct snd_ctl_card_info in sound/asound.h
type snd_ctl_card_info struct {
	card       int32
	pad        int32
	id         [16]byte
	driver     [16]byte
	name       [32]byte
	longname   [80]byte
	reserved   [16]byte
	mixername  [80]byte
	components [128]byte
}

// snd_pcm_info mirrors struct snd_pcm_info in sound/asound.h
type snd_pcm_info struct {
	device           uint32
	subdevice        uint32
	stream           int32
	card             int32
	id               [64]byte
	name             [80]byte
	subname          [32]byte
	dev_class        int32
	dev_subclass     int32
	subdevices_count uint32
	subdevices_avail uint32
	sync             [16]byte
	reserved         [64]byte
}

// snd_mask is a 256-bit set used for access, format and subformat params
type snd_mask struct {
	bits [(SNDRV_MASK_MAX + 31) / 32]uint32
}

// snd_interval is a numeric range used for rate, channels, period and
// buffer params
type snd_interval struct {
	min  uint32
	max  uint32
	bits uint32
}

// snd_pcm_hw_params mirrors struct snd_pcm_hw_params; fifo_size is a
// 4-byte snd_pcm_uframes_t on arm
type snd_pcm_hw_params struct {
	flags     uint32
	masks     [SNDRV_PCM_HW_PARAM_LAST_MASK - SNDRV_PCM_HW_PARAM_FIRST_MASK + 1]snd_mask
	mres      [5]snd_mask
	intervals [SNDRV_PCM_HW_PARAM_LAST_INTERVAL - SNDRV_PCM_HW_PARAM_FIRST_INTERVAL + 1]snd_interval
	ires      [9]snd_interval
	rmask     uint32
	cmask     uint32
	info      uint32
	msbits    uint32
	rate_num  uint32
	rate_den  uint32
	fifo_size uint32
	reserved  [64]byte
}

// snd_pcm_sw_params mirrors struct snd_pcm_sw_params; the uframes fields
// are 4 bytes wide, so no alignment padding appears
type snd_pcm_sw_params struct {
	tstamp_mode       int32
	period_step       uint32
	sleep_min         uint32
	avail_min         uint32
	xfer_align        uint32
	start_threshold   uint32
	stop_threshold    uint32
	silence_threshold uint32
	silence_size      uint32
	boundary          uint32
	proto             uint32
	tstamp_type       uint32
	reserved          [56]byte
}

// snd_pcm_status mirrors struct snd_pcm_status with 32-bit timespecs
type snd_pcm_status struct {
	state                 int32
	trigger_tstamp_sec    int32
	trigger_tstamp_nsec   int32
	tstamp_sec            int32
	tstamp_nsec           int32
	appl_ptr              uint32
	hw_ptr                uint32
	delay                 int32
	avail                 uint32
	avail_max             uint32
	overrange             uint32
	suspended_state       int32
	audio_tstamp_data     uint32
	audio_tstamp_sec      int32
	audio_tstamp_nsec     int32
	driver_tstamp_sec     int32
	driver_tstamp_nsec    int32
	audio_tstamp_accuracy uint32
	reserved              [36]byte
}

// snd_xfern mirrors struct snd_xfern, the argument of the non-interleaved
// read/write ioctls
type snd_xfern struct {
	result int32
	bufs   uintptr
	frames uint32
}

// snd_pcm_sframes_t is a signed frame count in the ioctl ABI
type snd_pcm_sframes_t = int32

// Compile-time layout checks against the kernel ABI sizes
var (
	_ [376]byte = [unsafe.Sizeof(snd_ctl_card_info{})]byte{}
	_ [288]byte = [unsafe.Sizeof(snd_pcm_info{})]byte{}
	_ [604]byte = [unsafe.Sizeof(snd_pcm_hw_params{})]byte{}
	_ [104]byte = [unsafe.Sizeof(snd_pcm_sw_params{})]byte{}
	_ [108]byte = [unsafe.Sizeof(snd_pcm_status{})]byte{}
	_ [12]byte  = [unsafe.Sizeof(snd_xfern{})]byte{}
)

// init opens the full configuration space: every mask bit set, every
// interval unbounded, all params requested for refinement
func (p *snd_pcm_hw_params) init() {
	*p = snd_pcm_hw_params{}
	for i := range p.masks {
		for j := range p.masks[i].bits {
			p.masks[i].bits[j] = 0xffffffff
		}
	}
	for i := range p.intervals {
		p.intervals[i].min = 0
		p.intervals[i].max = 0xffffffff
		p.intervals[i].bits = 0
	}
	p.rmask = 0xffffffff
	p.cmask = 0
	p.info = 0xffffffff
}

// setMask restricts a mask param to a single value
func (p *snd_pcm_hw_params) setMask(param int, bit uint32) {
	m := &p.masks[param-SNDRV_PCM_HW_PARAM_FIRST_MASK]
	for i := range m.bits {
		m.bits[i] = 0
	}
	m.bits[bit>>5] |= 1 << (bit & 31)
}

// checkMask reports whether a mask param still admits the given value
func (p *snd_pcm_hw_params) checkMask(param int, bit uint32) bool {
	m := &p.masks[param-SNDRV_PCM_HW_PARAM_FIRST_MASK]
	return m.bits[bit>>5]&(1<<(bit&31)) != 0
}

// getInterval returns the current bounds of an interval param
func (p *snd_pcm_hw_params) getInterval(param int) (min, max uint32) {
	iv := &p.intervals[param-SNDRV_PCM_HW_PARAM_FIRST_INTERVAL]
	return iv.min, iv.max
}

// setInterval restricts an interval param to a single integer value
func (p *snd_pcm_hw_params) setInterval(param int, val uint32) {
	iv := &p.intervals[param-SNDRV_PCM_HW_PARAM_FIRST_INTERVAL]
	iv.min = val
	iv.max = val
	iv.bits = sndIntervalInteger
}

// emptyInterval reports whether refinement has emptied an interval param
func (p *snd_pcm_hw_params) emptyInterval(param int) bool {
	iv := &p.intervals[param-SNDRV_PCM_HW_PARAM_FIRST_INTERVAL]
	return iv.bits&sndIntervalEmpty != 0 || iv.min > iv.max
}

// newSwParams builds capture software parameters: wake the reader once a
// full period is available, start only on an explicit trigger, and flag an
// overrun once the ring buffer fills
func newSwParams(periodSize, bufferSize int) snd_pcm_sw_params {
	buffer := uint32(bufferSize)
	boundary := buffer
	for boundary*2 <= math.MaxInt32-buffer {
		boundary *= 2
	}
	return snd_pcm_sw_params{
		period_step:     1,
		avail_min:       uint32(periodSize),
		xfer_align:      1,
		start_threshold: 1,
		stop_threshold:  buffer,
		boundary:        boundary,
	}
}

func (x *snd_xfern) set(bufs unsafe.Pointer, frames int) {
	x.result = 0
	x.bufs = uintptr(bufs)
	x.frames = uint32(frames)
}

func (x *snd_xfern) resultFrames() int {
	return int(x.result)
}
