//go:build linux && (amd64 || arm64)

package alsa

import (
	"math"
	"unsafe"
)

// ioctl request numbers for 64-bit architectures. The struct size is encoded
// in bits 16..29 of each request, so these differ from the 32-bit values
// wherever a struct contains snd_pcm_uframes_t or a timespec.
const (
	SNDRV_CTL_IOCTL_CARD_INFO       = 0x81785501
	SNDRV_CTL_IOCTL_PCM_NEXT_DEVICE = 0x80045530
	SNDRV_CTL_IOCTL_PCM_INFO        = 0xc1205531

	SNDRV_PCM_IOCTL_INFO         = 0x81204101
	SNDRV_PCM_IOCTL_HW_REFINE    = 0xc2604110
	SNDRV_PCM_IOCTL_HW_PARAMS    = 0xc2604111
	SNDRV_PCM_IOCTL_SW_PARAMS    = 0xc0884113
	SNDRV_PCM_IOCTL_STATUS       = 0x80984120
	SNDRV_PCM_IOCTL_DELAY        = 0x80084121
	SNDRV_PCM_IOCTL_PREPARE      = 0x4140
	SNDRV_PCM_IOCTL_START        = 0x4142
	SNDRV_PCM_IOCTL_DROP         = 0x4143
	SNDRV_PCM_IOCTL_RESUME       = 0x4147
	SNDRV_PCM_IOCTL_READN_FRAMES = 0x80184153
)

// snd_ctl_card_info mirrors struct snd_ctl_card_info in sound/asound.h
type snd_ctl_card_info struct {
	card       int32     // card number
	pad        int32     // reserved
	id         [16]byte  // ID of card (user selectable)
	driver     [16]byte  // driver name
	name       [32]byte  // short name of soundcard
	longname   [80]byte  // name + info text about soundcard
	reserved   [16]byte  // reserved for future (was ID of mixer)
	mixername  [80]byte  // visual mixer identification
	components [128]byte // card components / fine identification
}

// snd_pcm_info mirrors struct snd_pcm_info in sound/asound.h
type snd_pcm_info struct {
	device           uint32   // device number
	subdevice        uint32   // subdevice number
	stream           int32    // direction
	card             int32    // card number
	id               [64]byte // ID of this PCM device
	name             [80]byte // name of this device
	subname          [32]byte // subdevice name
	dev_class        int32
	dev_subclass     int32
	subdevices_count uint32
	subdevices_avail uint32
	sync             [16]byte // hardware synchronization ID
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
	bits uint32 // openmin, openmax, integer, empty flags
}

// snd_pcm_hw_params mirrors struct snd_pcm_hw_params in sound/asound.h.
// fifo_size is snd_pcm_uframes_t, hence the 64-bit layout.
type snd_pcm_hw_params struct {
	flags     uint32
	masks     [SNDRV_PCM_HW_PARAM_LAST_MASK - SNDRV_PCM_HW_PARAM_FIRST_MASK + 1]snd_mask
	mres      [5]snd_mask // reserved masks
	intervals [SNDRV_PCM_HW_PARAM_LAST_INTERVAL - SNDRV_PCM_HW_PARAM_FIRST_INTERVAL + 1]snd_interval
	ires      [9]snd_interval // reserved intervals
	rmask     uint32          // requested masks
	cmask     uint32          // changed masks
	info      uint32          // hardware description flags
	msbits    uint32          // used most significant bits
	rate_num  uint32          // rate numerator
	rate_den  uint32          // rate denominator
	fifo_size uint64          // chip FIFO size in frames
	reserved  [64]byte
}

// snd_pcm_sw_params mirrors struct snd_pcm_sw_params in sound/asound.h.
// The snd_pcm_uframes_t fields are 8 bytes wide and 8-byte aligned here.
type snd_pcm_sw_params struct {
	tstamp_mode       int32
	period_step       uint32
	sleep_min         uint32
	_                 [4]byte // alignment before avail_min
	avail_min         uint64  // min avail frames for wakeup
	xfer_align        uint64  // obsolete, must be filled
	start_threshold   uint64
	stop_threshold    uint64
	silence_threshold uint64
	silence_size      uint64
	boundary          uint64 // pointer wrap point
	proto             uint32
	tstamp_type       uint32
	reserved          [56]byte
}

// snd_pcm_status mirrors struct snd_pcm_status in sound/asound.h.
// Timespecs are 16 bytes; the leading state field is padded to align them.
type snd_pcm_status struct {
	state                 int32 // stream state
	_                     [4]byte
	trigger_tstamp_sec    int64 // time when stream was started/stopped/paused
	trigger_tstamp_nsec   int64
	tstamp_sec            int64 // reference timestamp
	tstamp_nsec           int64
	appl_ptr              uint64
	hw_ptr                uint64
	delay                 int64 // current delay in frames
	avail                 uint64
	avail_max             uint64
	overrange             uint64 // count of ADC overrange detections
	suspended_state       int32  // state before suspend
	audio_tstamp_data     uint32
	audio_tstamp_sec      int64
	audio_tstamp_nsec     int64
	driver_tstamp_sec     int64
	driver_tstamp_nsec    int64
	audio_tstamp_accuracy uint32
	reserved              [20]byte
}

// snd_xfern mirrors struct snd_xfern in sound/asound.h, the argument of the
// non-interleaved read/write ioctls
type snd_xfern struct {
	result int64
	bufs   uintptr // pointer to an array of per-channel buffer pointers
	frames uint64
}

// snd_pcm_sframes_t is a signed frame count in the ioctl ABI
type snd_pcm_sframes_t = int64

// Compile-time layout checks against the kernel ABI sizes
var (
	_ [376]byte = [unsafe.Sizeof(snd_ctl_card_info{})]byte{}
	_ [288]byte = [unsafe.Sizeof(snd_pcm_info{})]byte{}
	_ [608]byte = [unsafe.Sizeof(snd_pcm_hw_params{})]byte{}
	_ [136]byte = [unsafe.Sizeof(snd_pcm_sw_params{})]byte{}
	_ [152]byte = [unsafe.Sizeof(snd_pcm_status{})]byte{}
	_ [24]byte  = [unsafe.Sizeof(snd_xfern{})]byte{}
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
	buffer := uint64(bufferSize)
	boundary := buffer
	for boundary*2 <= math.MaxInt64-buffer {
		boundary *= 2
	}
	return snd_pcm_sw_params{
		period_step:     1,
		avail_min:       uint64(periodSize),
		xfer_align:      1,
		start_threshold: 1,
		stop_threshold:  buffer,
		boundary:        boundary,
	}
}

func (x *snd_xfern) set(bufs unsafe.Pointer, frames int) {
	x.result = 0
	x.bufs = uintptr(bufs)
	x.frames = uint64(frames)
}

func (x *snd_xfern) resultFrames() int {
	return int(x.result)
}
