//go:build linux

package alsa

import (
	"fmt"
	"runtime"
	"syscall"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// PCM is an open capture substream on one ALSA device. The descriptor is
// opened non-blocking, so reads return EAGAIN instead of sleeping in the
// kernel and Wait provides the bounded blocking.
type PCM struct {
	fd     int
	card   int
	device int
	path   string
}

// OpenCapture opens the capture substream of the given card and device
func OpenCapture(card, device int) (*PCM, error) {
	path := fmt.Sprintf("/dev/snd/pcmC%dD%dc", card, device)
	fd, err := syscall.Open(path, syscall.O_RDWR|syscall.O_NONBLOCK|syscall.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &PCM{fd: fd, card: card, device: device, path: path}, nil
}

// Path returns the device node this stream was opened on
func (p *PCM) Path() string {
	return p.path
}

// Close releases the device node. Safe to call more than once.
func (p *PCM) Close() error {
	if p.fd < 0 {
		return nil
	}
	fd := p.fd
	p.fd = -1
	if err := syscall.Close(fd); err != nil {
		return fmt.Errorf("close %s: %w", p.path, err)
	}
	return nil
}

// Apply commits a refined configuration space to the hardware, installs
// matching software parameters, and leaves the stream prepared. After Apply
// the params handle holds the exact values the kernel chose.
func (p *PCM) Apply(h *HwParams) error {
	if err := ioctl(uintptr(p.fd), SNDRV_PCM_IOCTL_HW_PARAMS, unsafe.Pointer(&h.raw)); err != nil {
		return fmt.Errorf("hw_params %s: %w", p.path, err)
	}

	sw := newSwParams(h.PeriodSize(), h.BufferSize())
	if err := ioctl(uintptr(p.fd), SNDRV_PCM_IOCTL_SW_PARAMS, unsafe.Pointer(&sw)); err != nil {
		return fmt.Errorf("sw_params %s: %w", p.path, err)
	}

	if err := ioctl(uintptr(p.fd), SNDRV_PCM_IOCTL_PREPARE, nil); err != nil {
		return fmt.Errorf("prepare %s: %w", p.path, err)
	}
	return nil
}

// Prepare resets the stream's ring buffer pointers, moving it out of an
// XRUN or SETUP state back to PREPARED
func (p *PCM) Prepare() error {
	if err := ioctl(uintptr(p.fd), SNDRV_PCM_IOCTL_PREPARE, nil); err != nil {
		return fmt.Errorf("prepare %s: %w", p.path, err)
	}
	return nil
}

// Start triggers capture on a prepared stream
func (p *PCM) Start() error {
	if err := ioctl(uintptr(p.fd), SNDRV_PCM_IOCTL_START, nil); err != nil {
		return fmt.Errorf("start %s: %w", p.path, err)
	}
	return nil
}

// Drop stops the stream immediately, discarding pending frames
func (p *PCM) Drop() error {
	if err := ioctl(uintptr(p.fd), SNDRV_PCM_IOCTL_DROP, nil); err != nil {
		return fmt.Errorf("drop %s: %w", p.path, err)
	}
	return nil
}

// Resume asks the driver to resume a suspended stream. Returns EAGAIN while
// the hardware is still waking up and ENXIO if the driver cannot resume at
// all; callers fall back to Prepare in that case.
func (p *PCM) Resume() error {
	if err := ioctl(uintptr(p.fd), SNDRV_PCM_IOCTL_RESUME, nil); err != nil {
		return fmt.Errorf("resume %s: %w", p.path, err)
	}
	return nil
}

// Wait blocks until at least avail_min frames are readable or the timeout
// elapses. Returns false with a nil error on timeout or interruption, both
// of which callers may simply retry.
func (p *PCM) Wait(timeout time.Duration) (bool, error) {
	fds := []unix.PollFd{{Fd: int32(p.fd), Events: unix.POLLIN}}
	n, err := unix.Poll(fds, int(timeout.Milliseconds()))
	if err != nil {
		if err == unix.EINTR {
			return false, nil
		}
		return false, fmt.Errorf("poll %s: %w", p.path, err)
	}
	if n == 0 {
		return false, nil
	}
	if fds[0].Revents&(unix.POLLERR|unix.POLLHUP|unix.POLLNVAL) != 0 {
		return false, fmt.Errorf("poll %s: device signalled error (revents 0x%x)", p.path, fds[0].Revents)
	}
	return fds[0].Revents&unix.POLLIN != 0, nil
}

// ReadNonInterleaved reads up to frames frames into one buffer per channel.
// It returns the number of frames actually read, which may be short when
// the ring buffer holds less than a full request. EAGAIN means no frames
// were available, EPIPE an overrun, ESTRPIPE a suspended device.
func (p *PCM) ReadNonInterleaved(planes [][]byte, frames int) (int, error) {
	if len(planes) == 0 {
		return 0, fmt.Errorf("readn %s: no channel planes", p.path)
	}

	ptrs := make([]unsafe.Pointer, len(planes))
	for i := range planes {
		ptrs[i] = unsafe.Pointer(&planes[i][0])
	}

	var xfer snd_xfern
	xfer.set(unsafe.Pointer(&ptrs[0]), frames)
	err := ioctl(uintptr(p.fd), SNDRV_PCM_IOCTL_READN_FRAMES, unsafe.Pointer(&xfer))
	runtime.KeepAlive(ptrs)
	runtime.KeepAlive(planes)
	if err != nil {
		return 0, fmt.Errorf("readn %s: %w", p.path, err)
	}
	return xfer.resultFrames(), nil
}

// Delay returns the capture latency in frames: how long ago the newest
// readable frame was sampled by the hardware
func (p *PCM) Delay() (int, error) {
	var delay snd_pcm_sframes_t
	if err := ioctl(uintptr(p.fd), SNDRV_PCM_IOCTL_DELAY, unsafe.Pointer(&delay)); err != nil {
		return 0, fmt.Errorf("delay %s: %w", p.path, err)
	}
	return int(delay), nil
}

// State reports the stream's kernel state (StateRunning, StateXRun, ...)
func (p *PCM) State() (int, error) {
	var status snd_pcm_status
	if err := ioctl(uintptr(p.fd), SNDRV_PCM_IOCTL_STATUS, unsafe.Pointer(&status)); err != nil {
		return StateOpen, fmt.Errorf("status %s: %w", p.path, err)
	}
	return int(status.state), nil
}
