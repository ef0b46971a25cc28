//go:build linux

package alsa

import (
	"fmt"
	"syscall"
	"unsafe"
)

// maxCards matches the kernel's SNDRV_CARDS limit
const maxCards = 32

// ListDevices enumerates all ALSA capture devices by walking the control
// nodes under /dev/snd. Cards or devices that fail to probe are skipped so
// a single misbehaving driver cannot hide the others. Card numbers may have
// gaps after hot removal, so every slot up to the kernel limit is checked.
func ListDevices() ([]Device, error) {
	var devices []Device

	for card := 0; card < maxCards; card++ {
		ctlPath := fmt.Sprintf("/dev/snd/controlC%d", card)
		fd, err := syscall.Open(ctlPath, syscall.O_RDONLY|syscall.O_CLOEXEC, 0)
		if err != nil {
			continue
		}
		devices = append(devices, listCardCaptureDevices(card, fd)...)
		syscall.Close(fd)
	}

	return devices, nil
}

// listCardCaptureDevices walks one card's PCM devices and returns those
// with a capture substream
func listCardCaptureDevices(card, ctlFd int) []Device {
	var info snd_ctl_card_info
	if err := ioctl(uintptr(ctlFd), SNDRV_CTL_IOCTL_CARD_INFO, unsafe.Pointer(&info)); err != nil {
		return nil
	}
	cardID := cstr(info.id[:])
	cardName := cstr(info.name[:])

	var devices []Device
	dev := int32(-1)
	for {
		if err := ioctl(uintptr(ctlFd), SNDRV_CTL_IOCTL_PCM_NEXT_DEVICE, unsafe.Pointer(&dev)); err != nil || dev < 0 {
			break
		}

		var pcmInfo snd_pcm_info
		pcmInfo.device = uint32(dev)
		pcmInfo.stream = StreamCapture
		if err := ioctl(uintptr(ctlFd), SNDRV_CTL_IOCTL_PCM_INFO, unsafe.Pointer(&pcmInfo)); err != nil {
			// no capture substream on this device
			continue
		}

		d := Device{
			CardNumber:   card,
			CardID:       cardID,
			CardName:     cardName,
			DeviceNumber: int(dev),
			DeviceName:   cstr(pcmInfo.name[:]),
			ALSADevice:   FormatALSADevice(card, int(dev)),
		}
		queryCaptureCaps(&d)
		devices = append(devices, d)
	}

	return devices
}

// queryCaptureCaps fills capability ranges by refining the device's full
// configuration space under the access mode capture uses. Probe failures
// leave the descriptor without capability detail rather than hiding the
// device entirely.
func queryCaptureCaps(d *Device) {
	pcm, err := OpenCapture(d.CardNumber, d.DeviceNumber)
	if err != nil {
		return
	}
	defer pcm.Close()

	var params snd_pcm_hw_params
	params.init()
	params.setMask(SNDRV_PCM_HW_PARAM_ACCESS, AccessRWNonInterleaved)
	if err := ioctl(uintptr(pcm.fd), SNDRV_PCM_IOCTL_HW_REFINE, unsafe.Pointer(&params)); err != nil {
		return
	}

	chMin, chMax := params.getInterval(SNDRV_PCM_HW_PARAM_CHANNELS)
	d.MinChannels = int(chMin)
	d.MaxChannels = int(chMax)

	rateMin, rateMax := params.getInterval(SNDRV_PCM_HW_PARAM_RATE)
	for _, rate := range CommonSampleRates {
		if rate >= int(rateMin) && rate <= int(rateMax) {
			d.SupportedRates = append(d.SupportedRates, rate)
		}
	}

	for _, format := range CommonFormats {
		if params.checkMask(SNDRV_PCM_HW_PARAM_FORMAT, uint32(format)) {
			d.SupportedFormats = append(d.SupportedFormats, FormatName(format))
		}
	}

	btMin, btMax := params.getInterval(SNDRV_PCM_HW_PARAM_BUFFER_TIME)
	d.MinBufferTime = int(btMin)
	d.MaxBufferTime = int(btMax)

	ptMin, ptMax := params.getInterval(SNDRV_PCM_HW_PARAM_PERIOD_TIME)
	d.MinPeriodTime = int(ptMin)
	d.MaxPeriodTime = int(ptMax)
}
