//go:build linux

// Package alsa provides pure Go bindings to the ALSA (Advanced Linux Sound
// Architecture) kernel interface for capture device enumeration, hardware
// parameter negotiation, and PCM capture I/O.
//
// This package does not use cgo, enabling simple cross-compilation for
// different Linux architectures (amd64, arm64, arm). It talks to the kernel
// directly through /dev/snd; alsa-lib userspace plugins ("plug", "dmix",
// "default") are not available at this level.
//
// # Device Enumeration
//
// Use ListDevices to discover all ALSA audio capture devices:
//
//	devices, err := alsa.ListDevices()
//	for _, dev := range devices {
//	    fmt.Printf("%s: %s (%s)\n", dev.ALSADevice, dev.DeviceName, dev.CardName)
//	    fmt.Printf("  Rates: %v\n", dev.SupportedRates)
//	    fmt.Printf("  Channels: %d-%d\n", dev.MinChannels, dev.MaxChannels)
//	}
//
// # Capture
//
// Open a capture substream, negotiate hardware parameters, and read
// non-interleaved periods:
//
//	pcm, err := alsa.OpenCapture(0, 0)
//	hw, err := pcm.HwParamsAny()
//	hw.SetAccess(alsa.AccessRWNonInterleaved)
//	hw.SetFormat(alsa.FormatS16LE)
//	hw.SetChannels(2)
//	rate, err := hw.SetRateNear(48000)
//	err = pcm.Apply(hw)
//	err = pcm.Start()
//	n, err := pcm.ReadNonInterleaved(planes, hw.PeriodSize())
package alsa
