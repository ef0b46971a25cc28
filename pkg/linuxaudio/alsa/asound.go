//go:build linux

package alsa

// Hardware parameter indices (SNDRV_PCM_HW_PARAM_*). Masks precede
// intervals in struct snd_pcm_hw_params; indices 3..7 are reserved.
const (
	SNDRV_PCM_HW_PARAM_ACCESS    = 0
	SNDRV_PCM_HW_PARAM_FORMAT    = 1
	SNDRV_PCM_HW_PARAM_SUBFORMAT = 2

	SNDRV_PCM_HW_PARAM_FIRST_MASK = SNDRV_PCM_HW_PARAM_ACCESS
	SNDRV_PCM_HW_PARAM_LAST_MASK  = SNDRV_PCM_HW_PARAM_SUBFORMAT

	SNDRV_PCM_HW_PARAM_SAMPLE_BITS  = 8
	SNDRV_PCM_HW_PARAM_FRAME_BITS   = 9
	SNDRV_PCM_HW_PARAM_CHANNELS     = 10
	SNDRV_PCM_HW_PARAM_RATE         = 11
	SNDRV_PCM_HW_PARAM_PERIOD_TIME  = 12
	SNDRV_PCM_HW_PARAM_PERIOD_SIZE  = 13
	SNDRV_PCM_HW_PARAM_PERIOD_BYTES = 14
	SNDRV_PCM_HW_PARAM_PERIODS      = 15
	SNDRV_PCM_HW_PARAM_BUFFER_TIME  = 16
	SNDRV_PCM_HW_PARAM_BUFFER_SIZE  = 17
	SNDRV_PCM_HW_PARAM_BUFFER_BYTES = 18
	SNDRV_PCM_HW_PARAM_TICK_TIME    = 19

	SNDRV_PCM_HW_PARAM_FIRST_INTERVAL = SNDRV_PCM_HW_PARAM_SAMPLE_BITS
	SNDRV_PCM_HW_PARAM_LAST_INTERVAL  = SNDRV_PCM_HW_PARAM_TICK_TIME
)

// SNDRV_MASK_MAX is the bit width of a snd_mask
const SNDRV_MASK_MAX = 256

// snd_interval flag bits
const (
	sndIntervalOpenMin = 0x1
	sndIntervalOpenMax = 0x2
	sndIntervalInteger = 0x4
	sndIntervalEmpty   = 0x8
)
