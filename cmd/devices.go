package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/smazurov/audionode/internal/devices"
	"github.com/smazurov/audionode/internal/logging"
)

// CreateDevicesCmd creates the devices command.
func CreateDevicesCmd() *cobra.Command {
	var logJSON bool

	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List available capture devices",
		Long: `Enumerates ALSA capture devices and prints their selectors, labels and ` +
			`negotiable capabilities. The "default" selector always resolves to the first device.`,
		Run: func(_ *cobra.Command, _ []string) {
			loggingConfig := logging.Config{
				Level:  "warn",
				Format: "text",
			}
			if logJSON {
				loggingConfig.Format = "json"
			}
			logging.Initialize(loggingConfig)
			logger := logging.GetLogger("devices")

			detector := devices.NewDetector()
			devs, err := detector.ListDevices()
			if err != nil {
				logger.Error("Device enumeration failed", "error", err)
				os.Exit(1)
			}

			for _, d := range devices.Selectable(devs) {
				fmt.Printf("%-12s %s\n", d.Selector, d.Label)
				caps := d.Capabilities
				if len(caps.Rates) > 0 {
					fmt.Printf("             rates: %s\n", joinInts(caps.Rates))
				}
				if caps.MaxChannels > 0 {
					fmt.Printf("             channels: %d-%d\n", caps.MinChannels, caps.MaxChannels)
				}
				if len(caps.Formats) > 0 {
					fmt.Printf("             formats: %s\n", strings.Join(caps.Formats, ", "))
				}
			}
		},
	}

	cmd.Flags().BoolVar(&logJSON, "log-json", false, "Log in JSON format")

	return cmd
}

func joinInts(vals []int) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return strings.Join(parts, ", ")
}
