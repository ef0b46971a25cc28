package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/audionode/internal/api/models"
	"github.com/smazurov/audionode/internal/devices"
)

// GetDevicesData enumerates the capture devices present on this host
func GetDevicesData() (models.AudioDevicesData, error) {
	detector := devices.NewDetector()
	devs, err := detector.ListDevices()
	if err != nil {
		return models.AudioDevicesData{}, err
	}

	// Convert devices.AudioDevice to our API AudioDevice
	apiDevices := make([]models.AudioDevice, len(devs))
	for i, dev := range devs {
		apiDevices[i] = models.AudioDevice{
			Selector:         dev.Selector,
			Label:            dev.Label,
			Card:             dev.Card,
			Device:           dev.Device,
			SupportedRates:   dev.Capabilities.Rates,
			MinChannels:      dev.Capabilities.MinChannels,
			MaxChannels:      dev.Capabilities.MaxChannels,
			SupportedFormats: dev.Capabilities.Formats,
		}
	}

	return models.AudioDevicesData{
		Devices: apiDevices,
		Count:   len(apiDevices),
	}, nil
}

// registerDeviceRoutes registers all device-related endpoints
func (s *Server) registerDeviceRoutes() {
	// List all capture devices
	huma.Register(s.api, huma.Operation{
		OperationID: "list-devices",
		Method:      http.MethodGet,
		Path:        "/api/devices",
		Summary:     "List Devices",
		Description: "List all available audio capture devices with their capabilities including supported " +
			"sample rates, formats, and channel configurations",
		Tags:     []string{"devices"},
		Security: withAuth(),
		Errors:   []int{401, 500},
	}, func(_ context.Context, _ *struct{}) (*models.AudioDevicesResponse, error) {
		data, err := GetDevicesData()
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to enumerate capture devices", err)
		}

		return &models.AudioDevicesResponse{Body: data}, nil
	})
}
