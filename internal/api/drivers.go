package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/audionode/internal/api/models"
	"github.com/smazurov/audionode/internal/source"
)

// registerDriverRoutes registers the capture driver discovery endpoint.
func (s *Server) registerDriverRoutes() {
	// Get registered capture drivers with their configurable properties
	huma.Register(s.api, huma.Operation{
		OperationID: "list-drivers",
		Method:      http.MethodGet,
		Path:        "/api/drivers",
		Summary:     "List Drivers",
		Description: "Get all registered capture drivers with their configurable properties, including currently available device options",
		Tags:        []string{"configuration"},
		Security:    withAuth(),
		Errors:      []int{401, 500},
	}, func(_ context.Context, _ *struct{}) (*models.DriverListResponse, error) {
		names := source.Drivers()

		drivers := make([]models.DriverInfo, 0, len(names))
		for _, name := range names {
			drv, ok := source.Lookup(name)
			if !ok {
				continue
			}
			drivers = append(drivers, models.DriverInfo{
				Name:       drv.Name(),
				Label:      drv.Label(),
				Properties: drv.Properties(),
			})
		}

		return &models.DriverListResponse{
			Body: models.DriverListData{
				Drivers: drivers,
				Count:   len(drivers),
			},
		}, nil
	})
}
