package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/audionode/internal/api/models"
	"github.com/smazurov/audionode/internal/source"
	"github.com/smazurov/audionode/internal/sources"
)

// SourceNameInput is the path parameter shared by per-source endpoints
type SourceNameInput struct {
	Name string `path:"name" example:"studio-mic" doc:"Source name"`
}

// registerSourceRoutes registers all source-related endpoints
func (s *Server) registerSourceRoutes() {
	// List configured sources
	huma.Register(s.api, huma.Operation{
		OperationID: "list-sources",
		Method:      http.MethodGet,
		Path:        "/api/sources",
		Summary:     "List Sources",
		Description: "Get all configured capture sources with their runtime status",
		Tags:        []string{"sources"},
		Errors:      []int{401, 500},
		Security:    withAuth(),
	}, func(ctx context.Context, input *struct{}) (*models.SourceListResponse, error) {
		infos := s.sources.List()

		apiSources := make([]models.SourceData, len(infos))
		for i, info := range infos {
			apiSources[i] = domainToAPISource(info)
		}

		return &models.SourceListResponse{
			Body: models.SourceListData{
				Sources: apiSources,
				Count:   len(apiSources),
			},
		}, nil
	})

	// Create new source
	huma.Register(s.api, huma.Operation{
		OperationID: "create-source",
		Method:      http.MethodPost,
		Path:        "/api/sources",
		Summary:     "Create Source",
		Description: "Configure a new capture source and persist it",
		Tags:        []string{"sources"},
		Errors:      []int{400, 401, 409, 500},
		Security:    withAuth(),
	}, func(ctx context.Context, input *models.SourceRequest) (*models.SourceResponse, error) {
		driver := input.Body.Driver
		if driver == "" {
			driver = "alsa_capture"
		}

		info, err := s.sources.Create(sources.SourceConfig{
			Name:   input.Body.Name,
			Driver: driver,
			Settings: source.Settings{
				Device:    input.Body.DeviceID,
				ForceMono: input.Body.ForceMono,
			},
			Destination: input.Body.Destination,
			Autostart:   input.Body.Autostart,
		})
		if err != nil {
			return nil, mapSourceError(err)
		}

		return &models.SourceResponse{Body: domainToAPISource(info)}, nil
	})

	// Get specific source
	huma.Register(s.api, huma.Operation{
		OperationID: "get-source",
		Method:      http.MethodGet,
		Path:        "/api/sources/{name}",
		Summary:     "Get Source",
		Description: "Get configuration and runtime status of one source",
		Tags:        []string{"sources"},
		Errors:      []int{401, 404, 500},
		Security:    withAuth(),
	}, func(ctx context.Context, input *SourceNameInput) (*models.SourceResponse, error) {
		info, err := s.sources.Get(input.Name)
		if err != nil {
			return nil, mapSourceError(err)
		}

		return &models.SourceResponse{Body: domainToAPISource(info)}, nil
	})

	// Update source
	huma.Register(s.api, huma.Operation{
		OperationID: "update-source",
		Method:      http.MethodPatch,
		Path:        "/api/sources/{name}",
		Summary:     "Update Source",
		Description: "Apply a partial configuration change. A running source is reconfigured in place.",
		Tags:        []string{"sources"},
		Errors:      []int{400, 401, 404, 500},
		Security:    withAuth(),
	}, func(ctx context.Context, input *struct {
		SourceNameInput
		Body models.SourceUpdateData
	}) (*models.SourceResponse, error) {
		params := sources.UpdateParams{
			Destination: input.Body.Destination,
			Autostart:   input.Body.Autostart,
		}

		// Device and mono flags live in the driver settings; merge the
		// partial update over what is currently configured.
		if input.Body.DeviceID != nil || input.Body.ForceMono != nil {
			current, err := s.sources.Get(input.Name)
			if err != nil {
				return nil, mapSourceError(err)
			}
			settings := current.Settings
			if input.Body.DeviceID != nil {
				settings.Device = *input.Body.DeviceID
			}
			if input.Body.ForceMono != nil {
				settings.ForceMono = *input.Body.ForceMono
			}
			params.Settings = &settings
		}

		info, err := s.sources.Update(input.Name, params)
		if err != nil {
			return nil, mapSourceError(err)
		}

		return &models.SourceResponse{Body: domainToAPISource(info)}, nil
	})

	// Delete source
	huma.Register(s.api, huma.Operation{
		OperationID: "delete-source",
		Method:      http.MethodDelete,
		Path:        "/api/sources/{name}",
		Summary:     "Delete Source",
		Description: "Stop a source if running and remove its configuration",
		Tags:        []string{"sources"},
		Errors:      []int{401, 404, 500},
		Security:    withAuth(),
	}, func(ctx context.Context, input *SourceNameInput) (*struct{}, error) {
		if err := s.sources.Delete(input.Name); err != nil {
			return nil, mapSourceError(err)
		}

		return &struct{}{}, nil
	})

	// Start source
	huma.Register(s.api, huma.Operation{
		OperationID: "start-source",
		Method:      http.MethodPost,
		Path:        "/api/sources/{name}/start",
		Summary:     "Start Source",
		Description: "Open the capture device and begin delivering audio. Starting a running source is a no-op.",
		Tags:        []string{"sources"},
		Errors:      []int{400, 401, 404, 500},
		Security:    withAuth(),
	}, func(ctx context.Context, input *SourceNameInput) (*models.SourceResponse, error) {
		if err := s.sources.Start(input.Name); err != nil {
			return nil, mapSourceError(err)
		}

		info, err := s.sources.Get(input.Name)
		if err != nil {
			return nil, mapSourceError(err)
		}

		return &models.SourceResponse{Body: domainToAPISource(info)}, nil
	})

	// Stop source
	huma.Register(s.api, huma.Operation{
		OperationID: "stop-source",
		Method:      http.MethodPost,
		Path:        "/api/sources/{name}/stop",
		Summary:     "Stop Source",
		Description: "Stop delivery and release the capture device. Stopping an idle source is a no-op.",
		Tags:        []string{"sources"},
		Errors:      []int{401, 404, 500},
		Security:    withAuth(),
	}, func(ctx context.Context, input *SourceNameInput) (*models.SourceResponse, error) {
		if err := s.sources.Stop(input.Name); err != nil {
			return nil, mapSourceError(err)
		}

		info, err := s.sources.Get(input.Name)
		if err != nil {
			return nil, mapSourceError(err)
		}

		return &models.SourceResponse{Body: domainToAPISource(info)}, nil
	})
}

// domainToAPISource converts a source service view to API source data
func domainToAPISource(info sources.Info) models.SourceData {
	return models.SourceData{
		Name:        info.Name,
		Driver:      info.Driver,
		DeviceID:    info.Settings.Device,
		ForceMono:   info.Settings.ForceMono,
		Destination: info.Destination,
		Autostart:   info.Autostart,
		State:       info.Status.State,
		Rate:        info.Status.Rate,
		Channels:    info.Status.Channels,
		LastError:   info.Status.LastError,
		Sinks:       info.Sinks,
		CreatedAt:   info.CreatedAt,
		UpdatedAt:   info.UpdatedAt,
	}
}

// mapSourceError maps domain errors to HTTP errors
func mapSourceError(err error) error {
	var srcErr *sources.SourceError
	if errors.As(err, &srcErr) {
		switch srcErr.Code {
		case sources.ErrCodeSourceNotFound:
			return huma.Error404NotFound(srcErr.Message, err)
		case sources.ErrCodeSourceExists:
			return huma.Error409Conflict(srcErr.Message, err)
		case sources.ErrCodeSourceInvalid:
			return huma.Error400BadRequest(srcErr.Message, err)
		case sources.ErrCodeDriverUnknown:
			return huma.Error400BadRequest(srcErr.Message, err)
		case sources.ErrCodeSourceStopped:
			return huma.Error409Conflict(srcErr.Message, err)
		case sources.ErrCodeStoreFailed, sources.ErrCodeSinkFailed:
			return huma.Error500InternalServerError(srcErr.Message, err)
		default:
			return huma.Error500InternalServerError("internal server error", err)
		}
	}
	return huma.Error500InternalServerError("internal server error", err)
}
