package models

import (
	"time"

	"github.com/smazurov/audionode/internal/source"
)

// Health check models
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Service status"`
	Message string `json:"message" example:"API is healthy" doc:"Status message"`
}

type HealthResponse struct {
	Body HealthData
}

// Source models
type SourceData struct {
	Name        string    `json:"name" example:"studio-mic" doc:"Unique source name"`
	Driver      string    `json:"driver" example:"alsa_capture" doc:"Driver that owns the source"`
	DeviceID    string    `json:"device_id" example:"hw:1,0" doc:"Capture device selector"`
	ForceMono   bool      `json:"force_mono" example:"false" doc:"Whether mono capture is forced"`
	Destination string    `json:"rtp_destination,omitempty" example:"239.1.1.5:5004" doc:"RTP destination (host:port), empty when no network sink"`
	Autostart   bool      `json:"autostart" example:"true" doc:"Whether the source starts with the service"`
	State       string    `json:"state" example:"running" doc:"Lifecycle state: idle, running or error"`
	Rate        int       `json:"rate,omitempty" example:"48000" doc:"Negotiated sample rate in Hz"`
	Channels    int       `json:"channels,omitempty" example:"2" doc:"Negotiated channel count"`
	LastError   string    `json:"last_error,omitempty" doc:"Most recent capture error, if any"`
	Sinks       []string  `json:"sinks,omitempty" example:"[\"meter\",\"rtp\"]" doc:"Attached pipeline sinks"`
	CreatedAt   time.Time `json:"created_at,omitempty" doc:"When the source was created"`
	UpdatedAt   time.Time `json:"updated_at,omitempty" doc:"When the source was last modified"`
}

type SourceListData struct {
	Sources []SourceData `json:"sources" doc:"List of configured sources"`
	Count   int          `json:"count" example:"2" doc:"Number of configured sources"`
}

type SourceListResponse struct {
	Body SourceListData
}

type SourceRequestData struct {
	Name        string `json:"name" pattern:"^[a-zA-Z0-9_-]+$" minLength:"1" maxLength:"50" example:"studio-mic" doc:"User-defined source name (alphanumeric, dashes, underscores only)"`
	Driver      string `json:"driver,omitempty" example:"alsa_capture" doc:"Capture driver name, defaults to alsa_capture"`
	DeviceID    string `json:"device_id,omitempty" example:"hw:1,0" doc:"Device selector (default or hw:CARD,DEV)"`
	ForceMono   bool   `json:"force_mono,omitempty" example:"false" doc:"Capture a single channel instead of stereo"`
	Destination string `json:"rtp_destination,omitempty" example:"239.1.1.5:5004" doc:"Optional RTP destination (host:port)"`
	Autostart   bool   `json:"autostart,omitempty" example:"true" doc:"Start the source with the service"`
}

type SourceRequest struct {
	Body SourceRequestData
}

// SourceUpdateData carries a partial update. Absent fields keep their
// current value.
type SourceUpdateData struct {
	DeviceID    *string `json:"device_id,omitempty" example:"hw:2,0" doc:"Device selector (default or hw:CARD,DEV)"`
	ForceMono   *bool   `json:"force_mono,omitempty" example:"true" doc:"Capture a single channel instead of stereo"`
	Destination *string `json:"rtp_destination,omitempty" example:"239.1.1.5:5004" doc:"RTP destination (host:port), empty string detaches the network sink"`
	Autostart   *bool   `json:"autostart,omitempty" example:"false" doc:"Start the source with the service"`
}

type SourceUpdateRequest struct {
	Body SourceUpdateData
}

type SourceResponse struct {
	Body SourceData
}

// Driver models
type DriverInfo struct {
	Name       string            `json:"name" example:"alsa_capture" doc:"Driver identifier used in source configuration"`
	Label      string            `json:"label" example:"ALSA Capture" doc:"Human-readable driver description"`
	Properties []source.Property `json:"properties,omitempty" doc:"Configurable fields with currently available options"`
}

type DriverListData struct {
	Drivers []DriverInfo `json:"drivers" doc:"Registered capture drivers"`
	Count   int          `json:"count" example:"1" doc:"Number of registered drivers"`
}

type DriverListResponse struct {
	Body DriverListData
}

// Version models
type VersionData struct {
	Version   string `json:"version" example:"dev" doc:"Application version"`
	GitCommit string `json:"git_commit" example:"abc1234" doc:"Git commit SHA"`
	BuildDate string `json:"build_date" example:"2024-12-15 14:30" doc:"Build timestamp"`
	BuildID   string `json:"build_id" example:"a1b2c3d4" doc:"Unique build identifier"`
	GoVersion string `json:"go_version" example:"go1.21.0" doc:"Go compiler version"`
	Compiler  string `json:"compiler" example:"gc" doc:"Compiler used"`
	Platform  string `json:"platform" example:"linux/amd64" doc:"Platform"`
}

type VersionResponse struct {
	Body VersionData
}
