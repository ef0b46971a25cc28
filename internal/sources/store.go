// Package sources manages named capture sources: persistence, lifecycle
// and runtime observability.
package sources

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/smazurov/audionode/internal/source"
)

// SourceConfig is the persisted description of one capture source.
type SourceConfig struct {
	Name      string          `toml:"name" json:"name"`
	Driver    string          `toml:"driver" json:"driver"`
	Settings  source.Settings `toml:"settings" json:"settings"`
	Autostart bool            `toml:"autostart" json:"autostart"`

	// Destination enables the L16 network sink when set, as host:port.
	Destination string `toml:"rtp_destination,omitempty" json:"rtp_destination,omitempty"`

	// Metadata
	CreatedAt time.Time `toml:"created_at" json:"created_at"`
	UpdatedAt time.Time `toml:"updated_at" json:"updated_at"`
}

// sourcesFile is the on-disk layout of the sources configuration.
type sourcesFile struct {
	Version int                     `toml:"version" json:"version"`
	Sources map[string]SourceConfig `toml:"sources" json:"sources"`
}

// Store persists source configurations to a TOML file. It is not safe for
// concurrent use; the owning service serializes access.
type Store struct {
	configPath string
	config     *sourcesFile
}

// NewStore creates a TOML-backed source store.
func NewStore(configPath string) *Store {
	if configPath == "" {
		configPath = "sources.toml"
	}

	return &Store{
		configPath: configPath,
		config: &sourcesFile{
			Version: 1,
			Sources: make(map[string]SourceConfig),
		},
	}
}

// Path returns the configuration file location.
func (s *Store) Path() string {
	return s.configPath
}

// Load reads the configuration from file. A missing file is an empty
// configuration, not an error.
func (s *Store) Load() error {
	if _, err := os.Stat(s.configPath); os.IsNotExist(err) {
		return nil
	}

	data, err := os.ReadFile(s.configPath)
	if err != nil {
		return fmt.Errorf("failed to read sources config: %w", err)
	}

	if unmarshalErr := toml.Unmarshal(data, s.config); unmarshalErr != nil {
		return fmt.Errorf("failed to parse sources config: %w", unmarshalErr)
	}

	if s.config.Sources == nil {
		s.config.Sources = make(map[string]SourceConfig)
	}
	if s.config.Version == 0 {
		s.config.Version = 1
	}

	return nil
}

// Save writes the configuration to file.
func (s *Store) Save() error {
	dir := filepath.Dir(s.configPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(s.config)
	if err != nil {
		return fmt.Errorf("failed to marshal sources config: %w", err)
	}

	if writeErr := os.WriteFile(s.configPath, data, 0o644); writeErr != nil {
		return fmt.Errorf("failed to write sources config: %w", writeErr)
	}

	return nil
}

// Add validates and persists a new source configuration.
func (s *Store) Add(cfg SourceConfig) error {
	if cfg.Name == "" {
		return fmt.Errorf("source name cannot be empty")
	}
	if cfg.Driver == "" {
		return fmt.Errorf("source driver cannot be empty")
	}

	now := time.Now()
	if cfg.CreatedAt.IsZero() {
		cfg.CreatedAt = now
	}
	cfg.UpdatedAt = now

	s.config.Sources[cfg.Name] = cfg
	return s.Save()
}

// Update persists changes to an existing source, preserving its identity
// and creation time.
func (s *Store) Update(name string, cfg SourceConfig) error {
	existing, exists := s.config.Sources[name]
	if !exists {
		return fmt.Errorf("source %s not found", name)
	}

	cfg.Name = existing.Name
	cfg.CreatedAt = existing.CreatedAt
	cfg.UpdatedAt = time.Now()
	if cfg.Driver == "" {
		cfg.Driver = existing.Driver
	}

	s.config.Sources[name] = cfg
	return s.Save()
}

// Remove deletes a source from the configuration.
func (s *Store) Remove(name string) error {
	if _, exists := s.config.Sources[name]; !exists {
		return fmt.Errorf("source %s not found", name)
	}

	delete(s.config.Sources, name)
	return s.Save()
}

// Get retrieves a source by name.
func (s *Store) Get(name string) (SourceConfig, bool) {
	cfg, exists := s.config.Sources[name]
	return cfg, exists
}

// All returns all configured sources.
func (s *Store) All() map[string]SourceConfig {
	return s.config.Sources
}

// Replace swaps the in-memory configuration without saving. The watcher
// uses it after an external file edit.
func (s *Store) Replace(cfgs map[string]SourceConfig) {
	if cfgs == nil {
		cfgs = make(map[string]SourceConfig)
	}
	s.config.Sources = cfgs
}

// LoadFile reads a sources configuration without touching any store state.
// It is the loader used by the config file watcher.
func LoadFile(path string) (map[string]SourceConfig, error) {
	st := NewStore(path)
	if err := st.Load(); err != nil {
		return nil, err
	}
	return st.config.Sources, nil
}
