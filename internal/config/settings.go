package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings holds all configuration options.
type Settings struct {
	// API settings
	BaseURL               string `json:"base_url" yaml:"base_url"`
	Resource              string `json:"resource" yaml:"resource"`
	APIKey                string `json:"api_key" yaml:"api_key"`
	UserAgent             string `json:"user_agent" yaml:"user_agent"`
	RequestTimeoutSeconds int    `json:"request_timeout_seconds" yaml:"request_timeout_seconds"`

	// Download settings
	DownloadsPath          string `json:"downloads_path" yaml:"downloads_path"`
	MaxConcurrentDownloads int    `json:"max_concurrent_downloads" yaml:"max_concurrent_downloads"`
	Limit                  int    `json:"limit" yaml:"limit"` // 0 means no limit
	Unpack                 bool   `json:"unpack" yaml:"unpack"`

	// Layout
	ArchiveExtension string `json:"archive_extension" yaml:"archive_extension"`
	RecordExtension  string `json:"record_extension" yaml:"record_extension"`
	UnpackDirName    string `json:"unpack_dir_name" yaml:"unpack_dir_name"`
	ManifestCopyName string `json:"manifest_copy_name" yaml:"manifest_copy_name"`
	ManifestSentinel string `json:"manifest_sentinel" yaml:"manifest_sentinel"`
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	homeDir, _ := os.UserHomeDir()
	return &Settings{
		BaseURL:               "https://services.cancerimagingarchive.net/services/v4",
		Resource:              "TCIA",
		UserAgent:             "tcia-downloader",
		RequestTimeoutSeconds: 0,

		DownloadsPath:          filepath.Join(homeDir, "TCIA"),
		MaxConcurrentDownloads: 4,
		Limit:                  0,
		Unpack:                 false,

		ArchiveExtension: "zip",
		RecordExtension:  "dcm",
		UnpackDirName:    "unpacked",
		ManifestCopyName: "manifest.tcia",
		ManifestSentinel: "ListOfSeries",
	}
}

// RequestTimeout returns the per-request timeout. Zero disables it, which
// suits multi-gigabyte series archives.
func (s *Settings) RequestTimeout() time.Duration {
	return time.Duration(s.RequestTimeoutSeconds) * time.Second
}

// Validate checks values that would make a run meaningless.
func (s *Settings) Validate() error {
	if s.MaxConcurrentDownloads < 1 {
		return fmt.Errorf("max_concurrent_downloads must be at least 1, got %d", s.MaxConcurrentDownloads)
	}
	if s.Limit < 0 {
		return fmt.Errorf("limit must not be negative, got %d", s.Limit)
	}
	if s.ManifestSentinel == "" {
		return fmt.Errorf("manifest_sentinel must not be empty")
	}
	if strings.Trim(s.ArchiveExtension, ".") == "" || strings.Trim(s.RecordExtension, ".") == "" {
		return fmt.Errorf("archive_extension and record_extension must not be empty")
	}
	if s.UnpackDirName == "" || s.ManifestCopyName == "" {
		return fmt.Errorf("unpack_dir_name and manifest_copy_name must not be empty")
	}
	return nil
}

// Load reads settings from a JSON or YAML file.
//
// Values missing from the file keep their defaults. A missing file yields
// DefaultSettings().
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	settings := DefaultSettings()
	if isYAML(path) {
		err = yaml.Unmarshal(data, settings)
	} else {
		err = json.Unmarshal(data, settings)
	}
	if err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	return settings, nil
}

// Save writes settings to a JSON or YAML file, chosen by extension.
func (s *Settings) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(s)
	} else {
		data, err = json.MarshalIndent(s, "", "  ")
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
