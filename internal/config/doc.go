// Package config provides configuration management for tcia-downloader.
//
// This package handles:
//   - Loading and saving settings from JSON or YAML files
//   - Default configuration values
//
// # Default Settings
//
// Use DefaultSettings() to get sensible defaults:
//
//	settings := config.DefaultSettings()
//	// Talks to the public TCIA v4 API
//	// 4 concurrent series downloads
//	// Archives are .zip, reorganized records are .dcm
//
// # Loading from File
//
//	settings, err := config.Load("/path/to/config.yaml")
//	if err != nil {
//	    // Uses defaults if file doesn't exist
//	}
//
// Files ending in .yaml or .yml are decoded as YAML, everything else as JSON.
//
// # Saving Settings
//
//	settings.MaxConcurrentDownloads = 8
//	err := settings.Save("/path/to/config.json")
package config
