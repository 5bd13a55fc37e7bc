package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	settings, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if settings.MaxConcurrentDownloads != 4 {
		t.Errorf("MaxConcurrentDownloads = %d, want 4", settings.MaxConcurrentDownloads)
	}
	if settings.ManifestSentinel != "ListOfSeries" {
		t.Errorf("ManifestSentinel = %q, want %q", settings.ManifestSentinel, "ListOfSeries")
	}
}

func TestLoad_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{"max_concurrent_downloads": 8, "limit": 3, "unpack": true}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	settings, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if settings.MaxConcurrentDownloads != 8 || settings.Limit != 3 || !settings.Unpack {
		t.Errorf("got concurrency=%d limit=%d unpack=%v", settings.MaxConcurrentDownloads, settings.Limit, settings.Unpack)
	}
	// Untouched fields keep defaults.
	if settings.ArchiveExtension != "zip" {
		t.Errorf("ArchiveExtension = %q, want zip", settings.ArchiveExtension)
	}
}

func TestLoad_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	data := "base_url: http://localhost:9000/services/v4\nrequest_timeout_seconds: 30\nrecord_extension: dicom\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	settings, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if settings.BaseURL != "http://localhost:9000/services/v4" {
		t.Errorf("BaseURL = %q", settings.BaseURL)
	}
	if settings.RequestTimeout() != 30*time.Second {
		t.Errorf("RequestTimeout() = %v, want 30s", settings.RequestTimeout())
	}
	if settings.RecordExtension != "dicom" {
		t.Errorf("RecordExtension = %q, want dicom", settings.RecordExtension)
	}
	if settings.Resource != "TCIA" {
		t.Errorf("Resource = %q, want default TCIA", settings.Resource)
	}
}

func TestLoad_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	os.WriteFile(path, []byte("{not json"), 0o644)

	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	for _, name := range []string{"config.json", "config.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			settings := DefaultSettings()
			settings.MaxConcurrentDownloads = 12
			settings.APIKey = "secret"

			if err := settings.Save(path); err != nil {
				t.Fatalf("Save: %v", err)
			}
			loaded, err := Load(path)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if *loaded != *settings {
				t.Errorf("loaded = %+v, want %+v", loaded, settings)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Settings)
		ok     bool
	}{
		{"defaults", func(*Settings) {}, true},
		{"zero concurrency", func(s *Settings) { s.MaxConcurrentDownloads = 0 }, false},
		{"negative limit", func(s *Settings) { s.Limit = -1 }, false},
		{"empty sentinel", func(s *Settings) { s.ManifestSentinel = "" }, false},
		{"dot extension", func(s *Settings) { s.ArchiveExtension = "." }, false},
		{"empty unpack dir", func(s *Settings) { s.UnpackDirName = "" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.mutate(s)
			err := s.Validate()
			if (err == nil) != tt.ok {
				t.Errorf("Validate() error = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}
