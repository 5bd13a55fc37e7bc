package manifest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.tcia")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRead(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "basic",
			content: "ListOfSeries\n1.2.3\n1.2.4\n",
			want:    []string{"1.2.3", "1.2.4"},
		},
		{
			name: "tcia preamble",
			content: "downloadServerUrl=https://public.cancerimagingarchive.net/nbia-download/servlet/DownloadServlet\n" +
				"includeAnnotation=true\nnoOfrRetry=4\nmanifestVersion=3.0\nListOfSeriesToDownload=\n1.2.3\n",
			want: []string{"1.2.3"},
		},
		{
			name:    "crlf and padding trimmed",
			content: "ListOfSeriesToDownload=\r\n  1.2.3 \r\n\t1.2.4\r\n",
			want:    []string{"1.2.3", "1.2.4"},
		},
		{
			name:    "blank lines kept literally",
			content: "ListOfSeries\n1.2.3\n\n1.2.4\n",
			want:    []string{"1.2.3", "", "1.2.4"},
		},
		{
			name:    "only first sentinel counts",
			content: "ListOfSeries\nListOfSeries\n1.2.3\n",
			want:    []string{"ListOfSeries", "1.2.3"},
		},
		{
			name:    "empty list",
			content: "manifestVersion=3.0\nListOfSeriesToDownload=\n",
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Read(writeManifest(t, tt.content), "ListOfSeries")
			if err != nil {
				t.Fatalf("Read: %v", err)
			}
			if !reflect.DeepEqual(m.Series, tt.want) {
				t.Errorf("Series = %q, want %q", m.Series, tt.want)
			}
		})
	}
}

func TestRead_Properties(t *testing.T) {
	path := writeManifest(t, "manifestVersion=3.0\nincludeAnnotation = true\nfree text\nListOfSeriesToDownload=\n1.2.3\n")

	m, err := Read(path, "")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	want := map[string]string{"manifestVersion": "3.0", "includeAnnotation": "true"}
	if !reflect.DeepEqual(m.Properties, want) {
		t.Errorf("Properties = %v, want %v", m.Properties, want)
	}
}

func TestRead_MissingSentinel(t *testing.T) {
	path := writeManifest(t, "manifestVersion=3.0\n1.2.3\n1.2.4\n")

	m, err := Read(path, "ListOfSeries")
	if m != nil {
		t.Errorf("expected nil manifest, got %+v", m)
	}

	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FormatError, got %v", err)
	}
	if fe.Path != path || fe.Sentinel != "ListOfSeries" {
		t.Errorf("FormatError = %+v", fe)
	}
}

func TestRead_MissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "missing.tcia"), "ListOfSeries")
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}
}

func TestCopy(t *testing.T) {
	content := "ListOfSeries\r\n1.2.3\r\n"
	src := writeManifest(t, content)
	destDir := t.TempDir()

	dst, err := Copy(context.Background(), src, destDir, "manifest.tcia")
	if err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if dst != filepath.Join(destDir, "manifest.tcia") {
		t.Errorf("dst = %q", dst)
	}
	got, _ := os.ReadFile(dst)
	if string(got) != content {
		t.Errorf("copy = %q, want verbatim %q", got, content)
	}
}

func TestIsManifestPath(t *testing.T) {
	tests := map[string]bool{
		"lidc.tcia":         true,
		"/data/LIDC.TCIA":   true,
		"manifest.tcia.bak": true,
		"LIDC-IDRI":         false,
	}
	for source, want := range tests {
		if got := IsManifestPath(source); got != want {
			t.Errorf("IsManifestPath(%q) = %v, want %v", source, got, want)
		}
	}
}
