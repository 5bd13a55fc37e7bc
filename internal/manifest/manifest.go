package manifest

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	ioutils "github.com/handiism/tcia-downloader/internal/io"
)

// DefaultSentinel marks the start of the series list in TCIA manifests.
const DefaultSentinel = "ListOfSeries"

// maxLineLength bounds a single manifest line. Series UIDs are at most 64
// characters but preamble lines may carry long URLs.
const maxLineLength = 1024 * 1024

// FormatError is returned when a manifest has no sentinel line.
type FormatError struct {
	Path     string
	Sentinel string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("couldn't find series list in %s (no line containing %q)", e.Path, e.Sentinel)
}

// Manifest is the parsed content of a manifest file.
type Manifest struct {
	// Path is the file the manifest was read from.
	Path string

	// Series holds one identifier per line after the sentinel, whitespace
	// trimmed, in file order. Blank lines are kept as empty identifiers.
	Series []string

	// Properties holds "key=value" preamble lines. They are informational
	// only and never affect which series are scheduled.
	Properties map[string]string
}

// Read parses the manifest at path.
//
// Returns a *FormatError if no line contains sentinel. An empty sentinel
// falls back to DefaultSentinel.
func Read(path, sentinel string) (*Manifest, error) {
	if sentinel == "" {
		sentinel = DefaultSentinel
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	m := &Manifest{
		Path:       path,
		Properties: make(map[string]string),
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)

	found := false
	for scanner.Scan() {
		line := scanner.Text()
		if !found {
			if strings.Contains(line, sentinel) {
				found = true
				continue
			}
			if key, value, ok := strings.Cut(line, "="); ok {
				m.Properties[strings.TrimSpace(key)] = strings.TrimSpace(value)
			}
			continue
		}
		m.Series = append(m.Series, strings.TrimSpace(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}

	if !found {
		return nil, &FormatError{Path: path, Sentinel: sentinel}
	}

	return m, nil
}

// Copy copies the manifest at src verbatim to destDir/name and returns the
// path of the copy.
func Copy(ctx context.Context, src, destDir, name string) (string, error) {
	dst := filepath.Join(destDir, name)
	if err := ioutils.CopyFile(ctx, src, dst); err != nil {
		return "", fmt.Errorf("copy manifest to %s: %w", dst, err)
	}
	return dst, nil
}

// IsManifestPath reports whether source names a manifest file rather than a
// collection, using the ".tcia" marker anywhere in the name.
func IsManifestPath(source string) bool {
	return strings.Contains(strings.ToLower(source), ".tcia")
}
