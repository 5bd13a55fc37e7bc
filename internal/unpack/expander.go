package unpack

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	ioutils "github.com/handiism/tcia-downloader/internal/io"
)

// Expander extracts archives found in a destination directory.
type Expander struct {
	// ArchiveExt is the archive extension without dot, e.g. "zip".
	ArchiveExt string

	// TargetName is the staging directory name created inside the
	// destination directory, e.g. "unpacked".
	TargetName string

	// OnArchive is called before each archive is extracted. Optional.
	OnArchive func(path string, index, total int)
}

// NewExpander creates an Expander.
func NewExpander(archiveExt, targetName string) *Expander {
	return &Expander{
		ArchiveExt: strings.TrimPrefix(archiveExt, "."),
		TargetName: targetName,
	}
}

// TargetDir returns the staging directory for destDir.
func (e *Expander) TargetDir(destDir string) string {
	return filepath.Join(destDir, e.TargetName)
}

// Archives lists the archives directly under destDir, sorted by name.
func (e *Expander) Archives(destDir string) ([]string, error) {
	entries, err := os.ReadDir(destDir)
	if err != nil {
		return nil, fmt.Errorf("list archives in %s: %w", destDir, err)
	}

	suffix := "." + e.ArchiveExt
	var archives []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !strings.HasSuffix(entry.Name(), suffix) {
			continue
		}
		archives = append(archives, filepath.Join(destDir, entry.Name()))
	}
	sort.Strings(archives)
	return archives, nil
}

// Expand extracts every archive under destDir into TargetDir(destDir) and
// returns the archives it processed.
func (e *Expander) Expand(destDir string) ([]string, error) {
	archives, err := e.Archives(destDir)
	if err != nil {
		return nil, err
	}

	target := e.TargetDir(destDir)
	if err := ioutils.EnsureDir(target); err != nil {
		return nil, err
	}

	for i, archive := range archives {
		if e.OnArchive != nil {
			e.OnArchive(archive, i, len(archives))
		}
		if err := extractZip(archive, target); err != nil {
			return archives[:i], fmt.Errorf("extract %s: %w", archive, err)
		}
	}

	return archives, nil
}

// extractZip extracts all entries of the archive at path into target.
func extractZip(path, target string) error {
	zr, err := zip.OpenReader(path)
	if err != nil {
		// zip.ErrInsecurePath comes with an open reader.
		if zr != nil {
			zr.Close()
		}
		return err
	}
	defer zr.Close()

	for _, f := range zr.File {
		if err := extractEntry(f, target); err != nil {
			return err
		}
	}
	return nil
}

func extractEntry(f *zip.File, target string) error {
	dest := filepath.Join(target, filepath.FromSlash(f.Name))
	rel, err := filepath.Rel(target, dest)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("entry %q escapes target directory", f.Name)
	}

	if f.FileInfo().IsDir() {
		return ioutils.EnsureDir(dest)
	}
	if err := ioutils.EnsureDir(filepath.Dir(dest)); err != nil {
		return err
	}

	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open entry %q: %w", f.Name, err)
	}
	defer rc.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return fmt.Errorf("write entry %q: %w", f.Name, err)
	}
	return out.Close()
}
