package organize

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/handiism/tcia-downloader/internal/imaging"
	ioutils "github.com/handiism/tcia-downloader/internal/io"
)

// HeaderReader reads DICOM header metadata. imaging.Reader implements it.
type HeaderReader interface {
	ReadHeader(path string) (*imaging.Header, error)
}

// Phase identifies a reorganization step.
type Phase string

const (
	PhaseStudy  Phase = "study"
	PhaseSeries Phase = "series"
)

// Warning records a phase that was skipped for one file.
type Warning struct {
	Path     string
	Phase    Phase
	Err      error
	Replaced bool // the move succeeded but overwrote an existing file
}

func (w Warning) String() string {
	if w.Replaced {
		return fmt.Sprintf("%s: %s phase replaced an existing file", w.Path, w.Phase)
	}
	return fmt.Sprintf("%s: %s phase skipped: %v", w.Path, w.Phase, w.Err)
}

// MetadataUnavailable reports whether the warning came from missing or
// unparseable metadata rather than a filesystem failure.
func (w Warning) MetadataUnavailable() bool {
	return errors.Is(w.Err, imaging.ErrMetadataUnavailable)
}

// Result is the outcome of one Reorganize pass.
type Result struct {
	// Relocated lists the final path of every file that completed the
	// series phase.
	Relocated []string

	// Warnings lists skipped phases and overwrites, in processing order.
	Warnings []Warning
}

// Organizer performs the study/series reorganization.
type Organizer struct {
	reader    HeaderReader
	ext       string
	onProcess func(path string, index, total int)
}

// NewOrganizer creates an Organizer that names files "{series}.{ext}".
func NewOrganizer(reader HeaderReader, ext string) *Organizer {
	if reader == nil {
		reader = imaging.Reader{}
	}
	return &Organizer{
		reader: reader,
		ext:    strings.TrimPrefix(ext, "."),
	}
}

// OnProcess registers a callback invoked before each file is processed.
func (o *Organizer) OnProcess(fn func(path string, index, total int)) {
	o.onProcess = fn
}

// Reorganize processes every regular file directly under dir.
//
// The only error returned is failure to list dir; per-file problems end up
// in Result.Warnings.
func (o *Organizer) Reorganize(dir string) (*Result, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)

	result := &Result{}
	for i, path := range files {
		if o.onProcess != nil {
			o.onProcess(path, i, len(files))
		}
		o.processFile(dir, path, result)
	}
	return result, nil
}

func (o *Organizer) processFile(dir, path string, result *Result) {
	hdr, err := o.reader.ReadHeader(path)
	if err != nil {
		result.Warnings = append(result.Warnings, Warning{Path: path, Phase: PhaseStudy, Err: err})
		return
	}

	current := path
	if moved, ok := o.placeInStudy(dir, current, hdr, result); ok {
		current = moved
	}

	if renamed, ok := o.renameToSeries(current, hdr, result); ok {
		result.Relocated = append(result.Relocated, renamed)
	}
}

// placeInStudy moves path into dir/{study}. It reports the new path and
// whether the move happened.
func (o *Organizer) placeInStudy(dir, path string, hdr *imaging.Header, result *Result) (string, bool) {
	study, err := hdr.Study()
	if err == nil {
		study, err = safeName(hdr, "StudyInstanceUID", study)
	}
	if err != nil {
		result.Warnings = append(result.Warnings, Warning{Path: path, Phase: PhaseStudy, Err: err})
		return path, false
	}

	caseDir := filepath.Join(dir, study)
	if err := ioutils.EnsureDir(caseDir); err != nil {
		result.Warnings = append(result.Warnings, Warning{Path: path, Phase: PhaseStudy, Err: err})
		return path, false
	}

	dest := filepath.Join(caseDir, filepath.Base(path))
	replaced, err := ioutils.MoveFile(path, dest)
	if err != nil {
		result.Warnings = append(result.Warnings, Warning{Path: path, Phase: PhaseStudy, Err: err})
		return path, false
	}
	if replaced {
		result.Warnings = append(result.Warnings, Warning{Path: dest, Phase: PhaseStudy, Replaced: true})
	}
	return dest, true
}

// renameToSeries renames path to {series}.{ext} in its directory.
func (o *Organizer) renameToSeries(path string, hdr *imaging.Header, result *Result) (string, bool) {
	series, err := hdr.Series()
	if err == nil {
		series, err = safeName(hdr, "SeriesInstanceUID", series)
	}
	if err != nil {
		result.Warnings = append(result.Warnings, Warning{Path: path, Phase: PhaseSeries, Err: err})
		return path, false
	}

	dest := filepath.Join(filepath.Dir(path), series+"."+o.ext)
	replaced, err := ioutils.MoveFile(path, dest)
	if err != nil {
		result.Warnings = append(result.Warnings, Warning{Path: path, Phase: PhaseSeries, Err: err})
		return path, false
	}
	if replaced {
		result.Warnings = append(result.Warnings, Warning{Path: dest, Phase: PhaseSeries, Replaced: true})
	}
	return dest, true
}

// safeName sanitizes a header value for use as a path element. A value that
// sanitizes to nothing, "." or ".." counts as missing.
func safeName(hdr *imaging.Header, field, value string) (string, error) {
	name := ioutils.SanitizeFileName(value)
	if name == "" || name == "." || name == ".." {
		return "", &imaging.MetadataError{Path: hdr.Path, Field: field, Err: imaging.ErrFieldMissing}
	}
	return name, nil
}
