package model

import (
	"path/filepath"
	"strings"
)

// Job represents one series to retrieve.
//
// The identifier is used literally: no trimming or sanitizing happens here,
// so a blank manifest line yields a Job with an empty ID and an archive named
// ".zip". The scheduler treats it like any other job.
type Job struct {
	// ID is the Job Identifier (a SeriesInstanceUID for TCIA manifests).
	ID string

	// FileName is the archive file name, "{ID}.{ext}".
	FileName string

	// ArchivePath is the full path of the Downloaded Unit.
	ArchivePath string
}

// NewJob creates a Job whose archive lives directly in destDir.
//
// The extension may be given with or without a leading dot.
func NewJob(id, destDir, ext string) *Job {
	name := ArchiveName(id, ext)
	return &Job{
		ID:          id,
		FileName:    name,
		ArchivePath: filepath.Join(destDir, name),
	}
}

// ArchiveName returns the file name of the Downloaded Unit for id.
func ArchiveName(id, ext string) string {
	return id + "." + strings.TrimPrefix(ext, ".")
}

// Dedupe returns ids with repeated identifiers removed, keeping the first
// occurrence of each and the original order.
func Dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
