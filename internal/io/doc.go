// Package ioutils provides file system utilities shared by the download,
// unpack and organize stages.
//
// This package contains functions for:
//   - File copying (manifest provenance copies)
//   - Atomic placement of finished downloads
//   - Moving files between directories
//   - Filename sanitization for cross-platform compatibility
//   - Directory creation and existence checks
//
// # File Operations
//
//	// Copy a file
//	err := ioutils.CopyFile(ctx, "/src/manifest.tcia", "/dst/manifest.tcia")
//
//	// Stream into a temp file and rename into place
//	err := ioutils.WriteFileAtomic(ctx, "/data/1.2.3.zip", body, nil)
//
//	// Ensure directory exists
//	err := ioutils.EnsureDir("/data/unpacked/1.2.3")
//
// # Filename Sanitization
//
// Use SanitizeFileName to remove invalid characters from names taken from
// file headers before they become directory or file names:
//
//	safe := ioutils.SanitizeFileName("1.2.3/4") // Returns "1.2.3_4"
package ioutils
