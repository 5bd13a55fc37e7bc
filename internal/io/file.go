package ioutils

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var (
	invalidChars   = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	trailingDots   = regexp.MustCompile(`\.+$`)
	multipleSpaces = regexp.MustCompile(`\s+`)
)

// CopyFile copies a file from source to destination.
//
// The destination file is created with mode 0644 if it doesn't exist,
// or truncated if it does. The bytes are copied verbatim. When src and dst
// are the same file nothing is written, so the source is never truncated.
//
// Returns an error if:
//   - ctx is already done
//   - Source file cannot be opened
//   - Destination file cannot be created
//   - Copy operation fails
func CopyFile(ctx context.Context, src, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	srcInfo, err := sourceFile.Stat()
	if err != nil {
		return err
	}
	if dstInfo, err := os.Stat(dst); err == nil && os.SameFile(srcInfo, dstInfo) {
		return nil
	}

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		destFile.Close()
		return err
	}
	return destFile.Close()
}

// WriteFileAtomic streams r into a temporary file next to path and renames
// it into place once the copy has finished.
//
// Existence of a download is its completion record, so a transfer that fails
// half way must never leave a file under the final name. On any error the
// temporary file is removed and path is left untouched.
//
// The optional wrap function can decorate the writer, for example with a
// progress counter.
func WriteFileAtomic(ctx context.Context, path string, r io.Reader, wrap func(io.Writer) io.Writer) error {
	dir := filepath.Dir(path)
	tmpPath := filepath.Join(dir, "."+filepath.Base(path)+".part-"+uuid.NewString())

	tmp, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", path, err)
	}
	cleanup := func() {
		_ = os.Remove(tmpPath)
	}

	var w io.Writer = tmp
	if wrap != nil {
		w = wrap(tmp)
	}

	if _, err := io.Copy(w, r); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write temp file for %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp file for %s: %w", path, err)
	}
	if err := ctx.Err(); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		cleanup()
		return fmt.Errorf("atomic rename for %s: %w", path, err)
	}
	return nil
}

// MoveFile renames src to dst, replacing dst if it already exists.
//
// It reports whether an existing file was replaced.
func MoveFile(src, dst string) (replaced bool, err error) {
	if src == dst {
		return false, nil
	}
	if info, statErr := os.Stat(dst); statErr == nil && info.Mode().IsRegular() {
		replaced = true
	}
	if err := os.Rename(src, dst); err != nil {
		return false, err
	}
	return replaced, nil
}

// FileExists reports whether path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// SanitizeFileName removes or replaces characters that are invalid in file/folder names.
//
// The following transformations are applied:
//   - Invalid characters (<>:"/\|?* and control chars 0x00-0x1f) → underscore
//   - Trailing dots → removed (Windows limitation)
//   - Multiple whitespace → single space
//   - Leading and trailing whitespace → removed
//
// Well-formed DICOM UIDs (digits and dots) pass through unchanged.
//
// Example:
//
//	SanitizeFileName("1.2.840/113619")  // Returns "1.2.840_113619"
//	SanitizeFileName("1.2.840...")      // Returns "1.2.840"
func SanitizeFileName(name string) string {
	name = invalidChars.ReplaceAllString(name, "_")
	name = trailingDots.ReplaceAllString(name, "")
	name = multipleSpaces.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}

// EnsureDir creates a directory and all parent directories if they don't exist.
//
// Directories are created with mode 0755 (rwxr-xr-x).
// If the directory already exists, no error is returned.
func EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", path, err)
	}
	return nil
}

// IsDir reports whether path exists and is a directory.
func IsDir(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
