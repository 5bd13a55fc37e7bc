package imaging

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

var (
	// ErrMetadataUnavailable matches every error meaning the header could
	// not provide a requested value.
	ErrMetadataUnavailable = errors.New("imaging: metadata unavailable")

	// ErrNotDICOM means the file could not be parsed as DICOM.
	ErrNotDICOM = errors.New("imaging: not a DICOM file")

	// ErrFieldMissing means the file parsed but the field is absent or blank.
	ErrFieldMissing = errors.New("imaging: field missing")
)

// MetadataError describes why a header value could not be obtained.
type MetadataError struct {
	Path  string
	Field string // empty when the whole file failed to parse
	Err   error  // ErrNotDICOM or ErrFieldMissing
	Cause error  // underlying parser error, if any
}

func (e *MetadataError) Error() string {
	var b strings.Builder
	b.WriteString(e.Path)
	b.WriteString(": ")
	if e.Field != "" {
		b.WriteString(e.Field)
		b.WriteString(": ")
	}
	b.WriteString(e.Err.Error())
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Is lets errors.Is match ErrMetadataUnavailable as well as the specific
// reason.
func (e *MetadataError) Is(target error) bool {
	return target == ErrMetadataUnavailable || target == e.Err
}

func (e *MetadataError) Unwrap() error {
	return e.Cause
}

// Header holds the identifying fields read from one DICOM file.
type Header struct {
	Path              string
	StudyInstanceUID  string
	SeriesInstanceUID string
	SOPInstanceUID    string
	Modality          string
}

// Study returns the StudyInstanceUID or a *MetadataError matching
// ErrFieldMissing.
func (h *Header) Study() (string, error) {
	return h.require("StudyInstanceUID", h.StudyInstanceUID)
}

// Series returns the SeriesInstanceUID or a *MetadataError matching
// ErrFieldMissing.
func (h *Header) Series() (string, error) {
	return h.require("SeriesInstanceUID", h.SeriesInstanceUID)
}

func (h *Header) require(field, value string) (string, error) {
	if value == "" {
		return "", &MetadataError{Path: h.Path, Field: field, Err: ErrFieldMissing}
	}
	return value, nil
}

// Reader reads headers from disk. The zero value is ready to use.
type Reader struct{}

// ReadHeader reads the header of the file at path. It is a convenience for
// Reader{}.ReadHeader(path).
func ReadHeader(path string) (*Header, error) {
	return Reader{}.ReadHeader(path)
}

// ReadHeader parses the DICOM metadata of the file at path without loading
// pixel data.
func (Reader) ReadHeader(path string) (*Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("read header of %s: is a directory", path)
	}

	ds, err := parse(f, info.Size())
	if err != nil {
		return nil, &MetadataError{Path: path, Err: ErrNotDICOM, Cause: err}
	}

	return &Header{
		Path:              path,
		StudyInstanceUID:  stringValue(&ds, tag.StudyInstanceUID),
		SeriesInstanceUID: stringValue(&ds, tag.SeriesInstanceUID),
		SOPInstanceUID:    stringValue(&ds, tag.SOPInstanceUID),
		Modality:          stringValue(&ds, tag.Modality),
	}, nil
}

// parse wraps dicom.Parse. The parser can panic on some truncated inputs;
// that is reported as a parse error for this one file.
func parse(f *os.File, size int64) (ds dicom.Dataset, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parser panic: %v", r)
		}
	}()
	return dicom.Parse(f, size, nil, dicom.SkipPixelData())
}

// stringValue returns the first string value of the element with tag t, or
// "" when the element is absent or not a string type.
func stringValue(ds *dicom.Dataset, t tag.Tag) string {
	elem, err := ds.FindElementByTag(t)
	if err != nil || elem == nil || elem.Value == nil {
		return ""
	}
	values, ok := elem.Value.GetValue().([]string)
	if !ok || len(values) == 0 {
		return ""
	}
	return strings.TrimRight(strings.TrimSpace(values[0]), "\x00")
}
