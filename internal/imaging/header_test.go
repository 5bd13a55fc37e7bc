package imaging

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/handiism/tcia-downloader/internal/testutils"
)

func TestReadHeader(t *testing.T) {
	dir := t.TempDir()
	path := testutils.WriteDICOM(t, dir, "000001.dcm", testutils.Series{
		Study:    "1.2.840.1",
		Series:   "1.2.840.1.2",
		Instance: "1.2.840.1.2.3",
		Modality: "CT",
	})

	hdr, err := ReadHeader(path)
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}

	study, err := hdr.Study()
	if err != nil || study != "1.2.840.1" {
		t.Errorf("Study() = %q, %v; want 1.2.840.1", study, err)
	}
	series, err := hdr.Series()
	if err != nil || series != "1.2.840.1.2" {
		t.Errorf("Series() = %q, %v; want 1.2.840.1.2", series, err)
	}
	if hdr.SOPInstanceUID != "1.2.840.1.2.3" {
		t.Errorf("SOPInstanceUID = %q", hdr.SOPInstanceUID)
	}
	if hdr.Modality != "CT" {
		t.Errorf("Modality = %q, want CT", hdr.Modality)
	}
}

func TestReadHeader_FieldMissing(t *testing.T) {
	path := testutils.WriteDICOM(t, t.TempDir(), "study-only", testutils.Series{Study: "1.2.3"})

	hdr, err := ReadHeader(path)
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if _, err := hdr.Study(); err != nil {
		t.Errorf("Study(): %v", err)
	}

	_, err = hdr.Series()
	if !errors.Is(err, ErrFieldMissing) {
		t.Errorf("Series() error = %v, want ErrFieldMissing", err)
	}
	if !errors.Is(err, ErrMetadataUnavailable) {
		t.Errorf("Series() error = %v, want ErrMetadataUnavailable", err)
	}
	if errors.Is(err, ErrNotDICOM) {
		t.Error("missing field must not match ErrNotDICOM")
	}

	var me *MetadataError
	if !errors.As(err, &me) || me.Field != "SeriesInstanceUID" {
		t.Errorf("expected *MetadataError for SeriesInstanceUID, got %v", err)
	}
}

func TestReadHeader_NotDICOM(t *testing.T) {
	tests := map[string][]byte{
		"readme.txt": []byte("This archive was produced by the NBIA data retriever.\n"),
		"empty":      nil,
	}

	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			path := testutils.WriteFile(t, t.TempDir(), name, data)

			hdr, err := ReadHeader(path)
			if hdr != nil {
				t.Errorf("expected nil header, got %+v", hdr)
			}
			if !errors.Is(err, ErrNotDICOM) {
				t.Errorf("error = %v, want ErrNotDICOM", err)
			}
			if !errors.Is(err, ErrMetadataUnavailable) {
				t.Errorf("error = %v, want ErrMetadataUnavailable", err)
			}
		})
	}
}

func TestReadHeader_IOErrorIsDistinct(t *testing.T) {
	_, err := ReadHeader(filepath.Join(t.TempDir(), "missing.dcm"))
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error = %v, want os.ErrNotExist", err)
	}
	if errors.Is(err, ErrMetadataUnavailable) {
		t.Error("I/O failure must not be reported as metadata unavailable")
	}
}

func TestReadHeader_Directory(t *testing.T) {
	_, err := ReadHeader(t.TempDir())
	if err == nil || errors.Is(err, ErrMetadataUnavailable) {
		t.Errorf("directory: error = %v, want non-metadata error", err)
	}
}
