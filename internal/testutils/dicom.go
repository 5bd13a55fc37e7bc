// Package testutils provides shared fixtures for package tests: minimal
// DICOM files and zip archives.
package testutils

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

// ExplicitVRLittleEndian is the transfer syntax written by DICOM.
const ExplicitVRLittleEndian = "1.2.840.10008.1.2.1"

// Series describes the identifying fields of a fixture file. Empty fields
// are omitted from the dataset.
type Series struct {
	Study    string
	Series   string
	Instance string
	Modality string
}

type element struct {
	group, elem uint16
	vr          string
	value       string
}

// DICOM encodes a minimal Part 10 file: preamble, "DICM", a file meta group
// with the transfer syntax, and a dataset holding the fields of s.
func DICOM(s Series) []byte {
	meta := encode([]element{{0x0002, 0x0010, "UI", ExplicitVRLittleEndian}})

	var data []element
	if s.Instance != "" {
		data = append(data, element{0x0008, 0x0018, "UI", s.Instance})
	}
	if s.Modality != "" {
		data = append(data, element{0x0008, 0x0060, "CS", s.Modality})
	}
	if s.Study != "" {
		data = append(data, element{0x0020, 0x000D, "UI", s.Study})
	}
	if s.Series != "" {
		data = append(data, element{0x0020, 0x000E, "UI", s.Series})
	}
	sort.Slice(data, func(i, j int) bool {
		if data[i].group != data[j].group {
			return data[i].group < data[j].group
		}
		return data[i].elem < data[j].elem
	})

	var buf bytes.Buffer
	buf.Write(make([]byte, 128))
	buf.WriteString("DICM")

	// (0002,0000) UL group length
	var groupLen [12]byte
	binary.LittleEndian.PutUint16(groupLen[0:], 0x0002)
	binary.LittleEndian.PutUint16(groupLen[2:], 0x0000)
	copy(groupLen[4:], "UL")
	binary.LittleEndian.PutUint16(groupLen[6:], 4)
	binary.LittleEndian.PutUint32(groupLen[8:], uint32(len(meta)))
	buf.Write(groupLen[:])

	buf.Write(meta)
	buf.Write(encode(data))
	return buf.Bytes()
}

func encode(elems []element) []byte {
	var buf bytes.Buffer
	for _, e := range elems {
		value := e.value
		if len(value)%2 == 1 {
			if e.vr == "UI" {
				value += "\x00"
			} else {
				value += " "
			}
		}
		var hdr [8]byte
		binary.LittleEndian.PutUint16(hdr[0:], e.group)
		binary.LittleEndian.PutUint16(hdr[2:], e.elem)
		copy(hdr[4:], e.vr)
		binary.LittleEndian.PutUint16(hdr[6:], uint16(len(value)))
		buf.Write(hdr[:])
		buf.WriteString(value)
	}
	return buf.Bytes()
}

// WriteDICOM writes a fixture file to dir/name and returns its path.
func WriteDICOM(t *testing.T, dir, name string, s Series) string {
	t.Helper()
	return WriteFile(t, dir, name, DICOM(s))
}

// WriteFile writes data to dir/name and returns its path.
func WriteFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("create dir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// ZipBytes builds a zip archive from name -> content. Names ending in "/"
// become directory entries.
func ZipBytes(t *testing.T, files map[string][]byte) []byte {
	t.Helper()

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range names {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := w.Write(files[name]); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}
