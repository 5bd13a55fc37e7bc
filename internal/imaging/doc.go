// Package imaging reads the identifying header fields of DICOM files.
//
// Only the metadata is parsed; pixel data is skipped, so reading the header
// of a large CT slice costs about the same as reading a small one.
//
//	hdr, err := imaging.ReadHeader("/data/unpacked/000001.dcm")
//	if errors.Is(err, imaging.ErrMetadataUnavailable) {
//	    // not a DICOM file, leave it alone
//	}
//	study, err := hdr.Study()
//	if errors.Is(err, imaging.ErrFieldMissing) {
//	    // valid DICOM without a StudyInstanceUID
//	}
//
// Errors fall into two groups. I/O failures (missing file, permission
// denied) are returned as wrapped os errors. Anything that means "this file
// does not carry the metadata we need" is a *MetadataError that matches
// ErrMetadataUnavailable plus either ErrNotDICOM or ErrFieldMissing.
package imaging
