// Package organize rearranges extracted DICOM files into a study/series
// hierarchy using their header metadata.
//
// Each regular file directly under the staging directory goes through two
// phases:
//
//  1. Study placement: the file moves into a directory named after its
//     StudyInstanceUID, created on demand.
//  2. Series renaming: the file is renamed to "{SeriesInstanceUID}.dcm"
//     inside whatever directory phase 1 left it in.
//
// A phase whose metadata is unavailable is skipped and the file stays where
// it is. Nothing about a single file can stop the pass:
//
//	org := organize.NewOrganizer(imaging.Reader{}, "dcm")
//	result, err := org.Reorganize("/data/lidc/unpacked")
//	// result.Relocated: files that were renamed to their series UID
//	// result.Warnings:  every skipped phase, with the reason
package organize
