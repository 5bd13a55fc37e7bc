// Package model defines the core data structures used throughout
// the tcia-downloader application.
//
// # Job
//
// Job names one downloadable series from a manifest and computes where its
// archive lands on disk:
//
//	job := model.NewJob("1.2.3", "/data/lidc", "zip")
//	fmt.Println(job.ArchivePath) // "/data/lidc/1.2.3.zip"
//
// # JobOutcome
//
// JobOutcome is the success/failure mapping produced by one scheduler run.
// It remembers the manifest order of its entries so that summaries are stable
// even though downloads finish in any order:
//
//	outcome := model.NewJobOutcome([]string{"1.2.3", "1.2.4"})
//	outcome.Set("1.2.4", false)
//	outcome.Failed() // ["1.2.4"]
package model
