// Package download orchestrates fetching the series named in a TCIA
// manifest and, optionally, unpacking them.
//
// # Manager
//
// The Manager coordinates the entire process:
//
//  1. Copy the manifest into the destination and read its series list
//  2. Download series archives concurrently, skipping ones already on disk
//  3. Report the series that failed
//  4. Extract the archives and reorganize the DICOM files (optional)
//
// # Basic Usage
//
//	manager := download.NewManager(settings, func(event download.ProgressEvent) {
//	    fmt.Println(event.Message)
//	})
//
//	if err := manager.Initialize(ctx, "LIDC.tcia", "/data/lidc"); err != nil {
//	    log.Fatal(err)
//	}
//
//	outcome, err := manager.StartDownloads(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if settings.Unpack {
//	    result, err := manager.Unpack(ctx)
//	    ...
//	}
//
// # Concurrency
//
// The Scheduler submits jobs to an errgroup limited to
// settings.MaxConcurrentDownloads workers. Submission blocks while the pool
// is full and the run ends when every submitted fetch has returned.
//
// # Progress Tracking
//
// Progress is reported via a callback function that receives ProgressEvent:
//
//	type ProgressEvent struct {
//	    Message string
//	    Level   ProgressLevel // Info, Verbose, Warning, Error, Success
//	}
//
// Counters for a live display come from Manager.GetProgress.
//
// # Retries
//
// There are none. Each series gets one attempt per run; running again
// retries exactly the series whose archive is still missing.
package download
