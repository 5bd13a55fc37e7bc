// Package progress prints periodic progress lines for a download run.
//
// The Reporter does not count anything itself. It polls a Source for the
// current totals and prints them on every tick, so it can sit on top of any
// component that exposes counters.
//
// # Usage
//
//	reporter := progress.NewReporter(progress.Options{
//	    Total:   len(series),
//	    Workers: 4,
//	    Source: func() progress.Stats {
//	        snap := manager.GetProgress()
//	        return progress.Stats{Done: int(snap.Done()), Failed: int(snap.Failed), Bytes: snap.Bytes}
//	    },
//	})
//
//	reporter.Start()
//	defer reporter.Stop()
//
// # Output Format
//
//	[tcia] Downloading 120 series into /data/lidc | Workers: 4
//	[tcia] Progress: 35.0% | 42/120 series | 1 failed | 4 in flight | 1.3 GiB | 22 MiB/s
//	[tcia] Finished 120/120 series | 3 failed | 3.9 GiB in 3m 2s | Average speed: 22 MiB/s
package progress
