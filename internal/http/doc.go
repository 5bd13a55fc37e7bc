// Package http provides the client for the TCIA REST API.
//
// The Client in this package handles:
//   - Building query URLs from a base URL and resource ("TCIA")
//   - User-Agent and optional api_key headers
//   - Streaming series archives to disk with progress tracking
//   - Fetching the collection catalog
//
// # Basic Usage
//
//	client := http.NewClient(http.Options{
//	    BaseURL:  "https://services.cancerimagingarchive.net/services/v4",
//	    Resource: "TCIA",
//	})
//
//	// Download one series archive; errors are folded into false
//	ok := client.GetImage(ctx, seriesUID, "/data", seriesUID+".zip")
//
//	// Same, but keep the error and watch the bytes
//	err := client.FetchImage(ctx, seriesUID, "/data", seriesUID+".zip", func(written, total int64) {
//	    fmt.Printf("%d / %d\n", written, total)
//	})
//
// # Progress Tracking
//
// The ProgressWriter type can be used to wrap any io.Writer for progress tracking:
//
//	pw := &http.ProgressWriter{
//	    Writer:   file,
//	    Total:    contentLength,
//	    OnUpdate: func(written, total int64) { /* update UI */ },
//	}
package http
