// Package manifest reads TCIA manifest files.
//
// A manifest is plain text. Everything up to and including the first line
// that contains the sentinel (normally "ListOfSeries", as in
// "ListOfSeriesToDownload=") is preamble; every following line is one series
// identifier:
//
//	downloadServerUrl=https://public.cancerimagingarchive.net/nbia-download/servlet/DownloadServlet
//	includeAnnotation=true
//	manifestVersion=3.0
//	ListOfSeriesToDownload=
//	1.3.6.1.4.1.14519.5.2.1.6279.6001.179049373636438705059720603192
//	1.3.6.1.4.1.14519.5.2.1.6279.6001.298806137288633453246975630178
//
// Usage:
//
//	m, err := manifest.Read("lidc.tcia", "ListOfSeries")
//	var fe *manifest.FormatError
//	if errors.As(err, &fe) {
//	    // no sentinel line; nothing can be scheduled
//	}
//	fmt.Println(len(m.Series))
package manifest
