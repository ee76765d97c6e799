// Package http provides the HTTP client used to fetch remote datasets.
//
// The Client downloads recordings given as http(s) URLs into a local cache
// directory before they are handed to a reader:
//
//	client := http.NewClient()
//	err := client.DownloadFile(ctx, url, "/tmp/spikeview/session1.json", nil)
//
// Downloads are streamed to a ".part" file and renamed when complete.
package http
