// Package datalink is a client for the Nasdaq Data Link bulk export API.
//
// Exporting a datatable is asynchronous. The first request asks the vendor to
// build a ZIP and reports a status. While the status is "generating" the
// client waits PollInterval and asks again, up to MaxPolls requests. Once
// the status is "fresh" or "regenerating" the response carries a link that
// Fetch streams.
//
//	client := datalink.NewClient(datalink.Options{APIKey: key})
//	link, err := client.ExportLink(ctx, "SF1")
//	body, size, err := client.Fetch(ctx, link)
//
// All HTTP failures wrap ndlsync.ErrTransport and are never retried. A
// dataset that stays "generating" fails with ndlsync.ErrReadinessTimeout.
package datalink
