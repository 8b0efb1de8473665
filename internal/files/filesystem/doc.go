// Package filesystem abstracts the data directory shared by the download and
// load stages.
//
// The downloader writes <DATASET>.csv files into it and the loader reads them
// back. Both stages only see the DataDir interface:
//   - OSDataDir: a directory on the local filesystem
//   - MemoryDataDir: an in-memory directory for tests
//
// Names are flat file names relative to the directory root. Path separators
// are rejected so a dataset name can never escape the directory.
package filesystem
