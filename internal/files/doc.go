// Package files groups file-handling sub-packages.
//
//   - filesystem: the data directory shared by the download and load stages
package files
