// Package checksum fingerprints extracted export files.
//
// A Writer sits next to the destination file in an io.MultiWriter so the
// digest is computed in the same pass that writes the data.
package checksum
