// Package archive extracts the single CSV the vendor ships inside each bulk export ZIP.
package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/vvka-141/ndlsync/pkg/ndlsync"
)

// ExtractFirst copies the first file entry of the ZIP in data to dst and
// returns the entry's name inside the archive. Directory entries are skipped.
// Data that is not a ZIP, or a ZIP without file entries, yields ErrArchiveFormat.
// Errors from dst are returned wrapped but never as ErrArchiveFormat.
func ExtractFirst(data []byte, dst io.Writer) (string, int64, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", ndlsync.ErrArchiveFormat, err)
	}

	for _, f := range zr.File {
		if f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/") {
			continue
		}
		n, err := copyEntry(f, dst)
		return f.Name, n, err
	}

	return "", 0, fmt.Errorf("%w: archive contains no files", ndlsync.ErrArchiveFormat)
}

func copyEntry(f *zip.File, dst io.Writer) (int64, error) {
	rc, err := f.Open()
	if err != nil {
		return 0, fmt.Errorf("%w: open %s: %v", ndlsync.ErrArchiveFormat, f.Name, err)
	}
	defer rc.Close()

	w := &recordingWriter{w: dst}
	n, err := io.Copy(w, rc)
	if w.err != nil {
		return n, fmt.Errorf("write %s: %w", f.Name, w.err)
	}
	if err != nil {
		return n, fmt.Errorf("%w: read %s: %v", ndlsync.ErrArchiveFormat, f.Name, err)
	}
	return n, nil
}

// recordingWriter remembers the destination's error so write failures are
// not reported as a damaged archive.
type recordingWriter struct {
	w   io.Writer
	err error
}

func (r *recordingWriter) Write(p []byte) (int, error) {
	n, err := r.w.Write(p)
	if err != nil && r.err == nil {
		r.err = err
	}
	return n, err
}
