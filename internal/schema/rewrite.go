package schema

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// RewriteIndicators copies the metadata CSV from r to w in canonical form:
// every field is written verbatim unless it contains a comma, quote or line
// break, in which case it is quoted. In vendor files only the free-text
// description column ever needs quoting, so the output differs from the input
// only where the description was quoted inconsistently.
func RewriteIndicators(r io.Reader, w io.Writer) error {
	cr := csv.NewReader(&bomStripper{r: r})
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("metadata file is empty")
	}
	if err != nil {
		return fmt.Errorf("read metadata header: %w", err)
	}

	bw := bufio.NewWriter(w)
	if err := writeRecord(bw, header); err != nil {
		return err
	}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("read metadata: %w", err)
		}
		if err := writeRecord(bw, rec); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func writeRecord(w *bufio.Writer, rec []string) error {
	for i, f := range rec {
		if i > 0 {
			if err := w.WriteByte(','); err != nil {
				return err
			}
		}
		out := f
		if needsQuotes(f) {
			out = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
		}
		if _, err := w.WriteString(out); err != nil {
			return err
		}
	}
	_, err := w.WriteString("\n")
	return err
}

func needsQuotes(f string) bool {
	return strings.ContainsAny(f, ",\"\r\n")
}
