package schema

import (
	"bufio"
	"bytes"
	"io"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// bomStripper drops a leading UTF-8 byte order mark so the first header
// column matches its metadata name.
type bomStripper struct {
	r       io.Reader
	br      *bufio.Reader
	checked bool
}

func (b *bomStripper) Read(p []byte) (int, error) {
	if !b.checked {
		b.checked = true
		b.br = bufio.NewReader(b.r)
		if prefix, err := b.br.Peek(len(utf8BOM)); err == nil && bytes.Equal(prefix, utf8BOM) {
			_, _ = b.br.Discard(len(utf8BOM))
		}
	}
	return b.br.Read(p)
}
