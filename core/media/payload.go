package media

import (
	"bytes"
	"io"
	"strings"
)

// Payload is the content handed to Set: an in-memory buffer, a string or a
// stream. Build one with Bytes, Text or Stream.
type Payload struct {
	reader io.Reader
	size   int64
}

// Bytes wraps an in-memory buffer.
func Bytes(data []byte) Payload {
	return Payload{reader: bytes.NewReader(data), size: int64(len(data))}
}

// Text wraps a string.
func Text(s string) Payload {
	return Payload{reader: strings.NewReader(s), size: int64(len(s))}
}

// Stream wraps a reader. size is -1 when the length is unknown.
func Stream(r io.Reader, size int64) Payload {
	if size < 0 {
		size = -1
	}
	return Payload{reader: r, size: size}
}

func (p Payload) valid() bool {
	return p.reader != nil
}

// drain reads body to the end and closes it.
func drain(body io.ReadCloser) ([]byte, error) {
	defer body.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(body); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
