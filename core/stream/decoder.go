package stream

import (
	"bytes"
	"strings"
)

// LineDecoder splits a chunked byte stream into complete lines.
//
// Bytes are buffered until a newline arrives, so neither a line nor a
// multi-byte character can be torn by a chunk boundary. Invalid UTF-8 is
// replaced with U+FFFD.
type LineDecoder struct {
	carry []byte
}

// Feed consumes the next chunk and returns every line it completed, without
// the line terminator. The trailing fragment is kept for the next call.
func (d *LineDecoder) Feed(chunk []byte) []string {
	d.carry = append(d.carry, chunk...)

	var lines []string
	for {
		i := bytes.IndexByte(d.carry, '\n')
		if i < 0 {
			break
		}
		line := bytes.TrimSuffix(d.carry[:i], []byte{'\r'})
		lines = append(lines, strings.ToValidUTF8(string(line), "�"))
		d.carry = d.carry[i+1:]
	}

	if len(d.carry) == 0 {
		d.carry = nil
	}
	return lines
}

// End discards any buffered fragment. A final frame without a trailing
// newline is not a complete event.
func (d *LineDecoder) End() {
	d.carry = nil
}

// Pending reports how many bytes are buffered waiting for a newline.
func (d *LineDecoder) Pending() int {
	return len(d.carry)
}
