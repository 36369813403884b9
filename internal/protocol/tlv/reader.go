package tlv

// Reader scans frames packed back to back into one fixed buffer. It is a
// finite, non-restartable sequence: the first decode failure of any kind,
// including a registered-but-truncated trailing frame, ends the scan for
// good. Bad bytes are never skipped.
type Reader struct {
	buf  []byte
	off  int
	err  error
	done bool
}

// NewReader returns a Reader positioned at the start of buf.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Next returns the next frame in the buffer. ok is false once the scan has
// ended, either because the buffer is exhausted or because decoding failed.
func (r *Reader) Next() (Frame, bool) {
	if r.done {
		return Frame{}, false
	}
	f, n, err := Decode(r.buf[r.off:])
	if err != nil {
		r.done = true
		if r.off < len(r.buf) {
			// Leftover bytes that did not decode; callers that care can
			// distinguish this from a clean end of buffer.
			r.err = err
		}
		return Frame{}, false
	}
	r.off += n
	return f, true
}

// Err reports the decode failure that stopped the scan, or nil when the
// buffer was consumed exactly.
func (r *Reader) Err() error {
	return r.err
}

// Offset reports how many bytes of the buffer have been consumed.
func (r *Reader) Offset() int {
	return r.off
}
