// Package rope implements the bounded byte accumulator pipeline stages and
// command substitution use to collect output without per-write allocation,
// generalizing the single-buffer reuse trick the teacher's interp.Runner
// applies to pipe copies (bufCopier in interp/interp.go) into a standalone,
// optionally size-capped type.
package rope

import (
	"errors"
	"io"
)

// ErrCapped is returned by Write once appending would exceed the rope's
// cap, the in-process analogue of a pipeline stage whose consumer stopped
// reading (spec.md §4.1's bounded pipe-buffer invariant).
var ErrCapped = errors.New("rope: output exceeds capacity")

// Rope is a growable byte buffer with amortized append, optionally capped
// to a maximum size. The zero value is an empty, uncapped Rope.
type Rope struct {
	buf   []byte
	limit int // 0 means uncapped
}

// New returns an empty Rope with no size limit.
func New() *Rope { return &Rope{} }

// Capped returns an empty Rope that refuses to grow past limit bytes.
func Capped(limit int) *Rope {
	return &Rope{limit: limit}
}

// Write implements io.Writer, appending p to the rope. If the rope is
// capped and p would push it over the limit, the rope keeps whatever
// portion fits, writes nothing further, and returns ErrCapped.
func (r *Rope) Write(p []byte) (int, error) {
	if r.limit == 0 || len(r.buf)+len(p) <= r.limit {
		r.buf = append(r.buf, p...)
		return len(p), nil
	}
	room := r.limit - len(r.buf)
	if room > 0 {
		r.buf = append(r.buf, p[:room]...)
	}
	return room, ErrCapped
}

// WriteString appends s the same way Write appends a []byte.
func (r *Rope) WriteString(s string) (int, error) {
	return r.Write([]byte(s))
}

// WriteByte appends a single byte, honouring the cap.
func (r *Rope) WriteByte(b byte) error {
	_, err := r.Write([]byte{b})
	return err
}

// Len returns the number of bytes currently held.
func (r *Rope) Len() int { return len(r.buf) }

// Bytes returns the rope's contents. The returned slice aliases the rope's
// internal buffer and must not be modified by the caller.
func (r *Rope) Bytes() []byte { return r.buf }

// String returns a copy of the rope's contents as a string.
func (r *Rope) String() string { return string(r.buf) }

// Reset empties the rope without releasing its backing array, so a Rope can
// be reused across pipeline stages the way the teacher reuses bufCopier's
// buffer across pipe copies.
func (r *Rope) Reset() { r.buf = r.buf[:0] }

// WriteTo implements io.WriterTo, letting io.Copy avoid an intermediate
// allocation when draining a Rope into another writer.
func (r *Rope) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(r.buf)
	return int64(n), err
}
