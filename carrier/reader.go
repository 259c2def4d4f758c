// Package carrier moves carrier samples between receivers, files and the
// decoder. A sample is true while the WWVB carrier is reduced.
//
// In text form each sample is one character: '_' for reduced carrier and
// '#' for full carrier. All other bytes, line breaks included, are ignored.
package carrier

import (
	"bufio"
	"io"
)

const (
	ReducedChar = '_'
	FullChar    = '#'
)

// Source delivers one sample per call. It returns io.EOF when the stream ends.
type Source interface {
	ReadSample() (bool, error)
}

// Reader decodes the text sample format.
type Reader struct {
	r *bufio.Reader
}

// NewReader returns a Reader taking samples from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// ReadSample returns the next sample, skipping unrelated bytes.
func (r *Reader) ReadSample() (bool, error) {
	for {
		c, err := r.r.ReadByte()
		if err != nil {
			return false, err
		}
		switch c {
		case ReducedChar:
			return true, nil
		case FullChar:
			return false, nil
		}
	}
}

// Writer encodes samples in the text format, one line per second.
type Writer struct {
	w       *bufio.Writer
	perLine int
	n       int
}

// NewWriter returns a Writer that breaks lines every perLine samples.
// perLine <= 0 disables line breaks.
func NewWriter(w io.Writer, perLine int) *Writer {
	return &Writer{w: bufio.NewWriter(w), perLine: perLine}
}

// WriteSample appends one sample.
func (w *Writer) WriteSample(b bool) error {
	c := byte(FullChar)
	if b {
		c = ReducedChar
	}
	if err := w.w.WriteByte(c); err != nil {
		return err
	}
	w.n++
	if w.perLine > 0 && w.n%w.perLine == 0 {
		return w.w.WriteByte('\n')
	}
	return nil
}

// Flush writes any buffered data.
func (w *Writer) Flush() error {
	return w.w.Flush()
}

// Slice serves samples from memory.
type Slice struct {
	samples []bool
	index   int
}

// NewSlice returns a Source over samples.
func NewSlice(samples []bool) *Slice {
	return &Slice{samples: samples}
}

// ReadSample returns the next sample or io.EOF.
func (s *Slice) ReadSample() (bool, error) {
	if s.index >= len(s.samples) {
		return false, io.EOF
	}
	b := s.samples[s.index]
	s.index++
	return b, nil
}

// Inverted flips every sample of a receiver whose output is active high
// on full carrier.
type Inverted struct {
	Source
}

// ReadSample returns the negated sample of the wrapped source.
func (s Inverted) ReadSample() (bool, error) {
	b, err := s.Source.ReadSample()
	return !b, err
}
