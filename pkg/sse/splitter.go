package sse

import "strings"

// Splitter cuts decoded text into discrete event records at blank-line
// boundaries. An unterminated trailing fragment is retained across feeds;
// no byte is ever discarded before its record boundary is seen.
type Splitter struct {
	buf strings.Builder
}

// NewSplitter creates an empty splitter.
func NewSplitter() *Splitter {
	return &Splitter{}
}

// Feed appends text and returns every complete record now available, in
// order. Records are separated by a blank line ("\n\n", with "\r\n\r\n"
// tolerated). The text after the final boundary stays buffered.
func (s *Splitter) Feed(text string) []string {
	s.buf.WriteString(text)

	pending := s.buf.String()
	var records []string
	for {
		idx, width := nextBoundary(pending)
		if idx < 0 {
			break
		}
		records = append(records, pending[:idx])
		pending = pending[idx+width:]
	}

	s.buf.Reset()
	s.buf.WriteString(pending)
	return records
}

// Remainder returns the buffered unterminated fragment without consuming it.
func (s *Splitter) Remainder() string {
	return s.buf.String()
}

// Flush drains the remainder. A non-empty remainder at end of stream is an
// unterminated record; an empty one must not produce a record at all.
func (s *Splitter) Flush() (string, bool) {
	rem := s.buf.String()
	s.buf.Reset()
	if rem == "" {
		return "", false
	}
	return rem, true
}

// nextBoundary locates the first blank-line separator, returning its index
// and width, or (-1, 0) when none remains.
func nextBoundary(text string) (int, int) {
	lf := strings.Index(text, "\n\n")
	crlf := strings.Index(text, "\r\n\r\n")
	switch {
	case crlf >= 0 && (lf < 0 || crlf < lf):
		return crlf, 4
	case lf >= 0:
		return lf, 2
	}
	return -1, 0
}
