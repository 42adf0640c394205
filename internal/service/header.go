package service

import (
	"bytes"
	"encoding/csv"
	"io"
	"strings"

	"github.com/thegoodparty/gp-api-sub001/internal/domain"
)

// headerRewriter wraps the downstream writer of a CSV stream and rewrites
// only the first line, substituting each vendor source column for its export
// label per the column mapping. It operates strictly on the header line,
// independent of how the stream is chunked: bytes are buffered only until
// the first newline arrives, then everything passes straight through.
type headerRewriter struct {
	dst    io.Writer
	labels map[string]string
	buf    bytes.Buffer // header bytes seen before the first newline
	done   bool
}

// newHeaderRewriter builds a rewriter for the given mapping. When a source
// column appears twice in the mapping the first label wins, mirroring the
// left-to-right order the projection was assembled in.
func newHeaderRewriter(dst io.Writer, mapping domain.ColumnMapping) *headerRewriter {
	labels := make(map[string]string, len(mapping))
	for _, pair := range mapping {
		if _, ok := labels[pair.Source]; !ok {
			labels[pair.Source] = pair.Label
		}
	}
	return &headerRewriter{dst: dst, labels: labels}
}

// Write buffers until the header line is complete, rewrites it, then
// forwards all subsequent bytes unmodified. Row data is never inspected, so
// column names recurring inside row values are safe.
func (h *headerRewriter) Write(p []byte) (int, error) {
	if h.done {
		return h.dst.Write(p)
	}

	i := bytes.IndexByte(p, '\n')
	if i < 0 {
		h.buf.Write(p)
		return len(p), nil
	}

	h.buf.Write(p[:i+1])
	h.done = true
	if err := h.flushHeader(); err != nil {
		return 0, err
	}
	if len(p) > i+1 {
		if _, err := h.dst.Write(p[i+1:]); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

// Flush drains a buffered partial header when the stream ended before any
// newline arrived. A normal COPY stream always terminates its header line,
// so this only matters for truncated streams.
func (h *headerRewriter) Flush() error {
	if h.done || h.buf.Len() == 0 {
		return nil
	}
	h.done = true
	return h.flushHeader()
}

// flushHeader parses the buffered line as CSV, maps each field through the
// label table, and writes the rewritten line downstream. A line that does
// not parse as CSV is passed through untouched rather than dropped.
func (h *headerRewriter) flushHeader() error {
	line := h.buf.String()

	fields, err := csv.NewReader(strings.NewReader(line)).Read()
	if err != nil {
		_, werr := io.WriteString(h.dst, line)
		return werr
	}

	for i, field := range fields {
		if label, ok := h.labels[field]; ok {
			fields[i] = label
		}
	}

	var out bytes.Buffer
	w := csv.NewWriter(&out)
	if err := w.Write(fields); err != nil {
		return err
	}
	w.Flush()
	_, err = h.dst.Write(out.Bytes())
	return err
}

// countingWriter counts the bytes that actually reached the downstream
// writer, for stats and metrics.
type countingWriter struct {
	dst io.Writer
	n   int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.dst.Write(p)
	c.n += int64(n)
	return n, err
}
