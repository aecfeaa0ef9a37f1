package proto

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Framing is newline-delimited JSON: one envelope per line, encoded as
// a single write. Unlike framing that relies on one send arriving as
// one receive, this survives the transport coalescing several writes
// into one read or splitting a write across reads.

// MaxFrameSize bounds a single encoded message on the wire.
const MaxFrameSize = 64 * 1024

// ErrFrameTooLarge reports a line exceeding MaxFrameSize before its
// terminating newline.
var ErrFrameTooLarge = errors.New("frame exceeds maximum size")

// Encoder writes newline-delimited JSON envelopes to a stream.
type Encoder struct {
	w *bufio.Writer
}

// NewEncoder wraps w for sending envelopes.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: bufio.NewWriter(w)}
}

// Encode marshals v, appends the delimiter and flushes, so each call
// results in exactly one framed message on the stream.
func (e *Encoder) Encode(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal frame: %w", err)
	}
	if len(data) >= MaxFrameSize {
		return ErrFrameTooLarge
	}
	if _, err := e.w.Write(data); err != nil {
		return err
	}
	if err := e.w.WriteByte('\n'); err != nil {
		return err
	}
	return e.w.Flush()
}

// Decoder reads newline-delimited JSON envelopes from a stream.
type Decoder struct {
	r *bufio.Reader
}

// NewDecoder wraps r for receiving envelopes.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReaderSize(r, 4096)}
}

// Decode reads the next frame into v. Blank lines are skipped so a
// peer probing the socket with bare newlines is harmless. A malformed
// frame returns an error and the connection should be considered dead.
func (d *Decoder) Decode(v any) error {
	for {
		line, err := d.readLine()
		if err != nil {
			return err
		}
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		if err := json.Unmarshal(line, v); err != nil {
			return fmt.Errorf("unmarshal frame: %w", err)
		}
		return nil
	}
}

func (d *Decoder) readLine() ([]byte, error) {
	var line []byte
	for {
		chunk, err := d.r.ReadSlice('\n')
		line = append(line, chunk...)
		if len(line) > MaxFrameSize {
			return nil, ErrFrameTooLarge
		}
		if err == nil {
			return line, nil
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if errors.Is(err, io.EOF) && len(bytes.TrimSpace(line)) > 0 {
			// Tolerate a final unterminated frame before EOF.
			return line, nil
		}
		return nil, err
	}
}
