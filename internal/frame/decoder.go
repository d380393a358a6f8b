// internal/frame/decoder.go
package frame

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Terminator ends every document on the wire. There is no length prefix.
const Terminator = '\x00'

// Split appends chunk to remainder and cuts the result on NUL.
// All but the last segment are complete frames; the last segment
// (possibly empty) is the new remainder.
// Pure: no state, no parsing.
func Split(remainder, chunk string) (frames []string, rest string) {
	parts := strings.Split(remainder+chunk, string(Terminator))
	return parts[:len(parts)-1], parts[len(parts)-1]
}

// DefaultMaxPending bounds the bytes buffered while waiting for a
// terminator.
const DefaultMaxPending = 16 << 20

// ErrOversize is reported when a peer sends more than the pending limit
// without a terminator. The buffered bytes are discarded.
var ErrOversize = errors.New("frame: document exceeds size limit without terminator")

// Decoder carries the undecoded tail of ONE byte stream.
// Each role owns its own Decoder: the two sessions are unrelated streams.
// Not safe for concurrent use; the session reader is its only caller.
type Decoder struct {
	// MaxPending overrides DefaultMaxPending when positive.
	MaxPending int

	buf []byte
}

// Feed consumes one socket read and returns every complete document.
// A frame that is not valid JSON yields an error for that frame only;
// the remainder is never affected by a parse failure.
// Only the new bytes are scanned for terminators.
func (d *Decoder) Feed(chunk []byte) ([]json.RawMessage, []error) {
	scan := len(d.buf)
	d.buf = append(d.buf, chunk...)

	var (
		docs []json.RawMessage
		errs []error
		head int
	)
	for {
		i := bytes.IndexByte(d.buf[scan:], Terminator)
		if i < 0 {
			break
		}
		end := scan + i
		f := d.buf[head:end]
		head, scan = end+1, end+1

		if len(bytes.TrimSpace(f)) == 0 {
			continue
		}
		if !json.Valid(f) {
			errs = append(errs, fmt.Errorf("frame: malformed json document (%d bytes): %.64q", len(f), f))
			continue
		}
		docs = append(docs, json.RawMessage(bytes.Clone(f)))
	}
	if head > 0 {
		d.buf = append(d.buf[:0], d.buf[head:]...)
	}

	if n := len(d.buf); n > d.maxPending() {
		d.Reset()
		errs = append(errs, fmt.Errorf("%w: %d bytes", ErrOversize, n))
	}
	return docs, errs
}

func (d *Decoder) maxPending() int {
	if d.MaxPending > 0 {
		return d.MaxPending
	}
	return DefaultMaxPending
}

// Pending returns the number of buffered bytes waiting for a terminator.
func (d *Decoder) Pending() int {
	return len(d.buf)
}

// Reset drops any buffered partial frame. Called on every (re)connect.
func (d *Decoder) Reset() {
	d.buf = nil
}

// Encode marshals v and appends the terminator.
func Encode(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("frame: encode: %w", err)
	}
	return append(b, Terminator), nil
}
