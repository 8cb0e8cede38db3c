package rpc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/polyls/polyls/internal/perr"
)

// Decoder is an incremental pull parser over an async byte stream: it reads
// the blank-line-terminated header block, then exactly Content-Length body
// bytes, then parses the body as JSON. Only Content-Length is required;
// other headers (Content-Type, say) are accepted and ignored.
type Decoder struct {
	r *bufio.Reader
}

// NewDecoder wraps r for incremental message decoding.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

// ReadMessage blocks until one full message has been read, or returns a
// *perr.Error of Kind ProtocolError on malformed framing, or the underlying
// read error (typically io.EOF) when the stream has closed.
func (d *Decoder) ReadMessage() (*Message, error) {
	contentLength := -1

	for {
		line, err := d.r.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimRight(line, "\r\n")

		if line == "" {
			break // blank line terminates the header block
		}

		name, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, perr.New(perr.ProtocolError, fmt.Sprintf("malformed header line %q", line))
		}
		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)

		switch strings.ToLower(name) {
		case "content-length":
			n, err := strconv.Atoi(value)
			if err != nil || n < 0 {
				return nil, perr.New(perr.ProtocolError, fmt.Sprintf("invalid Content-Length %q", value))
			}
			contentLength = n
		case "content-type":
			// accepted and ignored
		}
	}

	if contentLength < 0 {
		return nil, perr.New(perr.ProtocolError, "missing Content-Length header")
	}

	body := make([]byte, contentLength)
	if _, err := io.ReadFull(d.r, body); err != nil {
		return nil, err
	}

	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, perr.Wrap(perr.ProtocolError, "malformed JSON-RPC body", err)
	}
	return &msg, nil
}

// Encoder serializes messages and writes them, frame and all, atomically to
// the underlying writer (a child process's stdin). A single mutex protects
// the interleaving of header and body writes from concurrent senders.
type Encoder struct {
	mu sync.Mutex
	w  io.Writer
}

// NewEncoder wraps w for message encoding.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// WriteMessage marshals msg and writes the framed result in one locked
// section so two goroutines calling WriteMessage concurrently never
// interleave their header and body bytes.
func (e *Encoder) WriteMessage(msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	header := fmt.Sprintf("Content-Length: %d\r\n\r\n", len(body))
	if _, err := io.WriteString(e.w, header); err != nil {
		return err
	}
	if _, err := e.w.Write(body); err != nil {
		return err
	}
	return nil
}
