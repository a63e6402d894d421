package transport

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
)

// Stdio returns a Transport that frames messages one-per-line on r/wc: each
// outbound frame is terminated by a single LF, and each inbound frame is
// read up to (and excluding) the next LF. Outbound frames may not themselves
// contain an LF byte, which holds for any compact JSON encoding.
//
// This mirrors the newline-delimited framing many MCP stdio servers use.
func Stdio(r io.Reader, wc io.WriteCloser) Transport {
	return &lineTransport{wc: wc, buf: bufio.NewReader(r)}
}

type lineTransport struct {
	mu  sync.Mutex
	wc  io.WriteCloser
	buf *bufio.Reader
}

func (t *lineTransport) Connect(context.Context) error { return nil }

func (t *lineTransport) Disconnect() error { return t.wc.Close() }

func (t *lineTransport) Send(_ context.Context, msg []byte) error {
	if bytes.IndexByte(msg, '\n') >= 0 {
		return errors.New("transport: frame contains a newline")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]byte, len(msg)+1)
	copy(out, msg)
	out[len(msg)] = '\n'
	_, err := t.wc.Write(out)
	return err
}

func (t *lineTransport) Receive(context.Context) ([]byte, error) {
	var out bytes.Buffer
	for {
		chunk, err := t.buf.ReadSlice('\n')
		out.Write(chunk)
		if err == bufio.ErrBufferFull {
			continue
		}
		line := out.Bytes()
		if n := len(line) - 1; n >= 0 && err == nil {
			return append([]byte(nil), line[:n]...), nil
		}
		return nil, err
	}
}

func (t *lineTransport) Logger() Logger { return nil }

// JSONValues returns a Transport that frames messages on r/wc by JSON syntax
// alone: each inbound frame is exactly one JSON value as determined by
// json.Decoder, with no surrounding delimiter. Outbound frames are written
// verbatim. This is useful for peers that emit compact JSON without
// newlines.
func JSONValues(r io.Reader, wc io.WriteCloser) Transport {
	return &jsonTransport{wc: wc, dec: newJSONDecoder(r)}
}
