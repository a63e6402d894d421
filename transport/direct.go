package transport

import (
	"context"
	"errors"
	"io"
)

// Direct returns a pair of connected in-memory transports that pass frames
// directly between them with no encoding or copying beyond what is needed to
// avoid data races between the two ends. It is primarily useful for tests and
// for wiring a Client and Server together inside the same process.
func Direct() (client, server Transport) {
	c2s := make(chan []byte, 16)
	s2c := make(chan []byte, 16)
	client = &direct{send: c2s, recv: s2c}
	server = &direct{send: s2c, recv: c2s}
	return
}

type direct struct {
	send chan<- []byte
	recv <-chan []byte
}

func (d *direct) Connect(context.Context) error { return nil }

func (d *direct) Disconnect() (err error) {
	defer func() {
		if recover() != nil {
			err = nil // already closed
		}
	}()
	close(d.send)
	return nil
}

func (d *direct) Send(ctx context.Context, msg []byte) (err error) {
	cp := make([]byte, len(msg))
	copy(cp, msg)
	defer func() {
		if recover() != nil {
			err = errors.New("send on closed transport")
		}
	}()
	select {
	case d.send <- cp:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *direct) Receive(ctx context.Context) ([]byte, error) {
	select {
	case msg, ok := <-d.recv:
		if !ok {
			return nil, io.EOF
		}
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (d *direct) Logger() Logger { return nil }
