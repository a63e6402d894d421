package transport

import (
	"context"
	"encoding/json"
	"io"
)

func newJSONDecoder(r io.Reader) *json.Decoder { return json.NewDecoder(r) }

type jsonTransport struct {
	wc  io.WriteCloser
	dec *json.Decoder
}

func (j *jsonTransport) Connect(context.Context) error { return nil }

func (j *jsonTransport) Disconnect() error { return j.wc.Close() }

func (j *jsonTransport) Send(_ context.Context, msg []byte) error {
	_, err := j.wc.Write(msg)
	return err
}

func (j *jsonTransport) Receive(context.Context) ([]byte, error) {
	var msg json.RawMessage
	if err := j.dec.Decode(&msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func (j *jsonTransport) Logger() Logger { return nil }
