package server

import (
	"encoding/json"

	"connectrpc.com/connect"
)

// jsonCodec serves the plain Go messages in messages.go. It takes the "json"
// name, so it replaces connect's protojson codec for application/json.
type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (jsonCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, msg)
}

// Codec returns the option clients and handlers need to speak to this server.
func Codec() connect.Option {
	return connect.WithCodec(jsonCodec{})
}
