package rpc

import (
	"encoding/json"

	"github.com/go-jsonrpc2/tcp/rpc/internal/wire"
)

// Codec bridges the byte-oriented Framer to typed JSONRequest/JSONResponse
// records (spec §4.2). It owns the cumulation buffer: inbound bytes are fed
// in with Feed, and NextFrame drains whole frames out of it one at a time.
type Codec struct {
	framer wire.Framer
	buf    []byte
}

// NewCodec wraps framer with a fresh, empty cumulation buffer.
func NewCodec(framer wire.Framer) *Codec {
	return &Codec{framer: framer}
}

// Feed appends newly read bytes to the cumulation buffer.
func (c *Codec) Feed(data []byte) {
	c.buf = append(c.buf, data...)
}

// Pending reports whether the cumulation buffer holds unconsumed bytes.
func (c *Codec) Pending() bool { return len(c.buf) > 0 }

// NextFrame extracts one complete frame's raw bytes from the cumulation
// buffer. ok is false when more bytes are needed; err is set only for a
// fatal framing error (ErrBadFraming / ErrRequestTooLarge).
func (c *Codec) NextFrame() (frame []byte, ok bool, err error) {
	f, consumed, status, ferr := c.framer.Decode(c.buf)
	if ferr != nil {
		if ferr == wire.ErrBadFraming {
			return nil, false, ErrBadFraming
		}
		if ferr == wire.ErrRequestTooLarge {
			return nil, false, ErrRequestTooLarge
		}
		return nil, false, ferr
	}
	if status == wire.NeedMoreData {
		return nil, false, nil
	}
	frame = append([]byte(nil), f...)
	c.buf = c.buf[consumed:]
	return frame, true, nil
}

// OnIdle implements the shared idle-read-event contract: a non-empty
// cumulation buffer at idle timeout is a frame that never completed.
func (c *Codec) OnIdle() error {
	if err := wire.OnIdle(c.buf); err != nil {
		return ErrBadFraming
	}
	return nil
}

// EncodeFrame frames payload for the wire.
func (c *Codec) EncodeFrame(payload []byte) []byte {
	return c.framer.Encode(nil, payload)
}

// DecodeRequest decodes one frame's bytes into a JSONRequest, wrapping any
// JSON error as BadJSONError and validating the record's invariants.
func DecodeRequest(frame []byte) (*JSONRequest, error) {
	var req JSONRequest
	if err := json.Unmarshal(frame, &req); err != nil {
		return nil, &BadJSONError{Cause: err}
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return &req, nil
}

// DecodeResponse decodes one frame's bytes into a JSONResponse, wrapping
// any JSON error as BadJSONError.
func DecodeResponse(frame []byte) (*JSONResponse, error) {
	var resp JSONResponse
	if err := json.Unmarshal(frame, &resp); err != nil {
		return nil, &BadJSONError{Cause: err}
	}
	return &resp, nil
}

// EncodeMessage marshals v (a *JSONRequest or *JSONResponse) to JSON bytes.
// Key order is not wire-significant; absent fields are omitted by the
// struct tags on JSONRequest/JSONResponse/JSONError.
func EncodeMessage(v any) ([]byte, error) {
	return json.Marshal(v)
}
