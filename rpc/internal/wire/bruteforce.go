package wire

import (
	"bytes"
	"encoding/json"
)

// BruteForce frames nothing explicitly: it waits for the cumulation buffer
// to end in '}' and then attempts to decode the first JSON document in the
// buffer as the caller-supplied shape. A buffer holding exactly one document
// is emitted whole; when several documents arrived together, the first is
// emitted and the rest stay in the buffer for the next Decode. It exists for
// peers that write one JSON object per syscall with no trailer byte at all.
//
// This trades clarity for permissiveness: a '}' that closes a nested object
// (e.g. the params object of a request) does not by itself complete a
// frame, because the subsequent decode of the whole buffer still fails
// until the outer object closes too.
type BruteForce struct {
	// New returns a fresh pointer to decode a candidate frame into, e.g.
	// func() any { return new(JSONRequest) }. It is called once per decode
	// attempt so a failed attempt never leaves partial state behind.
	New func() any
}

func (f BruteForce) Decode(buf []byte) ([]byte, int, Status, error) {
	if len(buf) >= MaxPayload {
		return nil, 0, NeedMoreData, ErrRequestTooLarge
	}
	if len(buf) == 0 || buf[len(buf)-1] != '}' {
		return nil, 0, NeedMoreData, nil
	}
	// encoding/json has no separate "exception" class distinct from a
	// decode error; every failure here (syntax error, unexpected type,
	// truncated value) is exactly the "more bytes may complete this value"
	// case the spec calls out, so all of them map to NeedMoreData.
	dec := json.NewDecoder(bytes.NewReader(buf))
	if err := dec.Decode(f.New()); err != nil {
		return nil, 0, NeedMoreData, nil
	}
	n := int(dec.InputOffset())
	return buf[:n], n, Continue, nil
}

func (BruteForce) Encode(dst []byte, payload []byte) []byte {
	return append(dst, payload...)
}
