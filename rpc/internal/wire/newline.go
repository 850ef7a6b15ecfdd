package wire

import "bytes"

var crlf = []byte{'\r', '\n'}

// Newline frames payloads with a trailing "\r\n" delimiter. It never
// escapes an embedded CRLF in the payload, and Decode splits at the first
// CRLF it finds. JSON text cannot contain a raw CR or LF inside a quoted
// string, but may use them as whitespace between tokens; compact JSON such
// as encoding/json's output has none, so for it the delimiter is
// unambiguous.
type Newline struct{}

func (Newline) Decode(buf []byte) ([]byte, int, Status, error) {
	if len(buf) >= MaxPayload {
		return nil, 0, NeedMoreData, ErrRequestTooLarge
	}
	// Minimum viable frame is a 1-byte payload plus the 2-byte delimiter.
	if len(buf) < 3 {
		return nil, 0, NeedMoreData, nil
	}
	i := bytes.Index(buf, crlf)
	if i < 0 {
		return nil, 0, NeedMoreData, nil
	}
	return buf[:i], i + len(crlf), Continue, nil
}

func (Newline) Encode(dst []byte, payload []byte) []byte {
	dst = append(dst, payload...)
	dst = append(dst, crlf...)
	return dst
}
