package wire

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFrame struct {
	Method string `json:"method"`
}

func roundTrip(t *testing.T, f Framer, payloads [][]byte, chunk int) {
	t.Helper()
	var wire []byte
	for _, p := range payloads {
		wire = f.Encode(wire, p)
	}

	var buf []byte
	var got [][]byte
	for i := 0; i < len(wire); i += chunk {
		end := i + chunk
		if end > len(wire) {
			end = len(wire)
		}
		buf = append(buf, wire[i:end]...)
		for {
			frame, consumed, status, err := f.Decode(buf)
			require.NoError(t, err)
			if status == NeedMoreData {
				break
			}
			got = append(got, append([]byte(nil), frame...))
			buf = buf[consumed:]
		}
	}
	require.Len(t, got, len(payloads))
	for i, p := range payloads {
		assert.Equal(t, string(p), string(got[i]))
	}
}

func TestNewlineRoundTrip(t *testing.T) {
	payloads := [][]byte{[]byte(`{"a":1}`), []byte(`{"b":2}`), []byte(`{}`)}
	for chunk := 1; chunk <= 64; chunk++ {
		roundTrip(t, Newline{}, payloads, chunk)
	}
}

func TestNewlineNeedsMoreData(t *testing.T) {
	_, _, status, err := Newline{}.Decode([]byte("a"))
	require.NoError(t, err)
	assert.Equal(t, NeedMoreData, status)

	_, _, status, err = Newline{}.Decode([]byte("a\r"))
	require.NoError(t, err)
	assert.Equal(t, NeedMoreData, status)
}

func TestNewlineTooLarge(t *testing.T) {
	big := bytes.Repeat([]byte("a"), MaxPayload)
	_, _, _, err := Newline{}.Decode(big)
	assert.ErrorIs(t, err, ErrRequestTooLarge)
}

func TestJsonPosRoundTrip(t *testing.T) {
	payloads := [][]byte{[]byte(`{"a":1}`), []byte(`{"b":2}`), []byte(`{}`)}
	for chunk := 1; chunk <= 64; chunk++ {
		roundTrip(t, JsonPos{}, payloads, chunk)
	}
}

func TestJsonPosExactEncoding(t *testing.T) {
	frame := JsonPos{}.Encode(nil, []byte(`{"a":1}`))
	assert.Equal(t, "00000007:{\"a\":1}\n", string(frame))
}

func TestJsonPosAcceptsUppercaseHex(t *testing.T) {
	buf := []byte("0000000A:0123456789\n")
	frame, consumed, status, err := JsonPos{}.Decode(buf)
	require.NoError(t, err)
	require.Equal(t, Continue, status)
	assert.Equal(t, "0123456789", string(frame))
	assert.Equal(t, len(buf), consumed)
}

func TestJsonPosBadHexIsBadFraming(t *testing.T) {
	_, _, _, err := JsonPos{}.Decode([]byte("zzzzzzzz:{}\n"))
	assert.ErrorIs(t, err, ErrBadFraming)
}

func TestJsonPosMissingColonIsBadFraming(t *testing.T) {
	_, _, _, err := JsonPos{}.Decode([]byte("00000002x{}\n"))
	assert.ErrorIs(t, err, ErrBadFraming)
}

func TestJsonPosWaitsForTrailingNewline(t *testing.T) {
	_, _, status, err := JsonPos{}.Decode([]byte("00000002:{}"))
	require.NoError(t, err)
	assert.Equal(t, NeedMoreData, status)
}

func newBruteForceFramer() BruteForce {
	return BruteForce{New: func() any { return new(fakeFrame) }}
}

func TestBruteForceRoundTrip(t *testing.T) {
	payloads := [][]byte{[]byte(`{"method":"a"}`), []byte(`{"method":"b"}`)}
	for chunk := 1; chunk <= 32; chunk++ {
		roundTrip(t, newBruteForceFramer(), payloads, chunk)
	}
}

func TestBruteForceToleratesNestedClosingBrace(t *testing.T) {
	f := newBruteForceFramer()
	buf := []byte(`{"method":"m","params":{}}`)
	// Every prefix ending in '}' before the real end must not produce a
	// frame: the nested object's close brace should not cause premature
	// framing.
	for i := 1; i < len(buf); i++ {
		if buf[i-1] != '}' {
			continue
		}
		_, _, status, err := f.Decode(buf[:i])
		require.NoError(t, err)
		if i != len(buf) {
			assert.Equal(t, NeedMoreData, status, "prefix length %d falsely framed", i)
		}
	}
	frame, consumed, status, err := f.Decode(buf)
	require.NoError(t, err)
	require.Equal(t, Continue, status)
	assert.Equal(t, len(buf), consumed)
	assert.Equal(t, string(buf), string(frame))
}

func TestBruteForceTooLargeTakesPrecedenceOverDecodeFailure(t *testing.T) {
	f := newBruteForceFramer()
	big := append(bytes.Repeat([]byte("x"), MaxPayload), '}')
	_, _, _, err := f.Decode(big)
	assert.ErrorIs(t, err, ErrRequestTooLarge)
}

func TestOnIdle(t *testing.T) {
	assert.NoError(t, OnIdle(nil))
	assert.ErrorIs(t, OnIdle([]byte("partial")), ErrBadFraming)
}
