package rpc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-jsonrpc2/tcp/rpc/internal/wire"
)

func TestCodecFeedAndNextFrameNewline(t *testing.T) {
	codec := NewCodec(wire.Newline{})
	framed := codec.EncodeFrame([]byte(`{"a":1}`))
	codec.Feed(framed)

	frame, ok, err := codec.NextFrame()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `{"a":1}`, string(frame))

	_, ok, err = codec.NextFrame()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCodecNextFrameWaitsForMoreData(t *testing.T) {
	codec := NewCodec(wire.Newline{})
	codec.Feed([]byte(`{"a":1}`))
	_, ok, err := codec.NextFrame()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, codec.Pending())
}

func TestCodecNextFrameRequestTooLarge(t *testing.T) {
	codec := NewCodec(wire.Newline{})
	codec.Feed(make([]byte, wire.MaxPayload))
	_, _, err := codec.NextFrame()
	assert.ErrorIs(t, err, ErrRequestTooLarge)
}

func TestCodecOnIdleWithPendingBytesIsBadFraming(t *testing.T) {
	codec := NewCodec(wire.Newline{})
	codec.Feed([]byte(`{"a":1}`))
	assert.ErrorIs(t, codec.OnIdle(), ErrBadFraming)
}

func TestCodecOnIdleWithEmptyBufferIsNil(t *testing.T) {
	codec := NewCodec(wire.Newline{})
	assert.NoError(t, codec.OnIdle())
}

func TestDecodeRequestRejectsMalformedJSON(t *testing.T) {
	_, err := DecodeRequest([]byte(`{not json`))
	var badJSON *BadJSONError
	assert.ErrorAs(t, err, &badJSON)
}

func TestDecodeRequestRejectsMissingFields(t *testing.T) {
	_, err := DecodeRequest([]byte(`{"jsonrpc":"2.0","id":"","method":"add"}`))
	assert.ErrorIs(t, err, ErrBadFraming)
}

func TestDecodeRequestAccepts(t *testing.T) {
	req, err := DecodeRequest([]byte(`{"jsonrpc":"2.0","id":"1","method":"add","params":{"a":1,"b":2}}`))
	require.NoError(t, err)
	assert.Equal(t, "add", req.Method)
	params, err := req.ParamsObject()
	require.NoError(t, err)
	dict, ok := params.AsDict()
	require.True(t, ok)
	assert.Len(t, dict, 2)
}

func TestDecodeResponseRejectsMalformedJSON(t *testing.T) {
	_, err := DecodeResponse([]byte(`not json at all`))
	var badJSON *BadJSONError
	assert.ErrorAs(t, err, &badJSON)
}
