package rpc

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSONRequestOmitsParamsWhenNone(t *testing.T) {
	req, err := NewJSONRequest("1", "add", None)
	require.NoError(t, err)
	data, err := json.Marshal(req)
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":"1","method":"add"}`, string(data))
}

func TestNewJSONRequestEncodesParams(t *testing.T) {
	params := Dict(map[string]RPCObject{"a": Integer(1), "b": Integer(2)})
	req, err := NewJSONRequest("2", "add", params)
	require.NoError(t, err)
	data, err := json.Marshal(req)
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":"2","method":"add","params":{"a":1,"b":2}}`, string(data))
}

func TestJSONRequestValidateRejectsWrongVersion(t *testing.T) {
	req := &JSONRequest{JSONRPC: "1.0", ID: "1", Method: "add"}
	assert.ErrorIs(t, req.Validate(), ErrBadFraming)
}

func TestJSONRequestValidateRejectsEmptyIDOrMethod(t *testing.T) {
	assert.Error(t, (&JSONRequest{JSONRPC: Version, ID: "", Method: "add"}).Validate())
	assert.Error(t, (&JSONRequest{JSONRPC: Version, ID: "1", Method: ""}).Validate())
}

func TestNewResultResponseOmitsError(t *testing.T) {
	resp, err := NewResultResponse("7", Integer(3))
	require.NoError(t, err)
	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":"7","result":3}`, string(data))
}

func TestNewErrorResponseOmitsResult(t *testing.T) {
	resp := NewErrorResponse("7", CodeMethodNotFound, "unknown method: frobnicate")
	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":"7","error":{"code":-32601,"message":"unknown method: frobnicate"}}`, string(data))
}

func TestJSONResponseResultObjectDecodesResult(t *testing.T) {
	resp, err := NewResultResponse("1", List(Integer(1), Integer(2)))
	require.NoError(t, err)
	obj, err := resp.ResultObject()
	require.NoError(t, err)
	items, ok := obj.AsList()
	require.True(t, ok)
	assert.Len(t, items, 2)
}
