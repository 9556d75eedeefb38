package rpc

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDispatcherHandleUnknownMethod(t *testing.T) {
	d := NewDispatcher()
	resp := d.Handle(Request{JSONRPC: "2.0", Method: "starknet_nope"})
	require.NotNil(t, resp.Error)
	require.Equal(t, -32601, resp.Error.Code)
	require.Nil(t, resp.Result)
}

func TestDispatcherHandleSuccess(t *testing.T) {
	d := NewDispatcher()
	d.Register("starknet_chainId", func(params json.RawMessage) (interface{}, error) {
		return "0x534e5f5345504f4c4941", nil
	})

	resp := d.Handle(Request{JSONRPC: "2.0", Method: "starknet_chainId"})
	require.Nil(t, resp.Error)
	require.Equal(t, "0x534e5f5345504f4c4941", resp.Result)
}

func TestDispatcherHandlePropagatesHandlerError(t *testing.T) {
	d := NewDispatcher()
	d.Register("starknet_fails", func(params json.RawMessage) (interface{}, error) {
		return nil, errBoom
	})

	resp := d.Handle(Request{JSONRPC: "2.0", Method: "starknet_fails"})
	require.NotNil(t, resp.Error)
	require.Equal(t, -32000, resp.Error.Code)
	require.Equal(t, "boom", resp.Error.Message)
}

var errBoom = boomErr{}

type boomErr struct{}

func (boomErr) Error() string { return "boom" }

func TestRouterDispatchesPost(t *testing.T) {
	d := NewDispatcher()
	d.Register("starknet_blockNumber", func(params json.RawMessage) (interface{}, error) {
		return 42, nil
	})

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"jsonrpc":"2.0","id":1,"method":"starknet_blockNumber"}`))
	rec := httptest.NewRecorder()
	d.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Nil(t, resp.Error)
	require.Equal(t, float64(42), resp.Result)
}

func TestRouterReturnsParseErrorOnBadJSON(t *testing.T) {
	d := NewDispatcher()
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`not json`))
	rec := httptest.NewRecorder()
	d.Router().ServeHTTP(rec, req)

	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.NotNil(t, resp.Error)
	require.Equal(t, -32700, resp.Error.Code)
}
