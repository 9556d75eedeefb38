// Package rpc implements a thin JSON-RPC 2.0 dispatcher over the Starknet
// method surface. RPC is a thin adapter: every handler here does argument
// decoding and BlockIdOrTag resolution only, delegating all real work to
// core/chain, core/state, and txpool.
package rpc

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"
)

// Request is a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string `json:"jsonrpc"`
	ID json.RawMessage `json:"id"`
	Method string `json:"method"`
	Params json.RawMessage `json:"params"`
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string `json:"jsonrpc"`
	ID json.RawMessage `json:"id"`
	Result interface{} `json:"result,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// Error is a JSON-RPC 2.0 error object.
type Error struct {
	Code int `json:"code"`
	Message string `json:"message"`
}

// Handler decodes params itself (they arrive as raw JSON) and returns a
// result or an error.
type Handler func(params json.RawMessage) (interface{}, error)

// Dispatcher routes by method name.
type Dispatcher struct {
	methods map[string]Handler
}

// NewDispatcher returns an empty Dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{methods: make(map[string]Handler)}
}

// Register binds method to handler.
func (d *Dispatcher) Register(method string, handler Handler) {
	d.methods[method] = handler
}

// Handle dispatches one decoded request.
func (d *Dispatcher) Handle(req Request) Response {
	h, ok := d.methods[req.Method]
	if !ok {
		return Response{JSONRPC: "2.0", ID: req.ID, Error: &Error{Code: -32601, Message: "method not found"}}
	}
	result, err := h(req.Params)
	if err != nil {
		return Response{JSONRPC: "2.0", ID: req.ID, Error: &Error{Code: -32000, Message: err.Error()}}
	}
	return Response{JSONRPC: "2.0", ID: req.ID, Result: result}
}

// Router mounts Handle behind a single POST / endpoint that decodes one
// JSON-RPC call per request; a batch (a JSON array of calls) does not
// decode and is answered with a parse error.
func (d *Dispatcher) Router() *httprouter.Router {
	r := httprouter.New()
	r.POST("/", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, Response{JSONRPC: "2.0", Error: &Error{Code: -32700, Message: "parse error"}})
			return
		}
		writeJSON(w, d.Handle(req))
	})
	return r
}

func writeJSON(w http.ResponseWriter, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
