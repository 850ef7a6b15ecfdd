package rpc

import (
	"golang.org/x/xerrors"
)

// Codec errors (spec §3: "Codec errors").
var (
	// ErrBadFraming signals a malformed delimiter/header, or a structurally
	// invalid JSONRequest once decoded (responses are not validated).
	ErrBadFraming = xerrors.New("rpc: bad framing")
	// ErrRequestTooLarge signals a frame that exceeded wire.MaxPayload
	// before a delimiter completed it.
	ErrRequestTooLarge = xerrors.New("rpc: request too large")
	// ErrNotJSON is raised by Client.readLoop when an idle-read event lands
	// with a partial response frame still in the cumulation buffer: the
	// JsonCodec client variant (spec §9) names this case distinctly from
	// ErrBadFraming, which is the framer-level error the rest of the
	// taxonomy uses for a non-recoverable delimiter/header defect. See
	// DESIGN.md Open Question 4.
	ErrNotJSON = xerrors.New("rpc: frame is not json")
)

// BadJSONError wraps a JSON decode failure encountered while decoding a
// frame into a typed record (spec §4.2: badJson(cause)).
type BadJSONError struct {
	Cause error
}

func (e *BadJSONError) Error() string {
	return xerrors.Errorf("rpc: malformed json: %w", e.Cause).Error()
}

func (e *BadJSONError) Unwrap() error { return e.Cause }

// Endpoint errors (spec §3: "Endpoint errors").
var (
	ErrNotReady               = xerrors.New("rpc: endpoint not ready")
	ErrCantBind               = xerrors.New("rpc: can't bind")
	ErrTimeout                = xerrors.New("rpc: idle read timeout")
	ErrConnectionResetByPeer  = xerrors.New("rpc: connection reset by peer")
)

// ResultKind classifies a client-facing RPC failure (spec §3: "RPC errors").
type ResultKind int

const (
	KindInvalidMethod ResultKind = iota
	KindInvalidParams
	KindInvalidRequest
	KindInvalidServerResponse
	KindOtherServerError
)

func (k ResultKind) String() string {
	switch k {
	case KindInvalidMethod:
		return "invalidMethod"
	case KindInvalidParams:
		return "invalidParams"
	case KindInvalidRequest:
		return "invalidRequest"
	case KindInvalidServerResponse:
		return "invalidServerResponse"
	case KindOtherServerError:
		return "otherServerError"
	default:
		return "unknown"
	}
}

// RPCError is the client-facing failure produced when a call's response
// carries a JSON-RPC error object, or when the response itself cannot be
// interpreted.
type RPCError struct {
	Kind        ResultKind
	Description string
}

func (e *RPCError) Error() string { return e.Kind.String() + ": " + e.Description }

// kindFromCode maps a wire error code to the client-facing ResultKind per
// spec §4.4's table.
func kindFromCode(code int64) ResultKind {
	switch code {
	case CodeInvalidRequest:
		return KindInvalidRequest
	case CodeMethodNotFound:
		return KindInvalidMethod
	case CodeInvalidParams:
		return KindInvalidParams
	case CodeParseError:
		return KindInvalidServerResponse
	default:
		return KindOtherServerError
	}
}

// Result is what a Client.Call resolves to: exactly one of Value or Err is
// set on success vs. failure.
type Result struct {
	Value RPCObject
	Err   *RPCError
}

func (r Result) OK() bool { return r.Err == nil }

// resultFromResponse implements the response-to-Result conversion of
// spec §4.4.
func resultFromResponse(resp *JSONResponse) Result {
	if resp.Error != nil {
		return Result{Err: &RPCError{Kind: kindFromCode(resp.Error.Code), Description: resp.Error.Message}}
	}
	if len(resp.Result) == 0 {
		return Result{Err: &RPCError{Kind: KindInvalidServerResponse, Description: "response carries neither result nor error"}}
	}
	obj, err := resp.ResultObject()
	if err != nil {
		return Result{Err: &RPCError{Kind: KindInvalidServerResponse, Description: err.Error()}}
	}
	return Result{Value: obj}
}
