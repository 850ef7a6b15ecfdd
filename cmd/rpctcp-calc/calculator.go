package main

import (
	"context"

	"github.com/go-jsonrpc2/tcp/rpc"
)

// calculatorHandler implements add/sub/mul/div over RPCObject params shaped
// as {"a": <number>, "b": <number>}, the sample handler spec §1 names as an
// external collaborator described only at its interface to the core.
func calculatorHandler(ctx context.Context, method string, params rpc.RPCObject, reply rpc.ReplyFunc) {
	a, b, ok := operands(params)
	if !ok {
		reply(rpc.None, &rpc.RPCError{Kind: rpc.KindInvalidParams, Description: "params must be {a, b} numbers"})
		return
	}

	switch method {
	case "add":
		reply(numberResult(a+b), nil)
	case "sub":
		reply(numberResult(a-b), nil)
	case "mul":
		reply(numberResult(a*b), nil)
	case "div":
		if b == 0 {
			reply(rpc.None, &rpc.RPCError{Kind: rpc.KindOtherServerError, Description: "division by zero"})
			return
		}
		reply(numberResult(a/b), nil)
	default:
		reply(rpc.None, &rpc.RPCError{Kind: rpc.KindInvalidMethod, Description: "unknown method: " + method})
	}
}

func operands(params rpc.RPCObject) (a, b float64, ok bool) {
	dict, isDict := params.AsDict()
	if !isDict {
		return 0, 0, false
	}
	av, ok1 := dict["a"]
	bv, ok2 := dict["b"]
	if !ok1 || !ok2 {
		return 0, 0, false
	}
	a, okA := asNumber(av)
	b, okB := asNumber(bv)
	return a, b, okA && okB
}

func asNumber(v rpc.RPCObject) (float64, bool) {
	if f, ok := v.AsDouble(); ok {
		return f, true
	}
	if i, ok := v.AsInteger(); ok {
		return float64(i), true
	}
	return 0, false
}

func numberResult(f float64) rpc.RPCObject {
	if f == float64(int64(f)) {
		return rpc.Integer(int64(f))
	}
	return rpc.Double(f)
}
