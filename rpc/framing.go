package rpc

import (
	"time"

	"github.com/go-jsonrpc2/tcp/rpc/internal/wire"
)

// FramingMode selects one of the three interchangeable framers (spec §4.1).
type FramingMode int

const (
	FramingNewline FramingMode = iota
	FramingJsonPos
	FramingBruteForce
)

// DefaultTimeout is the default inbound-read idle timeout (spec §6).
const DefaultTimeout = 5 * time.Second

func (m FramingMode) String() string {
	switch m {
	case FramingNewline:
		return "newline"
	case FramingJsonPos:
		return "jsonpos"
	case FramingBruteForce:
		return "brute"
	default:
		return "unknown"
	}
}

// ParseFramingMode parses the configuration-surface spelling of a framing
// mode (spec §6: "newline | jsonpos | brute").
func ParseFramingMode(s string) (FramingMode, bool) {
	switch s {
	case "newline":
		return FramingNewline, true
	case "jsonpos":
		return FramingJsonPos, true
	case "brute":
		return FramingBruteForce, true
	default:
		return 0, false
	}
}

func requestFramer(mode FramingMode) wire.Framer {
	switch mode {
	case FramingJsonPos:
		return wire.JsonPos{}
	case FramingBruteForce:
		return wire.BruteForce{New: func() any { return new(JSONRequest) }}
	default:
		return wire.Newline{}
	}
}

func responseFramer(mode FramingMode) wire.Framer {
	switch mode {
	case FramingJsonPos:
		return wire.JsonPos{}
	case FramingBruteForce:
		return wire.BruteForce{New: func() any { return new(JSONResponse) }}
	default:
		return wire.Newline{}
	}
}
