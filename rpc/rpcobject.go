package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind discriminates the variants of an RPCObject.
type Kind int

const (
	KindNone Kind = iota
	KindString
	KindInteger
	KindDouble
	KindBoolean
	KindList
	KindDict
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindDouble:
		return "double"
	case KindBoolean:
		return "boolean"
	case KindList:
		return "list"
	case KindDict:
		return "dict"
	default:
		return "unknown"
	}
}

// RPCObject is a tagged sum over any value a JSON-RPC argument or result can
// carry. The zero value is the none variant. Conversion to and from JSON is
// total: every JSON value maps to exactly one variant, and every variant
// marshals back to valid JSON, except a NaN or infinite double, whose
// MarshalJSON output ("NaN.0", "+Inf.0", "-Inf.0") is not JSON.
type RPCObject struct {
	kind Kind
	str  string
	i64  int64
	f64  float64
	b    bool
	list []RPCObject
	dict map[string]RPCObject
}

// None is the absent/null value.
var None = RPCObject{kind: KindNone}

func String(s string) RPCObject { return RPCObject{kind: KindString, str: s} }
func Integer(i int64) RPCObject { return RPCObject{kind: KindInteger, i64: i} }
func Double(f float64) RPCObject { return RPCObject{kind: KindDouble, f64: f} }
func Boolean(b bool) RPCObject  { return RPCObject{kind: KindBoolean, b: b} }

func List(items ...RPCObject) RPCObject {
	return RPCObject{kind: KindList, list: append([]RPCObject(nil), items...)}
}

func Dict(m map[string]RPCObject) RPCObject {
	cp := make(map[string]RPCObject, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return RPCObject{kind: KindDict, dict: cp}
}

func (o RPCObject) Kind() Kind { return o.kind }

func (o RPCObject) IsNone() bool { return o.kind == KindNone }

func (o RPCObject) AsString() (string, bool) {
	if o.kind != KindString {
		return "", false
	}
	return o.str, true
}

func (o RPCObject) AsInteger() (int64, bool) {
	if o.kind != KindInteger {
		return 0, false
	}
	return o.i64, true
}

func (o RPCObject) AsDouble() (float64, bool) {
	if o.kind != KindDouble {
		return 0, false
	}
	return o.f64, true
}

func (o RPCObject) AsBoolean() (bool, bool) {
	if o.kind != KindBoolean {
		return false, false
	}
	return o.b, true
}

func (o RPCObject) AsList() ([]RPCObject, bool) {
	if o.kind != KindList {
		return nil, false
	}
	return o.list, true
}

func (o RPCObject) AsDict() (map[string]RPCObject, bool) {
	if o.kind != KindDict {
		return nil, false
	}
	return o.dict, true
}

// Equal reports structural equality, treating lists and dicts recursively
// and requiring the same variant (integer 3 and double 3.0 are unequal).
func (o RPCObject) Equal(other RPCObject) bool {
	if o.kind != other.kind {
		return false
	}
	switch o.kind {
	case KindNone:
		return true
	case KindString:
		return o.str == other.str
	case KindInteger:
		return o.i64 == other.i64
	case KindDouble:
		return o.f64 == other.f64
	case KindBoolean:
		return o.b == other.b
	case KindList:
		if len(o.list) != len(other.list) {
			return false
		}
		for i := range o.list {
			if !o.list[i].Equal(other.list[i]) {
				return false
			}
		}
		return true
	case KindDict:
		if len(o.dict) != len(other.dict) {
			return false
		}
		for k, v := range o.dict {
			ov, ok := other.dict[k]
			if !ok || !v.Equal(ov) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// MarshalJSON implements json.Marshaler.
func (o RPCObject) MarshalJSON() ([]byte, error) {
	switch o.kind {
	case KindNone:
		return []byte("null"), nil
	case KindString:
		return json.Marshal(o.str)
	case KindInteger:
		return []byte(strconv.FormatInt(o.i64, 10)), nil
	case KindDouble:
		return marshalDouble(o.f64), nil
	case KindBoolean:
		if o.b {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	case KindList:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, item := range o.list {
			if i > 0 {
				buf.WriteByte(',')
			}
			data, err := item.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(data)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	case KindDict:
		var buf bytes.Buffer
		buf.WriteByte('{')
		first := true
		for k, v := range o.dict {
			if !first {
				buf.WriteByte(',')
			}
			first = false
			key, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			buf.Write(key)
			buf.WriteByte(':')
			data, err := v.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(data)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("rpc: unknown RPCObject kind %d", o.kind)
	}
}

// marshalDouble formats f so it always reads back as a double: a bare
// integer-valued float still carries a decimal point, the one place on the
// wire where the integer/double distinction is observable (spec §3).
func marshalDouble(f float64) []byte {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return []byte(s)
}

// UnmarshalJSON implements json.Unmarshaler by decoding through
// DecodeRPCObject, so a round trip through json.Marshal/Unmarshal preserves
// the integer/double distinction exactly as the wire does.
func (o *RPCObject) UnmarshalJSON(data []byte) error {
	v, err := DecodeRPCObject(data)
	if err != nil {
		return err
	}
	*o = v
	return nil
}

// DecodeRPCObject parses data (a single JSON value) into an RPCObject,
// preserving the integer/double distinction by lexical form: a number
// bearing a '.' or an exponent decodes as KindDouble, otherwise KindInteger.
func DecodeRPCObject(data []byte) (RPCObject, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return None, fmt.Errorf("rpc: decoding RPCObject: %w", err)
	}
	return fromAny(raw), nil
}

func fromAny(v any) RPCObject {
	switch t := v.(type) {
	case nil:
		return None
	case bool:
		return Boolean(t)
	case json.Number:
		s := t.String()
		if strings.ContainsAny(s, ".eE") {
			f, _ := t.Float64()
			return Double(f)
		}
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return Integer(i)
		}
		f, _ := t.Float64()
		return Double(f)
	case string:
		return String(t)
	case []any:
		items := make([]RPCObject, len(t))
		for i, e := range t {
			items[i] = fromAny(e)
		}
		return RPCObject{kind: KindList, list: items}
	case map[string]any:
		m := make(map[string]RPCObject, len(t))
		for k, e := range t {
			m[k] = fromAny(e)
		}
		return RPCObject{kind: KindDict, dict: m}
	default:
		return None
	}
}
