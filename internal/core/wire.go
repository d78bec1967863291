package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Wire tags used by the script glue. A value travels as null or as a
// two-element array [tag, payload].
const (
	tagInt    = "i"
	tagFloat  = "f"
	tagBool   = "b"
	tagString = "s"
	tagList   = "a"
)

// MarshalJSON encodes v in the compact wire form understood by the glue.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.appendWire(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v Value) appendWire(buf *bytes.Buffer) error {
	switch v.Kind {
	case KindNull:
		buf.WriteString("null")
	case KindInt:
		buf.WriteString(`["i",`)
		buf.WriteString(strconv.FormatInt(v.Int, 10))
		buf.WriteByte(']')
	case KindFloat:
		buf.WriteString(`["f",`)
		buf.WriteString(encodeFloat(v.Float))
		buf.WriteByte(']')
	case KindBool:
		buf.WriteString(`["b",`)
		buf.WriteString(strconv.FormatBool(v.Bool))
		buf.WriteByte(']')
	case KindString:
		s, err := json.Marshal(v.Str)
		if err != nil {
			return err
		}
		buf.WriteString(`["s",`)
		buf.Write(s)
		buf.WriteByte(']')
	case KindList:
		buf.WriteString(`["a",[`)
		for i, e := range v.List {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := e.appendWire(buf); err != nil {
				return err
			}
		}
		buf.WriteString("]]")
	default:
		return fmt.Errorf("encoding value: unknown kind %d", v.Kind)
	}
	return nil
}

// encodeFloat writes finite numbers as JSON numbers and the values JSON
// cannot carry as strings.
func encodeFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return `"NaN"`
	case math.IsInf(f, 1):
		return `"Infinity"`
	case math.IsInf(f, -1):
		return `"-Infinity"`
	case f == 0 && math.Signbit(f):
		return `"-0"`
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func decodeFloat(raw json.RawMessage) (float64, error) {
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, err
		}
		switch s {
		case "NaN":
			return math.NaN(), nil
		case "Infinity":
			return math.Inf(1), nil
		case "-Infinity":
			return math.Inf(-1), nil
		case "-0":
			return math.Copysign(0, -1), nil
		}
		return 0, fmt.Errorf("invalid float literal %q", s)
	}
	return strconv.ParseFloat(string(raw), 64)
}

// UnmarshalJSON decodes the wire form produced by MarshalJSON or the glue.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*v = Null()
		return nil
	}
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("decoding value: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("decoding value: expected [tag, payload], got %d elements", len(pair))
	}
	var tag string
	if err := json.Unmarshal(pair[0], &tag); err != nil {
		return fmt.Errorf("decoding value tag: %w", err)
	}
	payload := pair[1]
	switch tag {
	case tagInt:
		n, err := strconv.ParseInt(string(payload), 10, 64)
		if err != nil {
			f, ferr := strconv.ParseFloat(string(payload), 64)
			if ferr != nil {
				return fmt.Errorf("decoding int: %w", err)
			}
			n = int64(f)
		}
		*v = Int(n)
	case tagFloat:
		f, err := decodeFloat(payload)
		if err != nil {
			return fmt.Errorf("decoding float: %w", err)
		}
		*v = Float(f)
	case tagBool:
		var b bool
		if err := json.Unmarshal(payload, &b); err != nil {
			return fmt.Errorf("decoding bool: %w", err)
		}
		*v = Bool(b)
	case tagString:
		var s string
		if err := json.Unmarshal(payload, &s); err != nil {
			return fmt.Errorf("decoding string: %w", err)
		}
		*v = String(s)
	case tagList:
		var elems []Value
		if err := json.Unmarshal(payload, &elems); err != nil {
			return err
		}
		*v = List(elems...)
	default:
		return fmt.Errorf("decoding value: unknown tag %q", tag)
	}
	return nil
}

// EncodeList encodes vs as a JSON array of wire values.
func EncodeList(vs []Value) (string, error) {
	b, err := json.Marshal(List(vs...).List)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeList decodes a JSON array of wire values.
func DecodeList(s string) ([]Value, error) {
	var vs []Value
	if err := json.Unmarshal([]byte(s), &vs); err != nil {
		return nil, err
	}
	return vs, nil
}
