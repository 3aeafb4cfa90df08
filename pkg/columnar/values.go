package columnar

import (
	"encoding/base64"
	"fmt"
	"time"
)

// EncodeTimestamp renders t for storage in a TypeTimestamp column.
func EncodeTimestamp(t time.Time) string { return t.UTC().Format(TimestampLayout) }

// DecodeTimestamp recovers a time.Time from a TypeTimestamp cell. A nil
// value (sql NULL) returns the zero time and no error; callers should
// check nullability separately.
func DecodeTimestamp(v any) (time.Time, error) {
	if v == nil {
		return time.Time{}, nil
	}
	s, ok := v.(string)
	if !ok {
		return time.Time{}, fmt.Errorf("columnar: timestamp cell is %T, not string", v)
	}
	return time.Parse(TimestampLayout, s)
}

// EncodeDate renders t for storage in a TypeDate column.
func EncodeDate(t time.Time) string { return t.Format(DateLayout) }

// DecodeDate recovers a date-only time.Time from a TypeDate cell.
func DecodeDate(v any) (time.Time, error) {
	if v == nil {
		return time.Time{}, nil
	}
	s, ok := v.(string)
	if !ok {
		return time.Time{}, fmt.Errorf("columnar: date cell is %T, not string", v)
	}
	return time.Parse(DateLayout, s)
}

// DecodeBinary recovers raw bytes from a TypeBinary cell. Binary values
// are stored as base64 strings, matching Go's native json.Marshal
// encoding of []byte.
func DecodeBinary(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("columnar: binary cell is %T, not string", v)
	}
	return base64.StdEncoding.DecodeString(s)
}
