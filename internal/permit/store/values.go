package store

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// normalize reduces a column value to the small set of types both backends
// agree on: nil, string, int64, float64, bool, time.Time, []byte and []string.
func normalize(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case uuid.UUID:
		return t.String()
	case *uuid.UUID:
		if t == nil {
			return nil
		}
		return t.String()
	case []uuid.UUID:
		out := make([]string, len(t))
		for i, id := range t {
			out[i] = id.String()
		}
		return out
	case json.RawMessage:
		return []byte(t)
	case int:
		return int64(t)
	case int32:
		return int64(t)
	case float32:
		return float64(t)
	case time.Time:
		return t.UTC()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		return normalize(rv.Elem().Interface())
	case reflect.String:
		return rv.String()
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.String {
			out := make([]string, rv.Len())
			for i := range out {
				out[i] = rv.Index(i).String()
			}
			return out
		}
	}
	return v
}

func normalizeMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = normalize(v)
	}
	return out
}

// String reads a text column. NULL reads as "".
func (r Row) String(col string) string {
	switch v := r[col].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// StringPtr reads a nullable text column.
func (r Row) StringPtr(col string) *string {
	if r[col] == nil {
		return nil
	}
	s := r.String(col)
	return &s
}

// UUID reads a uuid column. NULL and malformed values read as uuid.Nil.
func (r Row) UUID(col string) uuid.UUID {
	id, err := uuid.Parse(r.String(col))
	if err != nil {
		return uuid.Nil
	}
	return id
}

// UUIDPtr reads a nullable uuid column.
func (r Row) UUIDPtr(col string) *uuid.UUID {
	if r[col] == nil {
		return nil
	}
	id := r.UUID(col)
	return &id
}

// Float64Ptr reads a nullable numeric column. Postgres numerics arrive as text.
func (r Row) Float64Ptr(col string) *float64 {
	var f float64
	switch v := r[col].(type) {
	case float64:
		f = v
	case int64:
		f = float64(v)
	case string, []byte:
		parsed, err := strconv.ParseFloat(r.String(col), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	return &f
}

// Float64 reads a numeric column. NULL reads as 0.
func (r Row) Float64(col string) float64 {
	if f := r.Float64Ptr(col); f != nil {
		return *f
	}
	return 0
}

// Int64Ptr reads a nullable integer column.
func (r Row) Int64Ptr(col string) *int64 {
	var n int64
	switch v := r[col].(type) {
	case int64:
		n = v
	case float64:
		n = int64(v)
	case string, []byte:
		parsed, err := strconv.ParseInt(r.String(col), 10, 64)
		if err != nil {
			return nil
		}
		n = parsed
	default:
		return nil
	}
	return &n
}

// Int64 reads an integer column. NULL reads as 0.
func (r Row) Int64(col string) int64 {
	if n := r.Int64Ptr(col); n != nil {
		return *n
	}
	return 0
}

// BoolPtr reads a nullable boolean column.
func (r Row) BoolPtr(col string) *bool {
	var b bool
	switch v := r[col].(type) {
	case bool:
		b = v
	case string, []byte:
		parsed, err := strconv.ParseBool(r.String(col))
		if err != nil {
			return nil
		}
		b = parsed
	default:
		return nil
	}
	return &b
}

// Bool reads a boolean column. NULL reads as false.
func (r Row) Bool(col string) bool {
	if b := r.BoolPtr(col); b != nil {
		return *b
	}
	return false
}

// Time reads a timestamp column. NULL reads as the zero time.
func (r Row) Time(col string) time.Time {
	if t := r.TimePtr(col); t != nil {
		return *t
	}
	return time.Time{}
}

// TimePtr reads a nullable timestamp column.
func (r Row) TimePtr(col string) *time.Time {
	switch v := r[col].(type) {
	case time.Time:
		return &v
	case string:
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return nil
		}
		return &t
	}
	return nil
}

// JSON reads a json column as raw bytes. NULL reads as nil.
func (r Row) JSON(col string) json.RawMessage {
	switch v := r[col].(type) {
	case []byte:
		return json.RawMessage(append([]byte(nil), v...))
	case string:
		return json.RawMessage(v)
	}
	return nil
}

func (r Row) clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		if b, ok := v.([]byte); ok {
			v = append([]byte(nil), b...)
		}
		out[k] = v
	}
	return out
}
