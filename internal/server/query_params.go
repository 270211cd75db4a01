package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

var errInvalidNumber = errors.New("invalid_number")

// flexInt64 decodes a JSON number, a numeric string or null. The site sends
// amounts and team sizes either way.
type flexInt64 struct {
	value int64
	set   bool
}

func (f *flexInt64) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = flexInt64{}
		return nil
	}

	raw := string(data)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
		if raw == "" {
			*f = flexInt64{}
			return nil
		}
	}

	if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
		*f = flexInt64{value: v, set: true}
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
		return errInvalidNumber
	}
	// float64(math.MaxInt64) rounds up to 2^63, which int64 cannot hold.
	if v >= math.MaxInt64 || v < math.MinInt64 {
		return errInvalidNumber
	}
	*f = flexInt64{value: int64(v), set: true}
	return nil
}

func (f flexInt64) Int64() int64 {
	return f.value
}

func (f flexInt64) Int64Ptr() *int64 {
	if !f.set {
		return nil
	}
	v := f.value
	return &v
}

func (f flexInt64) IntPtr() *int {
	if !f.set {
		return nil
	}
	v := int(f.value)
	return &v
}

func parseOptionalInt(value string) (int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, nil
	}
	return strconv.Atoi(trimmed)
}
