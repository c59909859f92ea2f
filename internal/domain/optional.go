package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// OptionalUint is a non-negative integer that dCache encodes as -1, or
// omits, when there is no value.
type OptionalUint struct {
	Value uint64
	Valid bool
}

// SomeUint returns a present OptionalUint.
func SomeUint(v uint64) OptionalUint { return OptionalUint{Value: v, Valid: true} }

// Or returns the value if present and def otherwise.
func (o OptionalUint) Or(def uint64) uint64 {
	if !o.Valid {
		return def
	}
	return o.Value
}

// UnmarshalJSON maps null and negative integers to an absent value.
func (o *OptionalUint) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*o = OptionalUint{}
		return nil
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		// Values above MaxInt64 are still valid sizes.
		u, uerr := strconv.ParseUint(string(data), 10, 64)
		if uerr != nil {
			return fmt.Errorf("invalid integer %s: %w", data, err)
		}
		*o = SomeUint(u)
		return nil
	}
	if n < 0 {
		*o = OptionalUint{}
		return nil
	}
	*o = SomeUint(uint64(n))
	return nil
}

// MarshalJSON writes -1 for an absent value, matching the wire format.
func (o OptionalUint) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("-1"), nil
	}
	return json.Marshal(o.Value)
}
