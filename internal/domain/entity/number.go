package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Amount is a money value. The billing API sends amounts either as JSON
// numbers or as decimal strings depending on the endpoint.
type Amount float64

func (a *Amount) UnmarshalJSON(data []byte) error {
	f, err := decodeFlexibleNumber(data)
	if err != nil {
		return fmt.Errorf("amount: %w", err)
	}
	*a = Amount(f)
	return nil
}

// Float64 returns a as a float64
func (a Amount) Float64() float64 {
	return float64(a)
}

// String formats a with two decimals, the way the API accepts it
func (a Amount) String() string {
	return strconv.FormatFloat(float64(a), 'f', 2, 64)
}

// ID is a numeric identifier that tolerates being sent as a string.
type ID int64

func (id *ID) UnmarshalJSON(data []byte) error {
	f, err := decodeFlexibleNumber(data)
	if err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*id = ID(f)
	return nil
}

func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParseID parses a decimal identifier from a path or flag
func ParseID(s string) (ID, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return ID(n), nil
}

func decodeFlexibleNumber(data []byte) (float64, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return 0, nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return 0, err
		}
		if s == "" {
			return 0, nil
		}
		return strconv.ParseFloat(s, 64)
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return 0, err
	}
	return f, nil
}
