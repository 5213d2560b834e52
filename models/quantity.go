package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

// MaxQuantity is the largest quantity accepted from a request
const MaxQuantity = math.MaxInt32

var (
	ErrQuantityRequired = errors.New("quantity is required")
	ErrQuantityInvalid  = errors.New("quantity must be >= 1")
)

// Quantity is a quantity as supplied by a caller, before validation.
// The zero value is an absent quantity.
type Quantity struct {
	present bool
	numeric bool
	value   float64
}

// QuantityOf returns a present, numeric quantity.
func QuantityOf(n int) Quantity {
	return Quantity{present: true, numeric: true, value: float64(n)}
}

// UnmarshalJSON accepts numbers and numeric strings. Any other JSON value
// decodes to a present but non-numeric quantity; null decodes to absent.
func (q *Quantity) UnmarshalJSON(data []byte) error {
	*q = Quantity{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	q.present = true

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case float64:
		q.numeric, q.value = true, v
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			// an empty string reads as zero
			q.numeric = true
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err == nil && !math.IsNaN(f) {
			q.numeric, q.value = true, f
		}
	}
	return nil
}

// Present reports whether the caller supplied any value.
func (q Quantity) Present() bool { return q.present }

// OrDefault resolves a quantity whose absence means 1. Absent, non-numeric
// and zero values give 1. Negative, fractional, infinite and oversized
// values are rejected.
func (q Quantity) OrDefault() (int, error) {
	if !q.numeric || q.value == 0 {
		return 1, nil
	}
	return q.integer()
}

// Required resolves a quantity that must be supplied and be >= 1.
func (q Quantity) Required() (int, error) {
	if !q.present {
		return 0, ErrQuantityRequired
	}
	if !q.numeric {
		return 0, ErrQuantityInvalid
	}
	return q.integer()
}

func (q Quantity) integer() (int, error) {
	v := q.value
	if math.IsInf(v, 0) || v < 1 || v > MaxQuantity || v != math.Trunc(v) {
		return 0, ErrQuantityInvalid
	}
	return int(v), nil
}
