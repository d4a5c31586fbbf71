package table

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Kind discriminates the scalar types a cell can hold.
type Kind int

const (
	KindNull Kind = iota
	KindNumber
	KindText
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	case KindBool:
		return "bool"
	}
	return "null"
}

// ErrIncomparable is returned by Compare when two values have no
// defined ordering, e.g. a number against a text value.
var ErrIncomparable = errors.New("values are not comparable")

// Value is an immutable tagged scalar: number, text, bool, or null.
// The zero Value is null.
type Value struct {
	kind Kind
	num  float64
	text string
	b    bool
}

// Null returns the null value.
func Null() Value { return Value{} }

// Number returns a numeric value.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Text returns a text value.
func Text(s string) Value { return Value{kind: KindText, text: s} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

// Float returns the numeric content; zero unless the kind is number.
func (v Value) Float() float64 { return v.num }

// Compare orders v against o. Ordering is only defined within a kind:
// numeric order for numbers, lexicographic order for text, and
// false < true for bools. Null is ordered against nothing, not even
// itself. Every other pairing returns ErrIncomparable.
func (v Value) Compare(o Value) (int, error) {
	if v.kind != o.kind || v.kind == KindNull {
		return 0, fmt.Errorf("%w: %s vs %s", ErrIncomparable, v.kind, o.kind)
	}
	switch v.kind {
	case KindNumber:
		switch {
		case v.num < o.num:
			return -1, nil
		case v.num > o.num:
			return 1, nil
		}
		return 0, nil
	case KindText:
		return strings.Compare(v.text, o.text), nil
	default: // KindBool
		switch {
		case !v.b && o.b:
			return -1, nil
		case v.b && !o.b:
			return 1, nil
		}
		return 0, nil
	}
}

// Equal reports kind-sensitive equality. Values of different kinds are
// never equal; null equals only null.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindNumber:
		return v.num == o.num
	case KindText:
		return v.text == o.text
	default:
		return v.b == o.b
	}
}

// String returns the canonical string form used by substring
// predicates and by writers: numbers in their shortest decimal form,
// bools as "true"/"false", and null as the empty string.
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindText:
		return v.text
	case KindBool:
		return strconv.FormatBool(v.b)
	}
	return ""
}

// Parse interprets a raw cell from a delimited-text or spreadsheet
// source: empty => null, numeric => number, true/false => bool,
// anything else => text.
func Parse(s string) Value {
	if s == "" {
		return Null()
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return Number(f)
	}
	switch strings.ToLower(s) {
	case "true":
		return Bool(true)
	case "false":
		return Bool(false)
	}
	return Text(s)
}

// FromAny maps a decoded JSON/YAML scalar to a Value.
func FromAny(x any) Value {
	switch v := x.(type) {
	case nil:
		return Null()
	case bool:
		return Bool(v)
	case int:
		return Number(float64(v))
	case int64:
		return Number(float64(v))
	case float64:
		return Number(v)
	case string:
		return Text(v)
	}
	return Text(fmt.Sprint(x))
}
