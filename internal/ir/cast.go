package ir

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

// Casts between the loosely typed values blocks exchange. Every primitive
// goes through these helpers rather than type-switching on Value itself,
// so "10", Int(10) and Float(10) behave identically in arithmetic.

var folder = cases.Fold()

// ToNumber converts a value to a number. Unparseable text, nil and NaN
// become 0; booleans become 1 or 0.
func ToNumber(v Value) float64 {
	switch val := v.(type) {
	case Int:
		return float64(val)
	case Float:
		if math.IsNaN(float64(val)) {
			return 0
		}
		return float64(val)
	case Bool:
		if val {
			return 1
		}
		return 0
	case String:
		n, ok := parseNumber(string(val))
		if !ok {
			return 0
		}
		return n
	default:
		return 0
	}
}

// ToBool converts a value to a boolean. The strings "", "0" and "false"
// (any case) are false; every other string is true.
func ToBool(v Value) bool {
	switch val := v.(type) {
	case Bool:
		return bool(val)
	case Int:
		return val != 0
	case Float:
		f := float64(val)
		return f != 0 && !math.IsNaN(f)
	case String:
		s := string(val)
		if s == "" || s == "0" || strings.EqualFold(s, "false") {
			return false
		}
		return true
	case List:
		return true
	case Object:
		return true
	default:
		return false
	}
}

// ToString converts a value to its display text. Integral floats print
// without a fractional part.
func ToString(v Value) string {
	switch val := v.(type) {
	case nil, Null:
		return ""
	case String:
		return string(val)
	case Int:
		return strconv.FormatInt(int64(val), 10)
	case Float:
		return formatFloat(float64(val))
	case Bool:
		if val {
			return "true"
		}
		return "false"
	case List:
		parts := make([]string, len(val))
		for i, elem := range val {
			parts[i] = ToString(elem)
		}
		return strings.Join(parts, " ")
	case Object:
		if name, ok := val["name"]; ok {
			return ToString(name)
		}
		b, err := val.MarshalJSON()
		if err != nil {
			return ""
		}
		return string(b)
	default:
		return ""
	}
}

// Number wraps a float64 as the narrowest Value: Int when integral,
// Float otherwise.
func Number(f float64) Value {
	if f == math.Trunc(f) && !math.IsInf(f, 0) && math.Abs(f) < 1<<53 {
		return Int(int64(f))
	}
	return Float(f)
}

// Compare orders two values the way comparison operators do: numerically
// when both sides read as numbers, otherwise by case-folded text.
// Returns a negative number, zero, or a positive number.
func Compare(a, b Value) int {
	n1, ok1 := numeric(a)
	n2, ok2 := numeric(b)
	if !ok1 || !ok2 {
		s1 := folder.String(ToString(a))
		s2 := folder.String(ToString(b))
		return strings.Compare(s1, s2)
	}

	switch {
	case math.IsInf(n1, 0) && math.IsInf(n2, 0) && n1 == n2:
		return 0
	case n1 < n2:
		return -1
	case n1 > n2:
		return 1
	}
	return 0
}

// EqualFold reports whether two strings match ignoring case. Used for
// hat field matching (broadcast names, key options).
func EqualFold(a, b string) bool {
	return folder.String(a) == folder.String(b)
}

// numeric reports whether a value reads as a number for comparison.
// Whitespace-only strings are not numbers even though they cast to 0.
func numeric(v Value) (float64, bool) {
	switch val := v.(type) {
	case Int:
		return float64(val), true
	case Float:
		f := float64(val)
		return f, !math.IsNaN(f)
	case Bool:
		if val {
			return 1, true
		}
		return 0, true
	case String:
		if strings.TrimSpace(string(val)) == "" {
			return 0, false
		}
		return parseNumber(string(val))
	default:
		return 0, false
	}
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, true
	}
	switch s {
	case "Infinity", "+Infinity":
		return math.Inf(1), true
	case "-Infinity":
		return math.Inf(-1), true
	}
	if len(s) > 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		n, err := strconv.ParseInt(s[2:], 16, 64)
		if err != nil {
			return 0, false
		}
		return float64(n), true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}
