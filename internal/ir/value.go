package ir

import "strconv"

// Scalar is a sealed interface representing the leaf values a field can hold.
// Only String, Number, and Bool implement this.
type Scalar interface {
	scalar() // Sealed - only these types implement it

	// Text returns the literal string form emitted in markup.
	Text() string
}

// String represents a string field value.
type String string

func (String) scalar() {}

// Text returns the string unchanged.
func (s String) Text() string { return string(s) }

// Number represents a numeric field value.
// The literal text of the source document is kept as-is so "2", "2.50" and
// "1e3" are emitted exactly as the producer wrote them.
type Number string

func (Number) scalar() {}

// Text returns the number literal.
func (n Number) Text() string { return string(n) }

// Bool represents a boolean field value.
type Bool bool

func (Bool) scalar() {}

// Text returns "true" or "false".
func (b Bool) Text() string { return strconv.FormatBool(bool(b)) }

// NewString creates a String value.
func NewString(s string) String {
	return String(s)
}

// NewInt creates a Number value from an integer.
func NewInt(n int64) Number {
	return Number(strconv.FormatInt(n, 10))
}

// NewFloat creates a Number value from a float using the shortest
// representation that round-trips.
func NewFloat(f float64) Number {
	return Number(strconv.FormatFloat(f, 'f', -1, 64))
}

// NewBool creates a Bool value.
func NewBool(b bool) Bool {
	return Bool(b)
}
