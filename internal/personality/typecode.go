package personality

import (
	"fmt"
	"strings"

	"github.com/sayu/sayu-backend/internal/apperr"
)

// TypeCode is a four-letter personality type, one letter per axis pair.
type TypeCode string

var canonical = buildCanonical()

func buildCanonical() []TypeCode {
	codes := make([]TypeCode, 0, 16)
	for i := 0; i < 16; i++ {
		var b strings.Builder
		for p := 0; p < 4; p++ {
			if i&(1<<(3-p)) == 0 {
				b.WriteString(string(Pairs[p].First))
			} else {
				b.WriteString(string(Pairs[p].Second))
			}
		}
		codes = append(codes, TypeCode(b.String()))
	}
	return codes
}

// AllTypeCodes returns the 16 canonical codes in canonical order (LAEF … SRMC).
func AllTypeCodes() []TypeCode {
	out := make([]TypeCode, len(canonical))
	copy(out, canonical)
	return out
}

// Index returns the position of t in canonical order, or -1.
func (t TypeCode) Index() int {
	if len(t) != 4 {
		return -1
	}
	idx := 0
	for p := 0; p < 4; p++ {
		switch Axis(t[p : p+1]) {
		case Pairs[p].First:
		case Pairs[p].Second:
			idx |= 1 << (3 - p)
		default:
			return -1
		}
	}
	return idx
}

// Valid reports whether t is one of the 16 canonical codes.
func (t TypeCode) Valid() bool { return t.Index() >= 0 }

func (t TypeCode) String() string { return string(t) }

// ParseTypeCode validates s (case-insensitive) as a canonical type code.
func ParseTypeCode(s string) (TypeCode, error) {
	t := TypeCode(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%q: %w", s, apperr.ErrInvalidType)
	}
	return t, nil
}
