package command

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/roman-kulish/drone-console/internal/telemetry"
)

// ErrNotANumber is returned by ParseNumber for input that is not a finite number.
var ErrNotANumber = errors.New("not a number")

// InputError describes a rejected prompt field.
type InputError struct {
	Field  string
	Input  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Input, e.Reason)
}

// ParseNumber parses a decimal number written with either '.' or ',' as the decimal
// separator. The input is tried as-is first and then with the two separators swapped.
func ParseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrNotANumber
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		swapped := strings.Map(func(r rune) rune {
			switch r {
			case '.':
				return ','
			case ',':
				return '.'
			}
			return r
		}, s)

		if v, err = strconv.ParseFloat(swapped, 64); err != nil {
			return 0, ErrNotANumber
		}
	}

	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrNotANumber
	}

	return v, nil
}

// ResolveAltitude turns the altitude entered at the GoTo prompt into an absolute target.
// With a known sample the entry is relative to the vehicle's current absolute altitude;
// without one the entry is taken as absolute already.
func ResolveAltitude(entered float64, last telemetry.Sample, hasLast bool) float64 {
	if !hasLast {
		return entered
	}
	return last.AbsAlt + entered
}
