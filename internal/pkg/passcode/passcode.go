package passcode

import (
	"crypto/rand"
	"errors"
	"fmt"
)

const (
	// MinLength is the shortest code the generator will produce.
	MinLength = 4
	// MaxLength is the longest code the generator will produce.
	MaxLength = 10
)

// ErrLengthOutOfRange is returned when the requested length is outside [MinLength, MaxLength].
var ErrLengthOutOfRange = errors.New("passcode: length out of range")

// Generator produces a numeric passcode of exactly the requested length.
type Generator interface {
	Generate(length int) (string, error)
}

// Numeric implements Generator using crypto/rand.
type Numeric struct{}

// NewNumeric returns a Numeric generator.
func NewNumeric() *Numeric {
	return &Numeric{}
}

// Generate returns a string of exactly length digits in 0-9.
//
// Each digit is drawn by rejection sampling over random bytes so the
// distribution stays uniform. An entropy-source failure is surfaced as an
// error and must be treated as fatal by the caller; it is never retried here.
func (*Numeric) Generate(length int) (string, error) {
	if length < MinLength || length > MaxLength {
		return "", fmt.Errorf("%w: %d", ErrLengthOutOfRange, length)
	}

	code := make([]byte, 0, length)
	buf := make([]byte, length*2)

	for len(code) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("passcode: entropy source: %w", err)
		}

		for _, b := range buf {
			// 250 is the largest multiple of 10 that fits a byte; values
			// at or above it would bias the low digits.
			if b >= 250 {
				continue
			}

			code = append(code, '0'+b%10)
			if len(code) == length {
				break
			}
		}
	}

	return string(code), nil
}
