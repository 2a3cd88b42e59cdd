package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// NumberFormatError is returned when a substring that looked numeric does not
// parse as a float after normalization.
type NumberFormatError struct {
	Input string
	Err   error
}

func (e *NumberFormatError) Error() string {
	return fmt.Sprintf("extract: cannot parse %q as a number: %v", e.Input, e.Err)
}

func (e *NumberFormatError) Unwrap() error {
	return e.Err
}

// Normalizer converts a raw numeric substring into a float64.
type Normalizer interface {
	Normalize(raw string) (float64, error)
}

// NormalizerFunc adapts a plain function to the Normalizer interface.
type NormalizerFunc func(raw string) (float64, error)

func (f NormalizerFunc) Normalize(raw string) (float64, error) { return f(raw) }

var (
	// ThousandsComma treats a comma between two digits as a thousands
	// separator: "2,314.00" -> 2314.
	ThousandsComma Normalizer = NormalizerFunc(normalizeThousands)

	// DecimalComma treats every comma as a decimal point: "1 234,56" -> 1234.56.
	// "1,234" becomes 1.234 under this mode.
	DecimalComma Normalizer = NormalizerFunc(normalizeDecimalComma)
)

// reDigitComma matches a comma with a digit on either side.
var reDigitComma = regexp.MustCompile(`(\d),(\d)`)

// localeSpaces are the no-break spaces some locales use as thousands separators.
var localeSpaces = strings.NewReplacer("\u202f", "", "\u00a0", "")

func normalizeThousands(raw string) (float64, error) {
	s := stripWhitespace(localeSpaces.Replace(raw))
	s = reDigitComma.ReplaceAllString(s, "$1$2")
	return parse(raw, s)
}

func normalizeDecimalComma(raw string) (float64, error) {
	s := stripWhitespace(localeSpaces.Replace(raw))
	s = strings.ReplaceAll(s, ",", ".")
	return parse(raw, s)
}

func stripWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func parse(raw, cleaned string) (float64, error) {
	if cleaned == "" {
		return 0, &NumberFormatError{Input: raw, Err: strconv.ErrSyntax}
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, &NumberFormatError{Input: raw, Err: err}
	}
	return v, nil
}
