package extract

import (
	"iter"
	"log/slog"
)

// Candidate is one parsed number and where it came from.
type Candidate struct {
	Value float64

	// Raw is the matched numeric substring before normalization.
	Raw string

	// Unit is the index of the scanned unit (fragment index, or 0 for markup).
	Unit int

	// Pattern is the name of the pattern that produced the match.
	Pattern string
}

// Acceptor decides whether a candidate is plausible.
type Acceptor func(Candidate) bool

// Above accepts candidates strictly greater than floor.
func Above(floor float64) Acceptor {
	return func(c Candidate) bool { return c.Value > floor }
}

// Scan yields every accepted candidate found in units.
//
// Order is unit by unit, then pattern by pattern, then match by match.
// Unparseable matches are skipped. The sequence is lazy: breaking out of a
// range loop stops the scan.
func Scan(units []string, patterns []Pattern, n Normalizer, accept Acceptor) iter.Seq[Candidate] {
	return func(yield func(Candidate) bool) {
		for i, unit := range units {
			text := localeSpaces.Replace(unit)
			for _, p := range patterns {
				for _, m := range p.Re.FindAllStringSubmatch(text, -1) {
					if len(m) < 2 {
						continue
					}
					v, err := n.Normalize(m[1])
					if err != nil {
						slog.Debug("extract: skipping unparseable match",
							"pattern", p.Name, "raw", m[1], "error", err)
						continue
					}
					c := Candidate{Value: v, Raw: m[1], Unit: i, Pattern: p.Name}
					if accept != nil && !accept(c) {
						continue
					}
					if !yield(c) {
						return
					}
				}
			}
		}
	}
}

// First returns the first candidate of seq.
func First(seq iter.Seq[Candidate]) (Candidate, bool) {
	for c := range seq {
		return c, true
	}
	return Candidate{}, false
}

// Max returns the candidate with the largest value. Ties keep the earliest.
func Max(seq iter.Seq[Candidate]) (Candidate, bool) {
	var (
		best  Candidate
		found bool
	)
	for c := range seq {
		if !found || c.Value > best.Value {
			best, found = c, true
		}
	}
	return best, found
}
