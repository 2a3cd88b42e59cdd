package extract

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"unicode"
)

// DefaultAmountFloor is the value a position amount must exceed. Smaller
// dollar figures on the page are fees, APRs and sub-values.
const DefaultAmountFloor = 1000

// Range is the inclusive window a reference-rate candidate must fall in.
type Range struct {
	Min float64
	Max float64
}

// Validate checks 0 < Min <= Max.
func (r Range) Validate() error {
	if r.Min <= 0 || r.Max <= 0 {
		return fmt.Errorf("extract: plausibility range bounds must be positive, got [%g, %g]", r.Min, r.Max)
	}
	if r.Min > r.Max {
		return fmt.Errorf("extract: plausibility range min %g exceeds max %g", r.Min, r.Max)
	}
	return nil
}

// Contains reports whether v lies within [Min, Max].
func (r Range) Contains(v float64) bool {
	return r.Min <= v && v <= r.Max
}

// Accept is the Acceptor form of Contains.
func (r Range) Accept(c Candidate) bool {
	return r.Contains(c.Value)
}

// Result is the outcome of one extraction run. A nil field is unresolved.
type Result struct {
	Position *Resolution
	Rate     *Resolution
}

// Options configures a Pipeline.
type Options struct {
	// AmountFloor defaults to DefaultAmountFloor when zero.
	AmountFloor float64
	RateRange   Range
}

// Pipeline runs the position-value and reference-rate ladders over a page.
// It holds no mutable state and is safe for concurrent use.
type Pipeline struct {
	position Ladder
	rate     Ladder
}

// New builds a Pipeline. It returns an error if the rate range is invalid.
func New(opts Options) (*Pipeline, error) {
	if err := opts.RateRange.Validate(); err != nil {
		return nil, err
	}
	floor := opts.AmountFloor
	if floor == 0 {
		floor = DefaultAmountFloor
	}
	if floor < 0 {
		return nil, errors.New("extract: amount floor must not be negative")
	}
	return &Pipeline{
		position: PositionLadder(floor),
		rate:     RateLadder(opts.RateRange),
	}, nil
}

// Extract resolves both quantities. The two ladders run independently.
func (p *Pipeline) Extract(in Input) Result {
	var (
		res Result
		wg  sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		res.Position = p.position.Resolve(in)
	}()
	go func() {
		defer wg.Done()
		res.Rate = p.rate.Resolve(in)
	}()
	wg.Wait()
	return res
}

// DollarFragments returns the fragments that contain a dollar sign.
func DollarFragments(fragments []string) []string {
	out := make([]string, 0, len(fragments))
	for _, f := range fragments {
		if strings.Contains(f, "$") {
			out = append(out, f)
		}
	}
	return out
}

// PositionLadder builds the position-value ladder for the given floor.
func PositionLadder(floor float64) Ladder {
	above := Above(floor)
	return Ladder{
		Quantity: "position_usd",
		Rungs: []Rung{
			{
				// The headline amount is the largest dollar figure on the page.
				// US-grouped figures fail to parse here and fall through to
				// first-fragment-us-format.
				Name: "max-dollar-amount",
				Run: func(in Input) (float64, bool) {
					c, ok := Max(Scan(DollarFragments(in.Fragments), PositionPatterns, DecimalComma, above))
					return c.Value, ok
				},
			},
			{
				Name: "first-dollar-fragment",
				Run: func(in Input) (float64, bool) {
					first, ok := firstDollarFragment(in)
					if !ok {
						return 0, false
					}
					c, ok := First(Scan([]string{first}, PositionPatterns, DecimalComma, above))
					return c.Value, ok
				},
			},
			{
				Name: "first-fragment-us-format",
				Run: func(in Input) (float64, bool) {
					first, ok := firstDollarFragment(in)
					if !ok {
						return 0, false
					}
					m := reUSAmount.FindStringSubmatch(stripDollar(first))
					if m == nil {
						return 0, false
					}
					return parseAbove(strings.ReplaceAll(m[1], ",", ""), floor)
				},
			},
			{
				Name: "first-fragment-permissive",
				Run: func(in Input) (float64, bool) {
					first, ok := firstDollarFragment(in)
					if !ok {
						return 0, false
					}
					m := reDigitRun.FindStringSubmatch(strings.ReplaceAll(stripDollar(first), ",", ""))
					if m == nil {
						return 0, false
					}
					return parseAbove(m[1], floor)
				},
			},
		},
	}
}

// RateLadder builds the reference-rate ladder for the given range.
func RateLadder(r Range) Ladder {
	return Ladder{
		Quantity: "eth_rate",
		Rungs: []Rung{
			{
				// The rate appears once, next to the headline amount.
				Name: "markup-parenthesized",
				Run: func(in Input) (float64, bool) {
					c, ok := First(Scan([]string{in.Markup}, BareRatePatterns, DecimalComma, r.Accept))
					return c.Value, ok
				},
			},
			{
				Name: "fragment-brackets",
				Run: func(in Input) (float64, bool) {
					for _, f := range in.Fragments {
						if !strings.Contains(f, "(") || !strings.Contains(f, ")") || !strings.Contains(f, "$") {
							continue
						}
						b := reBracketed.FindStringSubmatch(f)
						if b == nil {
							continue
						}
						num := reAmount.FindString(localeSpaces.Replace(b[1]))
						if num == "" {
							continue
						}
						v, err := DecimalComma.Normalize(num)
						if err != nil || !r.Contains(v) {
							continue
						}
						return v, true
					}
					return 0, false
				},
			},
			{
				Name: "markup-dollar-parenthesized",
				Run: func(in Input) (float64, bool) {
					c, ok := First(Scan([]string{in.Markup}, DollarRatePatterns, DecimalComma, r.Accept))
					return c.Value, ok
				},
			},
			{
				// The only rung that reads "2,314.00" as two thousand.
				Name: "markup-parenthesized-verbose",
				Run: func(in Input) (float64, bool) {
					markup := localeSpaces.Replace(in.Markup)
					for _, p := range RatePatterns {
						slog.Debug("extract: rate pattern matches",
							"pattern", p.Name, "count", len(p.Re.FindAllStringIndex(markup, -1)))
					}
					c, ok := First(Scan([]string{markup}, RatePatterns, verbose(ThousandsComma), r.Accept))
					return c.Value, ok
				},
			},
			{
				// Last resort: any in-range number in any fragment with a digit.
				Name: "digit-fragments",
				Run: func(in Input) (float64, bool) {
					c, ok := First(Scan(digitFragments(in.Fragments), AmountPatterns, DecimalComma, r.Accept))
					return c.Value, ok
				},
			},
		},
	}
}

func firstDollarFragment(in Input) (string, bool) {
	for _, f := range in.Fragments {
		if strings.Contains(f, "$") {
			return f, true
		}
	}
	return "", false
}

// stripDollar removes the currency symbol and every kind of space.
func stripDollar(s string) string {
	return stripWhitespace(strings.ReplaceAll(s, "$", ""))
}

func parseAbove(s string, floor float64) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= floor {
		return 0, false
	}
	return v, true
}

func digitFragments(fragments []string) []string {
	out := make([]string, 0, len(fragments))
	for _, f := range fragments {
		if strings.IndexFunc(f, unicode.IsDigit) >= 0 {
			out = append(out, f)
		}
	}
	return out
}

// verbose logs every normalization attempt made through n.
func verbose(n Normalizer) Normalizer {
	return NormalizerFunc(func(raw string) (float64, error) {
		v, err := n.Normalize(raw)
		if err != nil {
			slog.Debug("extract: raw rate match failed to parse", "raw", raw, "error", err)
			return v, err
		}
		slog.Debug("extract: raw rate match", "raw", raw, "value", v)
		return v, nil
	})
}
