package extract

import "regexp"

// Pattern is a named regular expression whose first capture group holds the
// numeric substring.
type Pattern struct {
	Name string
	Re   *regexp.Regexp
}

// amountExpr matches an amount grouped by comma, space or no-break space
// ("1,234", "1 234") or a plain digit run, followed by an optional comma or
// period fraction.
const amountExpr = `(?:\d{1,3}(?:[,\s\x{00A0}\x{202F}]\d{3})+|\d+)(?:[.,]\d+)?`

var reAmount = regexp.MustCompile(amountExpr)

func newPattern(name, expr string) Pattern {
	return Pattern{Name: name, Re: regexp.MustCompile(expr)}
}

// === POSITION PATTERNS ===

// PositionPatterns find a plain dollar amount, in priority order.
var PositionPatterns = []Pattern{
	// 1,234.56 $ or 1 234,56 $
	newPattern("amount-dollar", `(`+amountExpr+`)\s*\$`),
	// $1,234.56
	newPattern("dollar-amount", `\$(`+amountExpr+`)`),
}

// === RATE PATTERNS ===

// The reference rate is rendered in parentheses next to the headline figure.

var (
	// ($2,314.00)
	dollarParenthesized = newPattern("paren-dollar-amount", `\(\$(`+amountExpr+`)\)`)
	// (2,314.00 $) or (2 314,00 $)
	parenthesizedDollar = newPattern("paren-amount-dollar", `\((`+amountExpr+`)\s*\$\)`)
	// (2,314.00)
	parenthesized = newPattern("paren-amount", `\((`+amountExpr+`)\)`)
)

// BareRatePatterns match a parenthesized amount that does not open with a
// dollar sign.
var BareRatePatterns = []Pattern{parenthesizedDollar, parenthesized}

// DollarRatePatterns match only the dollar-prefixed form.
var DollarRatePatterns = []Pattern{dollarParenthesized}

// RatePatterns is the full parenthesized set, in priority order.
var RatePatterns = []Pattern{dollarParenthesized, parenthesizedDollar, parenthesized}

// AmountPatterns matches any amount, with no currency context.
var AmountPatterns = []Pattern{newPattern("amount", `(`+amountExpr+`)`)}

// === CRUDE FIRST-FRAGMENT PATTERNS ===

var (
	// reUSAmount is a US-formatted amount: comma thousands, period decimals.
	reUSAmount = regexp.MustCompile(`(\d{1,3}(?:,\d{3})*(?:\.\d+)?)`)

	// reDigitRun is the first digit-dot run.
	reDigitRun = regexp.MustCompile(`(\d+\.?\d*)`)

	// reBracketed captures the content of the first parenthesis pair.
	reBracketed = regexp.MustCompile(`\(([^)]+)\)`)
)
