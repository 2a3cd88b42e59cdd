// Package report compares a liquidity position against simply holding the
// initially deposited ETH.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/use-agent/lpcheck/models"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Report is the comparison of a position with its initial ETH holding.
type Report struct {
	PositionUSD  float64
	PositionRung string
	ETHRate      float64
	RateSource   string
	ETHInitial   float64

	// CurrentETHValue is what the initial ETH is worth at ETHRate.
	CurrentETHValue float64
	// PositionInETH is the position value expressed in ETH.
	PositionInETH float64
	// USDDelta is PositionUSD - CurrentETHValue; negative is a loss.
	USDDelta float64
	// ETHDelta is PositionInETH - ETHInitial; negative is a decline.
	ETHDelta float64
}

// Compare builds a Report. ethRate must be positive.
func Compare(positionUSD, ethRate, ethInitial float64) Report {
	current := ethInitial * ethRate
	inETH := positionUSD / ethRate
	return Report{
		PositionUSD:     positionUSD,
		ETHRate:         ethRate,
		ETHInitial:      ethInitial,
		CurrentETHValue: current,
		PositionInETH:   inETH,
		USDDelta:        positionUSD - current,
		ETHDelta:        inETH - ethInitial,
	}
}

// Profit reports whether the position is worth at least the held ETH.
func (r Report) Profit() bool { return r.USDDelta >= 0 }

// Growth reports whether the position holds more ETH than was deposited.
func (r Report) Growth() bool { return r.ETHDelta > 0 }

// Model converts r to its JSON form.
func (r Report) Model() *models.Report {
	return &models.Report{
		PositionUSD:     r.PositionUSD,
		PositionRung:    r.PositionRung,
		ETHRate:         r.ETHRate,
		RateSource:      r.RateSource,
		ETHInitial:      r.ETHInitial,
		CurrentETHValue: r.CurrentETHValue,
		PositionInETH:   r.PositionInETH,
		USDDelta:        r.USDDelta,
		ETHDelta:        r.ETHDelta,
	}
}

var rule = strings.Repeat("-", 50)

// Write renders r as the human-readable comparison.
func Write(w io.Writer, r Report) error {
	p := message.NewPrinter(language.English)
	ew := &errWriter{w: w}

	ew.printf(p, "Position value:  $%.2f (%s)\n", r.PositionUSD, r.PositionRung)
	ew.printf(p, "ETH rate:        $%.2f (%s)\n", r.ETHRate, r.RateSource)
	ew.println(rule)

	ew.println("Comparison 1:")
	ew.printf(p, "Initial ETH at current rate:  $%.2f\n", r.CurrentETHValue)
	ew.printf(p, "Current position value:       $%.2f\n", r.PositionUSD)
	ew.println(rule)

	ew.println("Comparison 2:")
	ew.printf(p, "Initial ETH deposit:          %s ETH\n", strconv.FormatFloat(r.ETHInitial, 'f', -1, 64))
	ew.printf(p, "Current position in ETH:      %.4f ETH\n", r.PositionInETH)
	ew.println(rule)

	if r.Profit() {
		ew.printf(p, "Position shows a profit: $%.2f\n", r.USDDelta)
	} else {
		ew.printf(p, "Position shows a loss: $%.2f\n", -r.USDDelta)
	}
	if r.Growth() {
		ew.printf(p, "Position in ETH shows growth: +%.4f ETH\n", r.ETHDelta)
	} else {
		ew.printf(p, "Position in ETH shows a decline: %.4f ETH\n", r.ETHDelta)
	}
	return ew.err
}

// errWriter keeps the first write error and skips later writes.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(p *message.Printer, format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = p.Fprintf(e.w, format, args...)
}

func (e *errWriter) println(s string) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintln(e.w, s)
}
