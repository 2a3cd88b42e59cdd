package extract

import "log/slog"

// Input is one rendered page snapshot as seen by the extraction ladders.
type Input struct {
	// Markup is the full serialized page source.
	Markup string

	// Fragments are the visible texts of individual page elements, in
	// document order.
	Fragments []string
}

// Resolution is a resolved quantity and the rung that produced it.
type Resolution struct {
	Value float64
	Rung  string
}

// Rung is one extraction strategy. Run reports false when it found nothing.
type Rung struct {
	Name string
	Run  func(in Input) (float64, bool)
}

// Ladder is an ordered list of rungs for a single quantity.
type Ladder struct {
	Quantity string
	Rungs    []Rung
}

// Resolve tries each rung in order and returns the first success. It returns
// nil when every rung fails.
func (l Ladder) Resolve(in Input) *Resolution {
	for i, r := range l.Rungs {
		v, ok := r.Run(in)
		if !ok {
			slog.Debug("extract: rung found nothing",
				"quantity", l.Quantity, "rung", r.Name, "step", i+1)
			continue
		}
		slog.Info("extract: quantity resolved",
			"quantity", l.Quantity, "rung", r.Name, "step", i+1, "value", v)
		return &Resolution{Value: v, Rung: r.Name}
	}
	slog.Warn("extract: ladder exhausted", "quantity", l.Quantity, "rungs", len(l.Rungs))
	return nil
}

// Names lists the rung names in priority order.
func (l Ladder) Names() []string {
	names := make([]string, len(l.Rungs))
	for i, r := range l.Rungs {
		names[i] = r.Name
	}
	return names
}
