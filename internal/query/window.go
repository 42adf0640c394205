package query

import "fmt"

// Window is the configured lookback over the vendor's historical-election
// columns. EvenYear and OddYear anchor the two series (the most recent
// election year of each parity present in the vendor feed); Depth is how many
// elections of the matching parity to include, stepping back two years at a
// time.
type Window struct {
	EvenYear int
	OddYear  int
	Depth    int
}

// YearColumns returns the historical-election column names for a target
// election of the given parity, newest first.
//
// Even-year jurisdictions carry separate general and primary history, so both
// series are returned (all General_* columns, then all Primary_* columns).
// Odd-year jurisdictions only have the combined AnyElection_* series.
//
// The calculation is pure and total: it always returns exactly Depth labels
// per series.
func (w Window) YearColumns(evenYear bool) []string {
	if evenYear {
		out := make([]string, 0, 2*w.Depth)
		for i := 0; i < w.Depth; i++ {
			out = append(out, fmt.Sprintf("General_%d", w.EvenYear-2*i))
		}
		for i := 0; i < w.Depth; i++ {
			out = append(out, fmt.Sprintf("Primary_%d", w.EvenYear-2*i))
		}
		return out
	}

	out := make([]string, 0, w.Depth)
	for i := 0; i < w.Depth; i++ {
		out = append(out, fmt.Sprintf("AnyElection_%d", w.OddYear-2*i))
	}
	return out
}
