package metrics

import (
	"math"
	"sort"
)

// MaxHeadwayMinutes bounds the gaps counted as headways. Longer gaps are
// service breaks (overnight, midday lulls), not frequency.
const MaxHeadwayMinutes = 120

// Headways accumulates the gaps between successive departures, given in
// minutes since midnight. Gaps outside (0, MaxHeadwayMinutes) are ignored.
func Headways(minutes []int) *WelfordState {
	sorted := append([]int(nil), minutes...)
	sort.Ints(sorted)

	state := &WelfordState{}
	for i := 1; i < len(sorted); i++ {
		gap := sorted[i] - sorted[i-1]
		if gap > 0 && gap < MaxHeadwayMinutes {
			state.Update(float64(gap))
		}
	}
	return state
}

// Frequency is a rounded headway summary
type Frequency struct {
	AvgHeadwayMin float64
	TripsPerHour  float64
	Samples       int
}

// Summarize rounds a headway state to one decimal. A state without samples
// yields the zero Frequency.
func Summarize(state *WelfordState) Frequency {
	if state == nil || state.Count == 0 || state.Mean <= 0 {
		return Frequency{}
	}
	return Frequency{
		AvgHeadwayMin: round1(state.Mean),
		TripsPerHour:  round1(60 / state.Mean),
		Samples:       state.Count,
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
