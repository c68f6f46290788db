package metrics

import "math"

// WelfordState holds running statistics using Welford's online algorithm.
// Mean and standard deviation are kept incrementally without storing the
// observations.
type WelfordState struct {
	Count int     // n - number of observations
	Mean  float64 // running mean
	M2    float64 // sum of squared differences from mean (for variance)
}

// Update adds a new observation.
// Reference: https://en.wikipedia.org/wiki/Algorithms_for_calculating_variance#Welford's_online_algorithm
func (w *WelfordState) Update(newValue float64) {
	w.Count++
	delta := newValue - w.Mean
	w.Mean += delta / float64(w.Count)
	delta2 := newValue - w.Mean
	w.M2 += delta * delta2
}

// Merge folds another state into w (Chan et al. parallel combination)
func (w *WelfordState) Merge(o *WelfordState) {
	if o == nil || o.Count == 0 {
		return
	}
	if w.Count == 0 {
		*w = *o
		return
	}
	n := w.Count + o.Count
	delta := o.Mean - w.Mean
	w.M2 += o.M2 + delta*delta*float64(w.Count)*float64(o.Count)/float64(n)
	w.Mean += delta * float64(o.Count) / float64(n)
	w.Count = n
}

// GetMean returns the current mean.
func (w *WelfordState) GetMean() float64 {
	return w.Mean
}

// GetStdDev returns the population standard deviation.
// Returns 0 if fewer than 2 observations.
func (w *WelfordState) GetStdDev() float64 {
	if w.Count < 2 {
		return 0
	}
	return math.Sqrt(w.M2 / float64(w.Count))
}

// GetCount returns the number of observations.
func (w *WelfordState) GetCount() int {
	return w.Count
}
