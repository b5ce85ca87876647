package anyeval

import "math"

// StatCounter accumulates running statistics over a
// stream of episode returns.
//
// The zero value is an empty counter.
// The resulting statistics do not depend on the order in
// which values are fed.
type StatCounter struct {
	Count int
	Sum   float64
	Max   float64
	Min   float64
}

// Feed adds a value to the statistics.
func (s *StatCounter) Feed(x float64) {
	if s.Count == 0 {
		s.Max = x
		s.Min = x
	} else {
		s.Max = math.Max(s.Max, x)
		s.Min = math.Min(s.Min, x)
	}
	s.Count++
	s.Sum += x
}

// Average computes the mean of the values.
//
// It returns 0 if no values have been fed.
func (s *StatCounter) Average() float64 {
	if s.Count == 0 {
		return 0
	}
	return s.Sum / float64(s.Count)
}

// Reset clears the statistics.
func (s *StatCounter) Reset() {
	*s = StatCounter{}
}
