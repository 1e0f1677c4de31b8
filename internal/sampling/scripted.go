package sampling

// Scripted is a Source that replays fixed values. Once a list is exhausted
// it keeps returning its last value (or 0 if the list is empty).
type Scripted struct {
	Floats []float64
	Ints   []int
	fi, ii int
}

func (s *Scripted) Float64() float64 {
	if len(s.Floats) == 0 {
		return 0
	}
	v := s.Floats[min(s.fi, len(s.Floats)-1)]
	s.fi++
	return v
}

// IntN returns the next scripted int, reduced modulo n.
func (s *Scripted) IntN(n int) int {
	if len(s.Ints) == 0 || n <= 0 {
		return 0
	}
	v := s.Ints[min(s.ii, len(s.Ints)-1)]
	s.ii++
	return v % n
}
