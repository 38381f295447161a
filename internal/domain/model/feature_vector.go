package model

// FeatureVector is the fixed-dimension numeric encoding of one description.
// It is created per scoring call and never mutated after construction.
type FeatureVector struct {
	values []float64
}

// NewFeatureVector copies values into a new FeatureVector.
func NewFeatureVector(values []float64) FeatureVector {
	v := make([]float64, len(values))
	copy(v, values)
	return FeatureVector{values: v}
}

// Dim returns the dimension of the vector.
func (v FeatureVector) Dim() int {
	return len(v.values)
}

// At returns the component at index i, or 0 when i is out of range.
func (v FeatureVector) At(i int) float64 {
	if i < 0 || i >= len(v.values) {
		return 0
	}
	return v.values[i]
}

// NonZero returns the number of non-zero components.
func (v FeatureVector) NonZero() int {
	n := 0
	for _, x := range v.values {
		if x != 0 {
			n++
		}
	}
	return n
}

// Values returns a copy of the underlying components.
func (v FeatureVector) Values() []float64 {
	out := make([]float64, len(v.values))
	copy(out, v.values)
	return out
}
