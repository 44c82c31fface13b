package sequencer

import (
	"fmt"
	"strconv"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Shape is the layout of a set of move parameters.
type Shape int

const (
	ShapeNone Shape = iota
	ShapeScalar
	ShapeArray
	ShapeHash
)

// Values is an ordered set of named numeric parameters: a single scalar, an array
// (keys "0", "1", ...) or a hash (keys sorted by name).
type Values struct {
	shape  Shape
	keys   []string
	values []float64
}

// Scalar holds a single parameter.
func Scalar(v float64) Values {
	return Values{shape: ShapeScalar, keys: []string{Index(0)}, values: []float64{v}}
}

// Array holds positional parameters.
func Array(vs ...float64) Values {
	keys := make([]string, len(vs))
	for i := range vs {
		keys[i] = Index(i)
	}
	return Values{shape: ShapeArray, keys: keys, values: append([]float64(nil), vs...)}
}

// Hash holds named parameters.
func Hash(m map[string]float64) Values {
	keys := maps.Keys(m)
	slices.Sort(keys)
	values := make([]float64, len(keys))
	for i, k := range keys {
		values[i] = m[k]
	}
	return Values{shape: ShapeHash, keys: keys, values: values}
}

// Index is the key of the i-th parameter of an array (or of a scalar, for i == 0).
func Index(i int) string {
	return strconv.Itoa(i)
}

func (v Values) Shape() Shape   { return v.shape }
func (v Values) IsZero() bool   { return v.shape == ShapeNone }
func (v Values) Len() int       { return len(v.values) }
func (v Values) Keys() []string { return append([]string(nil), v.keys...) }

// Scalar returns the first parameter.
func (v Values) Scalar() float64 {
	if len(v.values) == 0 {
		return 0
	}
	return v.values[0]
}

// At returns the i-th parameter.
func (v Values) At(i int) float64 { return v.values[i] }

// Get returns the parameter stored under key.
func (v Values) Get(key string) (float64, bool) {
	for i, k := range v.keys {
		if k == key {
			return v.values[i], true
		}
	}
	return 0, false
}

func (v Values) Slice() []float64 { return append([]float64(nil), v.values...) }

func (v Values) Map() map[string]float64 {
	m := make(map[string]float64, len(v.keys))
	for i, k := range v.keys {
		m[k] = v.values[i]
	}
	return m
}

func (v Values) String() string {
	switch v.shape {
	case ShapeScalar:
		return fmt.Sprint(v.Scalar())
	case ShapeHash:
		return fmt.Sprint(v.Map())
	default:
		return fmt.Sprint(v.values)
	}
}

// sameLayout reports whether both sets describe the same parameters.
func (v Values) sameLayout(o Values) bool {
	if v.shape != o.shape || len(v.keys) != len(o.keys) {
		return false
	}
	for i := range v.keys {
		if v.keys[i] != o.keys[i] {
			return false
		}
	}
	return true
}

func (v Values) with(values []float64) Values {
	return Values{shape: v.shape, keys: v.keys, values: values}
}
