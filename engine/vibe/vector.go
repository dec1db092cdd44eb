package vibe

import (
	"errors"
	"fmt"
	"math"
)

// ErrWrongDimension is returned when a vector is constructed from a slice
// whose length is not exactly Dimensions. Silent truncation or padding would
// corrupt axis semantics, so construction fails fast instead.
var ErrWrongDimension = errors.New("wrong vibe vector dimension")

// Vector is a ten-axis vibe vector. Each component is expected to be in
// [-1, 1]; consumers clamp out-of-range values rather than rejecting them,
// since 0 (not an error) represents an unrated axis.
type Vector [Dimensions]float64

// FromSlice builds a Vector from a slice, failing fast on any length other
// than Dimensions.
func FromSlice(vals []float64) (Vector, error) {
	var v Vector
	if len(vals) != Dimensions {
		return v, fmt.Errorf("vibe: got %d values: %w", len(vals), ErrWrongDimension)
	}
	copy(v[:], vals)
	return v, nil
}

// Slice returns a copy of the vector's components.
func (v Vector) Slice() []float64 {
	out := make([]float64, Dimensions)
	copy(out, v[:])
	return out
}

// Clamp returns a copy with each component clamped into [-1, 1].
func (v Vector) Clamp() Vector {
	for i, x := range v {
		v[i] = math.Max(-1, math.Min(1, x))
	}
	return v
}

// Dot returns the dot product of two vectors.
func (v Vector) Dot(o Vector) float64 {
	var sum float64
	for i := range v {
		sum += v[i] * o[i]
	}
	return sum
}

// Norm returns the Euclidean norm.
func (v Vector) Norm() float64 {
	return math.Sqrt(v.Dot(v))
}

// IsZero reports whether every component is exactly zero.
func (v Vector) IsZero() bool {
	return v == Vector{}
}

// Float32s returns the vector as float32 components for vector-store wire use.
func (v Vector) Float32s() []float32 {
	out := make([]float32, Dimensions)
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}

// FromFloat32s builds a Vector from float32 components, with the same
// fail-fast length rule as FromSlice.
func FromFloat32s(vals []float32) (Vector, error) {
	var v Vector
	if len(vals) != Dimensions {
		return v, fmt.Errorf("vibe: got %d values: %w", len(vals), ErrWrongDimension)
	}
	for i, x := range vals {
		v[i] = float64(x)
	}
	return v, nil
}
