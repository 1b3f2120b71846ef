package channel

import (
	"errors"
	"fmt"
	"sort"
)

// Interpolation selects how a keyframe source fills the gap between keys.
type Interpolation uint8

const (
	// InterpolationLinear blends neighboring keys by their time fraction.
	InterpolationLinear Interpolation = iota
	// InterpolationStep holds the previous key until the next one is reached.
	InterpolationStep
)

// ParseInterpolation maps the authoring names "linear" and "step" to an Interpolation.
//
// Parameters:
//   - s: the mode name, case-sensitive; empty means linear
//
// Returns:
//   - Interpolation: the parsed mode
//   - error: error if the name is unknown
func ParseInterpolation(s string) (Interpolation, error) {
	switch s {
	case "", "linear", "LINEAR":
		return InterpolationLinear, nil
	case "step", "STEP":
		return InterpolationStep, nil
	}
	return InterpolationLinear, fmt.Errorf("unknown interpolation %q", s)
}

// ErrNoKeys is returned when a keyframe source is built without any keys.
var ErrNoKeys = errors.New("channel: keyframe source needs at least one key")

// Key is a single keyframe: a value at a time in seconds.
type Key[T Value] struct {
	Time  float64
	Value T
}

type keyframes[T Value] struct {
	keys   []Key[T]
	interp Interpolation
}

// NewKeyframes creates a shared source channel that interpolates between keys.
// Keys are copied and sorted by time. Times before the first key or after the last
// produce the first or last value.
//
// Parameters:
//   - keys: the keyframes
//   - interp: how to fill between keys
//
// Returns:
//   - Channel[T]: the source channel
//   - error: ErrNoKeys if keys is empty
func NewKeyframes[T Value](keys []Key[T], interp Interpolation) (Channel[T], error) {
	if len(keys) == 0 {
		return nil, ErrNoKeys
	}
	sorted := make([]Key[T], len(keys))
	copy(sorted, keys)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time < sorted[j].Time })
	return &keyframes[T]{keys: sorted, interp: interp}, nil
}

func (k *keyframes[T]) Kind() Kind       { return KindOf[T]() }
func (k *keyframes[T]) Variant() Variant { return VariantSource }
func (k *keyframes[T]) Owner() Owner     { return Owner{} }
func (k *keyframes[T]) Children() []Node { return nil }

func (k *keyframes[T]) Value(t float64) T {
	n := len(k.keys)
	if t <= k.keys[0].Time {
		return k.keys[0].Value
	}
	if t >= k.keys[n-1].Time {
		return k.keys[n-1].Value
	}
	// first key strictly after t; guaranteed in [1, n-1]
	i := sort.Search(n, func(i int) bool { return k.keys[i].Time > t })
	prev, next := k.keys[i-1], k.keys[i]
	if k.interp == InterpolationStep {
		return prev.Value
	}
	span := next.Time - prev.Time
	if span <= 0 {
		return next.Value
	}
	return Interpolate(prev.Value, next.Value, (t-prev.Time)/span)
}

// Length returns the time of the last key.
func (k *keyframes[T]) Length() float64 {
	return k.keys[len(k.keys)-1].Time
}

func (k *keyframes[T]) Remove(target Node) (Channel[T], bool) {
	if Node(k) == target {
		return nil, true
	}
	return k, false
}

func (k *keyframes[T]) Simplify(float64) Channel[T] { return k }

type funcSource[T Value] struct {
	fn func(t float64) T
}

// NewFunc creates a shared source channel computed by fn. fn must be pure.
//
// Parameters:
//   - fn: the time → value function
//
// Returns:
//   - Channel[T]: the source channel
func NewFunc[T Value](fn func(t float64) T) Channel[T] {
	return &funcSource[T]{fn: fn}
}

func (f *funcSource[T]) Kind() Kind       { return KindOf[T]() }
func (f *funcSource[T]) Variant() Variant { return VariantSource }
func (f *funcSource[T]) Owner() Owner     { return Owner{} }
func (f *funcSource[T]) Children() []Node { return nil }

func (f *funcSource[T]) Value(t float64) T { return f.fn(t) }

func (f *funcSource[T]) Remove(target Node) (Channel[T], bool) {
	if Node(f) == target {
		return nil, true
	}
	return f, false
}

func (f *funcSource[T]) Simplify(float64) Channel[T] { return f }
