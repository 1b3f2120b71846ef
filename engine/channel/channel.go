package channel

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/google/uuid"
)

// Kind identifies the value type a channel produces.
type Kind uint8

const (
	KindScalar Kind = iota
	KindPoint
	KindQuat
	KindMatrix
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindPoint:
		return "point"
	case KindQuat:
		return "quat"
	case KindMatrix:
		return "matrix"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Variant identifies which node type a channel is.
type Variant uint8

const (
	VariantConstant Variant = iota
	VariantBlend
	VariantTimeRemap
	VariantCache
	VariantSource
)

// String returns the node type name used in graph dumps.
func (v Variant) String() string {
	switch v {
	case VariantConstant:
		return "constant"
	case VariantBlend:
		return "blend"
	case VariantTimeRemap:
		return "timeRemap"
	case VariantCache:
		return "cache"
	case VariantSource:
		return "source"
	}
	return fmt.Sprintf("variant(%d)", uint8(v))
}

// Value is the closed set of types a channel can produce.
type Value interface {
	float64 | common.Point3 | common.Quat | common.Matrix4
}

// Owner is the diagnostic metadata attached to every node an Instance allocates.
// Shared source channels carry the zero Owner.
type Owner struct {
	// Instance is the id of the Instance that allocated the node.
	Instance uuid.UUID

	// Animation is the name of the animation definition being attached.
	Animation string

	// Channel is the channel name the node was built for.
	Channel string
}

// IsZero reports whether the owner is unset, i.e. the node is shared.
func (o Owner) IsZero() bool {
	return o.Instance == uuid.Nil && o.Animation == "" && o.Channel == ""
}

// String formats the owner for graph dumps.
func (o Owner) String() string {
	if o.IsZero() {
		return "shared"
	}
	return fmt.Sprintf("%s/%s#%s", o.Animation, o.Channel, o.Instance.String()[:8])
}

// Node is the type-erased view of a channel used by applicators and modifiers
// that do not care about the produced value type.
type Node interface {
	// Kind returns the value type the node produces.
	//
	// Returns:
	//   - Kind: the value kind
	Kind() Kind

	// Variant returns the node type.
	//
	// Returns:
	//   - Variant: the node variant
	Variant() Variant

	// Owner returns the diagnostic owner metadata for this node.
	//
	// Returns:
	//   - Owner: the allocating Instance metadata, or the zero Owner for shared nodes
	Owner() Owner

	// Children returns the direct children of the node in evaluation order.
	//
	// Returns:
	//   - []Node: the child nodes, empty for leaves
	Children() []Node
}

// Channel is a composable, replayable time → value producer.
type Channel[T Value] interface {
	Node

	// Value evaluates the channel at the given time.
	//
	// Parameters:
	//   - t: the time in seconds, in this node's time base
	//
	// Returns:
	//   - T: the produced value
	Value(t float64) T

	// Remove searches the tree rooted at this node for target and splices it out.
	// Composite nodes are updated in place when the target lies beneath them.
	//
	// Parameters:
	//   - target: the node to excise
	//
	// Returns:
	//   - Channel[T]: the new root of this subtree, nil if the subtree vanished
	//   - bool: true if target was found and removed
	Remove(target Node) (Channel[T], bool)

	// Simplify returns a root with blends pinned at 0 or 1 bypassed for the given time.
	// Surviving composites keep their simplified children until the next removal or merge.
	//
	// Parameters:
	//   - t: the time at which blend weights are sampled
	//
	// Returns:
	//   - Channel[T]: the simplified root
	Simplify(t float64) Channel[T]
}

// Scalar is a control source such as a clock or a weight. Channel[float64] satisfies it.
type Scalar interface {
	Value(t float64) float64
}

// ScalarFunc adapts a function to the Scalar interface.
type ScalarFunc func(t float64) float64

// Value calls f(t).
func (f ScalarFunc) Value(t float64) float64 {
	return f(t)
}

// Weight returns a Scalar that reads the current value behind ptr regardless of time.
//
// Parameters:
//   - ptr: pointer to the weight storage, owned by the caller
//
// Returns:
//   - Scalar: a control source reading *ptr
func Weight(ptr *float64) Scalar {
	return ScalarFunc(func(float64) float64 { return *ptr })
}

// epocher is implemented by time sources that can jump, so caches know to drop memoized values.
type epocher interface {
	Epoch() uint64
}

// KindOf returns the Kind produced by channels of type T.
//
// Returns:
//   - Kind: the value kind for T
func KindOf[T Value]() Kind {
	var zero T
	switch any(zero).(type) {
	case common.Point3:
		return KindPoint
	case common.Quat:
		return KindQuat
	case common.Matrix4:
		return KindMatrix
	}
	return KindScalar
}

// Interpolate mixes two values of the same kind by w in [0, 1].
// Scalars and points interpolate linearly, quaternions by slerp, matrices by affine decomposition.
//
// Parameters:
//   - a: value at w = 0
//   - b: value at w = 1
//   - w: the mix factor
//
// Returns:
//   - T: the mixed value
func Interpolate[T Value](a, b T, w float64) T {
	switch av := any(a).(type) {
	case float64:
		bv := any(b).(float64)
		return any(av + (bv-av)*w).(T)
	case common.Point3:
		return any(common.LerpPoint(av, any(b).(common.Point3), w)).(T)
	case common.Quat:
		return any(common.QuatSlerp(av, any(b).(common.Quat), w)).(T)
	case common.Matrix4:
		return any(common.LerpMatrix(av, any(b).(common.Matrix4), w)).(T)
	}
	return a
}

// As narrows a type-erased node to a typed channel.
//
// Parameters:
//   - n: the node to narrow
//
// Returns:
//   - Channel[T]: the typed channel
//   - bool: false when n is nil or produces a different kind
func As[T Value](n Node) (Channel[T], bool) {
	if n == nil {
		return nil, false
	}
	c, ok := n.(Channel[T])
	return c, ok
}

// removeChild runs Remove on a possibly-nil child.
func removeChild[T Value](child Channel[T], target Node) (Channel[T], bool) {
	if child == nil {
		return nil, false
	}
	return child.Remove(target)
}
