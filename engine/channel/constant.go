package channel

type constant[T Value] struct {
	value T
	owner Owner
}

var _ Channel[float64] = &constant[float64]{}

// NewConstant creates a shared channel that always produces v.
//
// Parameters:
//   - v: the value to produce
//
// Returns:
//   - Channel[T]: the constant channel
func NewConstant[T Value](v T) Channel[T] {
	return &constant[T]{value: v}
}

// Snapshot captures src evaluated at the given time into an owned constant.
// It is the "off" endpoint for amplitude blending.
//
// Parameters:
//   - src: the channel to sample, usually a shared source
//   - at: the time to sample at
//   - owner: the allocating Instance metadata
//
// Returns:
//   - Channel[T]: the owned constant
func Snapshot[T Value](src Channel[T], at float64, owner Owner) Channel[T] {
	return &constant[T]{value: src.Value(at), owner: owner}
}

func (c *constant[T]) Kind() Kind       { return KindOf[T]() }
func (c *constant[T]) Variant() Variant { return VariantConstant }
func (c *constant[T]) Owner() Owner     { return c.owner }
func (c *constant[T]) Children() []Node { return nil }

func (c *constant[T]) Value(float64) T { return c.value }

func (c *constant[T]) Remove(target Node) (Channel[T], bool) {
	if Node(c) == target {
		return nil, true
	}
	return c, false
}

func (c *constant[T]) Simplify(float64) Channel[T] { return c }
