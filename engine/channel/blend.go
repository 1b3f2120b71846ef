package channel

// InheritPriority asks a merge to reuse the priority of the blend it lands on.
const InheritPriority = -1

// PriorityFunc decides where a new contribution lands when it meets an existing blend.
// It returns true when the incoming priority should be layered above the existing one;
// otherwise the incoming channel is folded into the existing blend's A side.
type PriorityFunc func(incoming, existing int) bool

// DefaultPriority places an incoming contribution on top when its priority is at least the existing one.
func DefaultPriority(incoming, existing int) bool {
	return incoming >= existing
}

type blend[T Value] struct {
	a, b       Channel[T]
	optA, optB Channel[T]
	weight     Scalar
	priority   int
	owner      Owner
}

var _ Channel[float64] = &blend[float64]{}

// Blend folds incoming into existing, mixed by weight: weight 0 yields existing, 1 yields incoming.
// When existing is itself a blend that ranks above priority according to above, the
// contribution is pushed down into that blend's A side and the existing root is returned.
//
// Parameters:
//   - existing: the current tree, must not be nil
//   - incoming: the new contribution
//   - weight: the [0, 1] control source, usually an Instance blend weight
//   - priority: the incoming priority, or InheritPriority
//   - above: the ordering rule, DefaultPriority when nil
//   - owner: metadata of the Instance whose contribution created the blend
//
// Returns:
//   - Channel[T]: the new root
func Blend[T Value](existing, incoming Channel[T], weight Scalar, priority int, above PriorityFunc, owner Owner) Channel[T] {
	if above == nil {
		above = DefaultPriority
	}
	effective := priority
	if b, ok := existing.(*blend[T]); ok {
		if effective == InheritPriority {
			effective = b.priority
		}
		if !above(effective, b.priority) {
			b.a = Blend(b.a, incoming, weight, priority, above, owner)
			b.optA = b.a
			return b
		}
	}
	return &blend[T]{
		a:        existing,
		b:        incoming,
		optA:     existing,
		optB:     incoming,
		weight:   weight,
		priority: effective,
		owner:    owner,
	}
}

func (n *blend[T]) Kind() Kind       { return KindOf[T]() }
func (n *blend[T]) Variant() Variant { return VariantBlend }
func (n *blend[T]) Owner() Owner     { return n.owner }
func (n *blend[T]) Children() []Node { return []Node{n.a, n.b} }

// Priority returns the priority the blend was created with, after inheritance.
func (n *blend[T]) Priority() int { return n.priority }

func (n *blend[T]) Value(t float64) T {
	w := n.weight.Value(t)
	switch {
	case w <= 0:
		return n.optA.Value(t)
	case w >= 1:
		return n.optB.Value(t)
	}
	return Interpolate(n.optA.Value(t), n.optB.Value(t), w)
}

func (n *blend[T]) Remove(target Node) (Channel[T], bool) {
	if Node(n) == target {
		return nil, true
	}
	a, foundA := removeChild(n.a, target)
	found := foundA
	b := n.b
	if !found {
		b, found = removeChild(n.b, target)
	}
	if !found {
		return n, false
	}

	n.a, n.b = a, b
	n.optA, n.optB = a, b
	switch {
	case a == nil && b == nil:
		return nil, true
	case a == nil:
		return b, true
	case b == nil:
		return a, true
	}
	return n, true
}

func (n *blend[T]) Simplify(t float64) Channel[T] {
	n.optA = n.a.Simplify(t)
	n.optB = n.b.Simplify(t)
	w := n.weight.Value(t)
	switch {
	case w <= 0:
		return n.optA
	case w >= 1:
		return n.optB
	}
	return n
}
