package channel

type timeRemap[T Value] struct {
	child, opt Channel[T]
	clock      Scalar
	owner      Owner
}

var _ Channel[float64] = &timeRemap[float64]{}

// TimeRemap reparameterizes child through clock: Value(t) = child.Value(clock.Value(t)).
// Each Instance layers one over every channel it attaches so it plays on its own local clock.
//
// Parameters:
//   - child: the subtree to drive
//   - clock: the world → local time source
//   - owner: the allocating Instance metadata
//
// Returns:
//   - Channel[T]: the owned time-remap node
func TimeRemap[T Value](child Channel[T], clock Scalar, owner Owner) Channel[T] {
	return &timeRemap[T]{child: child, opt: child, clock: clock, owner: owner}
}

func (n *timeRemap[T]) Kind() Kind       { return KindOf[T]() }
func (n *timeRemap[T]) Variant() Variant { return VariantTimeRemap }
func (n *timeRemap[T]) Owner() Owner     { return n.owner }
func (n *timeRemap[T]) Children() []Node { return []Node{n.child} }

func (n *timeRemap[T]) Value(t float64) T {
	return n.opt.Value(n.clock.Value(t))
}

// A time-remap is never replaced by its child: removing it, or losing its child, removes the node.
func (n *timeRemap[T]) Remove(target Node) (Channel[T], bool) {
	if Node(n) == target {
		return nil, true
	}
	child, found := removeChild(n.child, target)
	if !found {
		return n, false
	}
	if child == nil {
		n.child, n.opt = nil, nil
		return nil, true
	}
	n.child, n.opt = child, child
	return n, true
}

func (n *timeRemap[T]) Simplify(t float64) Channel[T] {
	n.opt = n.child.Simplify(t)
	return n
}
