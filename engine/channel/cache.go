package channel

type cache[T Value] struct {
	child, opt Channel[T]
	clock      Scalar
	owner      Owner

	valid bool
	at    float64
	epoch uint64
	last  T
}

var _ Channel[float64] = &cache[float64]{}

// Cache memoizes the last value child produced for a given time, so a subtree read by
// several applicators is only evaluated once per tick. If clock reports an epoch
// (it can jump), the memo is dropped whenever the epoch changes.
//
// Parameters:
//   - child: the subtree to memoize
//   - clock: the time source driving this subtree, may be nil
//   - owner: the allocating Instance metadata
//
// Returns:
//   - Channel[T]: the owned cache node
func Cache[T Value](child Channel[T], clock Scalar, owner Owner) Channel[T] {
	return &cache[T]{child: child, opt: child, clock: clock, owner: owner}
}

func (n *cache[T]) Kind() Kind       { return KindOf[T]() }
func (n *cache[T]) Variant() Variant { return VariantCache }
func (n *cache[T]) Owner() Owner     { return n.owner }
func (n *cache[T]) Children() []Node { return []Node{n.child} }

func (n *cache[T]) currentEpoch() uint64 {
	if e, ok := n.clock.(epocher); ok {
		return e.Epoch()
	}
	return 0
}

func (n *cache[T]) Value(t float64) T {
	epoch := n.currentEpoch()
	if n.valid && n.at == t && n.epoch == epoch {
		return n.last
	}
	n.last = n.opt.Value(t)
	n.at, n.epoch, n.valid = t, epoch, true
	return n.last
}

// A cache that is itself the target is replaced by its child.
func (n *cache[T]) Remove(target Node) (Channel[T], bool) {
	if Node(n) == target {
		return n.child, true
	}
	child, found := removeChild(n.child, target)
	if !found {
		return n, false
	}
	n.valid = false
	if child == nil {
		n.child, n.opt = nil, nil
		return nil, true
	}
	n.child, n.opt = child, child
	return n, true
}

func (n *cache[T]) Simplify(t float64) Channel[T] {
	n.opt = n.child.Simplify(t)
	n.valid = false
	return n
}
