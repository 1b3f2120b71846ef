package applicator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-anim/engine/channel"
	"github.com/Carmen-Shannon/oxy-anim/engine/target"
)

// PinType identifies the target property an applicator writes to.
type PinType uint8

const (
	// PinUnassigned never conflicts with any other applicator, including other unassigned ones.
	PinUnassigned PinType = iota
	PinTransform
	PinAudio
	PinDraw
	PinSimulation
)

var pinNames = map[PinType]string{
	PinUnassigned: "unassigned",
	PinTransform:  "transform",
	PinAudio:      "audio",
	PinDraw:       "draw",
	PinSimulation: "simulation",
}

// String returns the authoring name of the pin.
func (p PinType) String() string {
	if s, ok := pinNames[p]; ok {
		return s
	}
	return fmt.Sprintf("pin(%d)", uint8(p))
}

// ParsePinType maps an authoring name to a PinType. Matching is case-insensitive.
//
// Parameters:
//   - s: the pin name, empty means unassigned
//
// Returns:
//   - PinType: the parsed pin
//   - error: error if the name is unknown
func ParsePinType(s string) (PinType, error) {
	if s == "" {
		return PinUnassigned, nil
	}
	for p, name := range pinNames {
		if strings.EqualFold(name, s) {
			return p, nil
		}
	}
	return PinUnassigned, fmt.Errorf("unknown pin %q", s)
}

var (
	// ErrIncompatibleChannel is returned when a channel's value kind does not match the applicator.
	ErrIncompatibleChannel = errors.New("applicator: incompatible channel")

	// ErrNoSink is returned when the target node does not expose the property the pin writes.
	ErrNoSink = errors.New("applicator: target node has no sink for pin")

	// ErrUnsupportedPin is returned when a value kind cannot be written to the requested pin.
	ErrUnsupportedPin = errors.New("applicator: unsupported pin for value kind")
)

// Applicator binds one channel tree's evaluated output to one property on a target node.
type Applicator interface {
	// Name returns the property name. Unassigned scalar applicators write under this name.
	//
	// Returns:
	//   - string: the property name
	Name() string

	// Pin returns the pin the applicator writes to.
	//
	// Returns:
	//   - PinType: the pin
	Pin() PinType

	// Kind returns the value kind the applicator consumes.
	//
	// Returns:
	//   - channel.Kind: the value kind
	Kind() channel.Kind

	// AutoDelete reports whether a modifier should erase this applicator once its tree is empty.
	//
	// Returns:
	//   - bool: true if auto-delete is set
	AutoDelete() bool

	// Enabled reports whether Apply writes anything.
	//
	// Returns:
	//   - bool: true if enabled
	Enabled() bool

	// SetEnabled toggles writing.
	//
	// Parameters:
	//   - enabled: true to enable
	SetEnabled(enabled bool)

	// Root returns the channel tree root, or nil if the applicator is empty.
	//
	// Returns:
	//   - channel.Node: the root node
	Root() channel.Node

	// Simplified returns the cached simplified root, or nil if none is cached.
	//
	// Returns:
	//   - channel.Node: the simplified root
	Simplified() channel.Node

	// Apply evaluates the tree at t and writes the value to node.
	// Disabled or empty applicators write nothing.
	//
	// Parameters:
	//   - node: the target node to write into
	//   - t: the world time in seconds
	//
	// Returns:
	//   - error: ErrNoSink if node does not expose the pin
	Apply(node target.Node, t float64) error

	// CanBlend reports whether contributions made for other may be folded into this applicator.
	// Unassigned applicators never blend.
	//
	// Parameters:
	//   - other: the template applicator of the incoming contribution
	//
	// Returns:
	//   - bool: true if both share an assigned pin
	CanBlend(other Applicator) bool

	// Accepts checks that ch produces the value kind this applicator consumes.
	//
	// Parameters:
	//   - ch: the channel to check
	//
	// Returns:
	//   - error: ErrIncompatibleChannel on mismatch
	Accepts(ch channel.Node) error

	// Merge folds incoming into this applicator's tree when CanBlend(template) holds.
	//
	// Parameters:
	//   - template: the applicator template of the incoming contribution
	//   - incoming: the channel to fold in
	//   - weight: the blend control for the incoming side
	//   - priority: the incoming priority
	//   - above: the priority ordering rule
	//   - owner: diagnostic metadata for a created blend node
	//
	// Returns:
	//   - channel.Node: the resulting node when merged
	//   - bool: true if the contribution was merged
	//   - error: ErrIncompatibleChannel when the pin matches but the kind does not
	Merge(template Applicator, incoming channel.Node, weight channel.Scalar, priority int, above channel.PriorityFunc, owner channel.Owner) (channel.Node, bool, error)

	// CloneWithChannel creates a fresh applicator of the same kind, pin and flags bound to ch.
	//
	// Parameters:
	//   - ch: the channel to bind
	//
	// Returns:
	//   - Applicator: the new applicator
	//   - error: ErrIncompatibleChannel if ch has the wrong kind
	CloneWithChannel(ch channel.Node) (Applicator, error)

	// Remove excises n from the tree.
	//
	// Parameters:
	//   - n: the node to remove
	//
	// Returns:
	//   - bool: true if n was found
	Remove(n channel.Node) bool

	// Simplify caches a simplified tree used by Apply until the next Invalidate, merge or removal.
	//
	// Parameters:
	//   - t: the time at which blend weights are sampled
	Simplify(t float64)

	// Invalidate drops the cached simplified tree.
	Invalidate()
}

type writeFunc[T channel.Value] func(a *applicator[T], node target.Node, v T) error

type applicator[T channel.Value] struct {
	name       string
	pin        PinType
	autoDelete bool
	enabled    bool

	root, simplified channel.Channel[T]
	write            writeFunc[T]
}

var _ Applicator = &applicator[float64]{}

func newApplicator[T channel.Value](pin PinType, write writeFunc[T], options []ApplicatorBuilderOption) *applicator[T] {
	cfg := applicatorConfig{autoDelete: true, enabled: true}
	for _, option := range options {
		option(&cfg)
	}
	a := &applicator[T]{
		name:       cfg.name,
		pin:        pin,
		autoDelete: cfg.autoDelete,
		enabled:    cfg.enabled,
		write:      write,
	}
	if cfg.channel != nil {
		if ch, ok := channel.As[T](cfg.channel); ok {
			a.root = ch
		}
	}
	return a
}

func (a *applicator[T]) Name() string       { return a.name }
func (a *applicator[T]) Pin() PinType       { return a.pin }
func (a *applicator[T]) Kind() channel.Kind { return channel.KindOf[T]() }
func (a *applicator[T]) AutoDelete() bool   { return a.autoDelete }
func (a *applicator[T]) Enabled() bool      { return a.enabled }

func (a *applicator[T]) SetEnabled(enabled bool) {
	a.enabled = enabled
}

func (a *applicator[T]) Root() channel.Node {
	if a.root == nil {
		return nil
	}
	return a.root
}

func (a *applicator[T]) Simplified() channel.Node {
	if a.simplified == nil {
		return nil
	}
	return a.simplified
}

func (a *applicator[T]) Apply(node target.Node, t float64) error {
	if !a.enabled || a.root == nil {
		return nil
	}
	ch := a.root
	if a.simplified != nil {
		ch = a.simplified
	}
	return a.write(a, node, ch.Value(t))
}

func (a *applicator[T]) CanBlend(other Applicator) bool {
	return other != nil && a.pin != PinUnassigned && a.pin == other.Pin()
}

func (a *applicator[T]) Accepts(ch channel.Node) error {
	if _, ok := channel.As[T](ch); !ok {
		kind := "nil"
		if ch != nil {
			kind = ch.Kind().String()
		}
		return fmt.Errorf("%w: %s pin %s wants %s, got %s", ErrIncompatibleChannel, a.pin, a.name, a.Kind(), kind)
	}
	return nil
}

func (a *applicator[T]) Merge(template Applicator, incoming channel.Node, weight channel.Scalar, priority int, above channel.PriorityFunc, owner channel.Owner) (channel.Node, bool, error) {
	if !a.CanBlend(template) {
		return nil, false, nil
	}
	if err := a.Accepts(incoming); err != nil {
		return nil, false, err
	}
	ch, _ := channel.As[T](incoming)
	if a.root == nil {
		a.root = ch
	} else {
		a.root = channel.Blend(a.root, ch, weight, priority, above, owner)
	}
	a.simplified = nil
	return a.root, true, nil
}

func (a *applicator[T]) CloneWithChannel(ch channel.Node) (Applicator, error) {
	if err := a.Accepts(ch); err != nil {
		return nil, err
	}
	typed, _ := channel.As[T](ch)
	return &applicator[T]{
		name:       a.name,
		pin:        a.pin,
		autoDelete: a.autoDelete,
		enabled:    a.enabled,
		root:       typed,
		write:      a.write,
	}, nil
}

func (a *applicator[T]) Remove(n channel.Node) bool {
	if a.root == nil {
		return false
	}
	root, found := a.root.Remove(n)
	if !found {
		return false
	}
	a.root = root
	a.simplified = nil
	return true
}

func (a *applicator[T]) Simplify(t float64) {
	if a.root == nil {
		a.simplified = nil
		return
	}
	a.simplified = a.root.Simplify(t)
}

func (a *applicator[T]) Invalidate() {
	a.simplified = nil
}
