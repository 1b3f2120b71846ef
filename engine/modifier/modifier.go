package modifier

import (
	"errors"
	"fmt"
	"io"

	"github.com/Carmen-Shannon/oxy-anim/engine/applicator"
	"github.com/Carmen-Shannon/oxy-anim/engine/channel"
	"github.com/Carmen-Shannon/oxy-anim/engine/target"
)

var (
	// ErrAmbiguousPin is returned when more than one applicator holds the requested pin.
	ErrAmbiguousPin = errors.New("modifier: more than one applicator for pin")

	// ErrNoApplicator is returned when no applicator holds the requested pin.
	ErrNoApplicator = errors.New("modifier: no applicator for pin")
)

type modifier struct {
	name        string
	node        target.Node
	applicators []applicator.Applicator
}

// Modifier is the named binding point on one target object where animation channels of
// that name are merged. It owns an ordered list of applicators, at most one per assigned pin.
type Modifier interface {
	// Name returns the channel name this modifier binds.
	//
	// Returns:
	//   - string: the channel name
	Name() string

	// Target returns the node applicators write into.
	//
	// Returns:
	//   - target.Node: the bound node
	Target() target.Node

	// Applicators returns a copy of the applicator list in apply order.
	//
	// Returns:
	//   - []applicator.Applicator: the applicators
	Applicators() []applicator.Applicator

	// Applicator returns the single applicator holding pin.
	//
	// Parameters:
	//   - pin: the pin to look up
	//
	// Returns:
	//   - applicator.Applicator: the applicator
	//   - error: ErrNoApplicator if none, ErrAmbiguousPin if several hold it
	Applicator(pin applicator.PinType) (applicator.Applicator, error)

	// CanMerge reports whether Merge would succeed for this template and channel, without mutating anything.
	//
	// Parameters:
	//   - template: the applicator template of the contribution
	//   - ch: the channel that would be merged
	//
	// Returns:
	//   - error: the error Merge would return, or nil
	CanMerge(template applicator.Applicator, ch channel.Node) error

	// Merge folds ch into the first applicator that accepts it, or installs a clone of template bound to ch.
	//
	// Parameters:
	//   - template: the applicator template of the contribution
	//   - ch: the channel to merge
	//   - weight: the blend control for the contribution
	//   - priority: the contribution priority
	//   - above: the priority ordering rule
	//   - owner: diagnostic metadata for created blend nodes
	//
	// Returns:
	//   - channel.Node: the resulting node, either the new tree root or ch itself
	//   - error: applicator.ErrIncompatibleChannel when an applicator owns the pin with another kind
	Merge(template applicator.Applicator, ch channel.Node, weight channel.Scalar, priority int, above channel.PriorityFunc, owner channel.Owner) (channel.Node, error)

	// Remove excises ch from the first applicator that contains it. An applicator left empty is
	// erased when it is auto-delete. Removing a node that is nowhere present is a no-op.
	//
	// Parameters:
	//   - ch: the node to remove
	//
	// Returns:
	//   - bool: true if ch was found
	Remove(ch channel.Node) bool

	// ApplyAll applies every enabled applicator once. Every applicator runs even when one fails.
	//
	// Parameters:
	//   - t: the world time in seconds
	//
	// Returns:
	//   - error: the joined write errors
	ApplyAll(t float64) error

	// Simplify caches a simplified tree on every applicator.
	//
	// Parameters:
	//   - t: the time at which blend weights are sampled
	Simplify(t float64)

	// Invalidate drops every applicator's simplified tree.
	Invalidate()

	// Dump writes the modifier, its applicators and their trees.
	//
	// Parameters:
	//   - w: the destination
	//   - simplified: dump the cached simplified trees instead of the full trees
	//
	// Returns:
	//   - error: the first write error
	Dump(w io.Writer, simplified bool) error
}

var _ Modifier = &modifier{}

// NewModifier creates a modifier for one channel name on one target node.
//
// Parameters:
//   - name: the channel name
//   - node: the node applicators write into
//   - options: functional options to configure the modifier
//
// Returns:
//   - Modifier: the newly created modifier
func NewModifier(name string, node target.Node, options ...ModifierBuilderOption) Modifier {
	m := &modifier{
		name: name,
		node: node,
	}
	for _, option := range options {
		option(m)
	}
	return m
}

func (m *modifier) Name() string {
	return m.name
}

func (m *modifier) Target() target.Node {
	return m.node
}

func (m *modifier) Applicators() []applicator.Applicator {
	out := make([]applicator.Applicator, len(m.applicators))
	copy(out, m.applicators)
	return out
}

func (m *modifier) Applicator(pin applicator.PinType) (applicator.Applicator, error) {
	var found applicator.Applicator
	for _, app := range m.applicators {
		if app.Pin() != pin {
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("%w: %s on %q", ErrAmbiguousPin, pin, m.name)
		}
		found = app
	}
	if found == nil {
		return nil, fmt.Errorf("%w: %s on %q", ErrNoApplicator, pin, m.name)
	}
	return found, nil
}

func (m *modifier) CanMerge(template applicator.Applicator, ch channel.Node) error {
	for _, app := range m.applicators {
		if app.CanBlend(template) {
			return app.Accepts(ch)
		}
	}
	return template.Accepts(ch)
}

func (m *modifier) Merge(template applicator.Applicator, ch channel.Node, weight channel.Scalar, priority int, above channel.PriorityFunc, owner channel.Owner) (channel.Node, error) {
	for _, app := range m.applicators {
		result, merged, err := app.Merge(template, ch, weight, priority, above, owner)
		if err != nil {
			return nil, fmt.Errorf("merge into %q: %w", m.name, err)
		}
		if merged {
			return result, nil
		}
	}

	clone, err := template.CloneWithChannel(ch)
	if err != nil {
		return nil, fmt.Errorf("install on %q: %w", m.name, err)
	}
	m.applicators = append(m.applicators, clone)
	return ch, nil
}

func (m *modifier) Remove(ch channel.Node) bool {
	for i, app := range m.applicators {
		if !app.Remove(ch) {
			continue
		}
		if app.Root() == nil && app.AutoDelete() {
			m.applicators = append(m.applicators[:i], m.applicators[i+1:]...)
		}
		return true
	}
	return false
}

func (m *modifier) ApplyAll(t float64) error {
	var errs []error
	for _, app := range m.applicators {
		if !app.Enabled() {
			continue
		}
		if err := app.Apply(m.node, t); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *modifier) Simplify(t float64) {
	for _, app := range m.applicators {
		app.Simplify(t)
	}
}

func (m *modifier) Invalidate() {
	for _, app := range m.applicators {
		app.Invalidate()
	}
}

func (m *modifier) Dump(w io.Writer, simplified bool) error {
	if _, err := fmt.Fprintf(w, "modifier %q (%d applicators)\n", m.name, len(m.applicators)); err != nil {
		return err
	}
	for _, app := range m.applicators {
		if _, err := fmt.Fprintf(w, "  applicator %s %s %q enabled=%t\n", app.Pin(), app.Kind(), app.Name(), app.Enabled()); err != nil {
			return err
		}
		root := app.Root()
		if simplified && app.Simplified() != nil {
			root = app.Simplified()
		}
		if err := channel.Dump(w, root, 2); err != nil {
			return err
		}
	}
	return nil
}
