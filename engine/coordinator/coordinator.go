package coordinator

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/channel"
	"github.com/Carmen-Shannon/oxy-anim/engine/clock"
	"github.com/Carmen-Shannon/oxy-anim/engine/definition"
	"github.com/Carmen-Shannon/oxy-anim/engine/instance"
	"github.com/Carmen-Shannon/oxy-anim/engine/modifier"
	"github.com/Carmen-Shannon/oxy-anim/engine/profiler"
	"github.com/Carmen-Shannon/oxy-anim/engine/target"
	"github.com/Carmen-Shannon/oxy-anim/internal/logging"
)

// Blend priorities for attach calls.
const (
	LowPriority    = 0
	MediumPriority = 1
	HighPriority   = 2
	MaxPriority    = 0x0fffffff
)

var (
	// ErrNoTarget is returned when a modifier is requested before a target is bound.
	ErrNoTarget = errors.New("coordinator: no target bound")

	// ErrNoNode is returned when the bound target has no node for a channel name.
	ErrNoNode = errors.New("coordinator: target has no node for channel")

	// ErrNoInstance is returned when no attached instance has the requested name.
	ErrNoInstance = errors.New("coordinator: no attached instance")

	// ErrNoLibrary is returned when attaching by name without a library.
	ErrNoLibrary = errors.New("coordinator: no definition library")
)

type coordinator struct {
	name      string
	target    target.Object
	logger    *slog.Logger
	profiler  *profiler.Profiler
	library   definition.Library
	above     channel.PriorityFunc
	private   []definition.Definition
	mods      map[string]modifier.Modifier
	order     []string
	instances []instance.Instance
	pending   []instance.Instance
	now       float64

	simplifyDirty bool
	syncDirty     bool
}

// Coordinator owns every Modifier and attached Instance of one target object and drives
// their evaluation once per tick. A Coordinator is not safe for concurrent use; the engine
// ticks each one from at most one goroutine at a time.
type Coordinator interface {
	instance.Host

	// Name returns the coordinator name, the bound target's name by default.
	//
	// Returns:
	//   - string: the name
	Name() string

	// Target returns the bound target object.
	//
	// Returns:
	//   - target.Object: the target, or nil before Bind
	Target() target.Object

	// Bind detaches everything from the current target, drops its modifiers and binds obj.
	// Private animations are then attached, with the master animation at full weight and the rest at zero.
	//
	// Parameters:
	//   - obj: the new target
	//
	// Returns:
	//   - error: the joined attach errors of private animations
	Bind(obj target.Object) error

	// Modifiers returns the modifiers created so far in creation order.
	//
	// Returns:
	//   - []modifier.Modifier: the modifiers
	Modifiers() []modifier.Modifier

	// AttachBlended attaches def at the given weight and priority.
	//
	// Parameters:
	//   - def: the definition to attach
	//   - weight: the initial blend weight
	//   - priority: the blend priority
	//   - options: extra instance options such as caching or amplitude
	//
	// Returns:
	//   - instance.Instance: the attached instance
	//   - error: *instance.AttachError when a channel cannot be bound
	AttachBlended(def definition.Definition, weight float64, priority int, options ...instance.InstanceBuilderOption) (instance.Instance, error)

	// AttachBlendedByName looks up name in the library and attaches it.
	//
	// Parameters:
	//   - name: the animation name
	//   - weight: the initial blend weight
	//   - priority: the blend priority
	//   - options: extra instance options
	//
	// Returns:
	//   - instance.Instance: the attached instance
	//   - error: definition.ErrUnknownAnimation, ErrNoLibrary or an attach error
	AttachBlendedByName(name string, weight float64, priority int, options ...instance.InstanceBuilderOption) (instance.Instance, error)

	// Detach removes an instance and every node it added.
	//
	// Parameters:
	//   - inst: the instance
	//
	// Returns:
	//   - error: instance.ErrAlreadyDetached on a second call
	Detach(inst instance.Instance) error

	// DetachByName detaches the first instance whose animation name matches, ignoring case.
	//
	// Parameters:
	//   - name: the animation name
	//
	// Returns:
	//   - error: ErrNoInstance when nothing matches
	DetachByName(name string) error

	// DetachAll detaches every instance, newest first.
	//
	// Returns:
	//   - error: the joined detach errors
	DetachAll() error

	// Tick steps fades in attachment order, re-simplifies if needed, applies every modifier
	// and finally detaches instances whose simple playback stopped.
	//
	// Parameters:
	//   - t: the world time, never decreasing between calls
	//   - elapsed: the seconds since the previous tick
	//
	// Returns:
	//   - error: the joined applicator write errors
	Tick(t, elapsed float64) error

	// Simplify bypasses blends pinned at 0 or 1 at time t and caches the result until the graph changes.
	//
	// Parameters:
	//   - t: the world time weights are sampled at
	Simplify(t float64)

	// Instances returns the attached instances in attachment order.
	//
	// Returns:
	//   - []instance.Instance: the instances
	Instances() []instance.Instance

	// FindInstance returns the first attached instance with the given animation name, ignoring case.
	//
	// Parameters:
	//   - name: the animation name
	//
	// Returns:
	//   - instance.Instance: the instance
	//   - bool: false when nothing matches
	FindInstance(name string) (instance.Instance, bool)

	// FindOrAttach sets the blend of an attached instance, or attaches the named animation at that blend.
	//
	// Parameters:
	//   - name: the animation name
	//   - weight: the blend weight
	//
	// Returns:
	//   - instance.Instance: the instance
	//   - error: the attach error
	FindOrAttach(name string, weight float64) (instance.Instance, error)

	// PlaySimple attaches the named animation at full weight and maximum priority, plays it once
	// and detaches it when it stops. An already attached animation is returned unchanged.
	//
	// Parameters:
	//   - name: the animation name
	//
	// Returns:
	//   - instance.Instance: the instance
	//   - error: the attach error
	PlaySimple(name string) (instance.Instance, error)

	// PlayExclusive drives the named animation to full weight, zeroes every instance writing
	// the same pins and starts it.
	//
	// Parameters:
	//   - name: the animation name
	//
	// Returns:
	//   - instance.Instance: the instance
	//   - error: the attach error
	PlayExclusive(name string) (instance.Instance, error)

	// SetAnimTime jumps every instance to anim time t without firing marker callbacks.
	//
	// Parameters:
	//   - t: the anim time
	SetAnimTime(t float64)

	// Running reports whether any attached instance is playing.
	Running() bool

	// SyncDirty reports whether replicated playback state changed since the last ClearSyncDirty.
	SyncDirty() bool

	// ClearSyncDirty resets the sync flag.
	ClearSyncDirty()

	// DumpGraph writes the blend graph of one channel, or of every channel when name is empty.
	//
	// Parameters:
	//   - w: the destination
	//   - name: the channel name or ""
	//   - simplified: dump the cached simplified trees
	//
	// Returns:
	//   - error: ErrNoNode for an unknown channel or the first write error
	DumpGraph(w io.Writer, name string, simplified bool) error

	// DumpInstances writes every attached instance and the nodes it owns.
	//
	// Parameters:
	//   - w: the destination
	//
	// Returns:
	//   - error: the first write error
	DumpInstances(w io.Writer) error
}

var _ Coordinator = &coordinator{}

// NewCoordinator creates a coordinator and binds it to obj.
//
// Parameters:
//   - obj: the target object, may be nil and bound later
//   - options: functional options to configure the coordinator
//
// Returns:
//   - Coordinator: the newly created coordinator
//   - error: the joined attach errors of private animations
func NewCoordinator(obj target.Object, options ...CoordinatorBuilderOption) (Coordinator, error) {
	c := &coordinator{
		logger: logging.NewNop(),
		above:  channel.DefaultPriority,
		mods:   make(map[string]modifier.Modifier),
	}
	for _, option := range options {
		option(c)
	}
	if obj == nil {
		return c, nil
	}
	return c, c.Bind(obj)
}

func (c *coordinator) Name() string {
	if c.name == "" && c.target != nil {
		return c.target.Name()
	}
	return c.name
}

func (c *coordinator) Target() target.Object {
	return c.target
}

func (c *coordinator) Bind(obj target.Object) error {
	if err := c.DetachAll(); err != nil {
		return err
	}
	c.target = obj
	c.mods = make(map[string]modifier.Modifier)
	c.order = nil
	c.simplifyDirty, c.syncDirty = true, true
	if obj == nil || len(c.private) == 0 {
		return nil
	}

	master := masterIndex(c.private)
	var errs []error
	for n, def := range c.private {
		weight := 0.0
		if n == master {
			weight = 1
		}
		if _, err := c.AttachBlended(def, weight, MediumPriority); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// masterIndex picks the private animation attached at full weight: the last auto-start one,
// else the last one with an initial time, else the one that begins earliest.
func masterIndex(defs []definition.Definition) int {
	auto, initial, earliest := -1, -1, 0
	for n, def := range defs {
		if def.AutoStart() {
			auto = n
		}
		if _, ok := def.InitialTime(); ok {
			initial = n
		}
		if def.Begin() < defs[earliest].Begin() {
			earliest = n
		}
	}
	switch {
	case auto != -1:
		return auto
	case initial != -1:
		return initial
	}
	return earliest
}

func (c *coordinator) ModifierFor(name string) (modifier.Modifier, error) {
	key := common.NameKey(name)
	if m, ok := c.mods[key]; ok {
		return m, nil
	}
	if c.target == nil {
		return nil, ErrNoTarget
	}
	node, ok := c.target.Resolve(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q on %s", ErrNoNode, name, c.target.Name())
	}
	m := modifier.NewModifier(node.Name(), node)
	c.mods[key] = m
	c.order = append(c.order, key)
	c.logger.Debug("modifier created", "coordinator", c.Name(), "channel", name)
	return m, nil
}

func (c *coordinator) Modifiers() []modifier.Modifier {
	out := make([]modifier.Modifier, 0, len(c.order))
	for _, key := range c.order {
		out = append(out, c.mods[key])
	}
	return out
}

func (c *coordinator) Now() float64 {
	return c.now
}

func (c *coordinator) MarkSimplifyDirty() {
	c.simplifyDirty = true
}

func (c *coordinator) MarkSyncDirty() {
	c.syncDirty = true
}

func (c *coordinator) Forget(inst instance.Instance) {
	idx := slices.Index(c.instances, inst)
	if idx < 0 {
		return
	}
	c.instances = slices.Delete(c.instances, idx, idx+1)
	c.syncDirty = true
	if c.profiler != nil {
		c.profiler.ObserveDetach()
	}
}

func (c *coordinator) AttachBlended(def definition.Definition, weight float64, priority int, options ...instance.InstanceBuilderOption) (instance.Instance, error) {
	opts := append([]instance.InstanceBuilderOption{
		instance.WithBlend(weight),
		instance.WithPriority(priority),
		instance.WithPriorityFunc(c.above),
		instance.WithLogger(c.logger),
	}, options...)
	inst, err := instance.New(def, c, opts...)
	if c.profiler != nil {
		c.profiler.ObserveAttach(err)
	}
	if err != nil {
		return nil, err
	}
	c.instances = append(c.instances, inst)
	c.syncDirty = true
	return inst, nil
}

func (c *coordinator) AttachBlendedByName(name string, weight float64, priority int, options ...instance.InstanceBuilderOption) (instance.Instance, error) {
	if c.library == nil {
		return nil, fmt.Errorf("%w: cannot resolve %q", ErrNoLibrary, name)
	}
	def, err := c.library.Get(name)
	if err != nil {
		return nil, err
	}
	return c.AttachBlended(def, weight, priority, options...)
}

func (c *coordinator) Detach(inst instance.Instance) error {
	return inst.Detach()
}

func (c *coordinator) DetachByName(name string) error {
	inst, ok := c.FindInstance(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrNoInstance, name)
	}
	return inst.Detach()
}

func (c *coordinator) DetachAll() error {
	var errs []error
	for n := len(c.instances) - 1; n >= 0; n-- {
		if n >= len(c.instances) {
			continue
		}
		if err := c.instances[n].Detach(); err != nil {
			errs = append(errs, err)
		}
	}
	c.pending = nil
	return errors.Join(errs...)
}

func (c *coordinator) Tick(t, elapsed float64) error {
	c.now = t
	for _, inst := range slices.Clone(c.instances) {
		if inst.Step(elapsed) {
			c.logger.Debug("faded out", "coordinator", c.Name(), "animation", inst.Name())
		}
	}

	if c.simplifyDirty {
		c.Simplify(t)
	}

	var errs []error
	for _, key := range c.order {
		if err := c.mods[key].ApplyAll(t); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 && c.profiler != nil {
		c.profiler.ObserveApplyErrors(countErrors(errs))
	}

	pending := c.pending
	c.pending = nil
	for _, inst := range pending {
		if inst.State() == instance.StateDestroyed {
			continue
		}
		if err := inst.Detach(); err != nil {
			errs = append(errs, err)
			continue
		}
		c.logger.Debug("simple play finished", "coordinator", c.Name(), "animation", inst.Name())
	}
	return errors.Join(errs...)
}

// countErrors counts the leaves of joined errors.
func countErrors(errs []error) int {
	n := 0
	for _, err := range errs {
		if joined, ok := err.(interface{ Unwrap() []error }); ok {
			n += countErrors(joined.Unwrap())
			continue
		}
		n++
	}
	return n
}

func (c *coordinator) Simplify(t float64) {
	for _, key := range c.order {
		c.mods[key].Simplify(t)
	}
	c.simplifyDirty = false
}

func (c *coordinator) Instances() []instance.Instance {
	return slices.Clone(c.instances)
}

func (c *coordinator) FindInstance(name string) (instance.Instance, bool) {
	if name == "" {
		return nil, false
	}
	key := common.NameKey(name)
	for _, inst := range c.instances {
		if common.NameKey(inst.Name()) == key {
			return inst, true
		}
	}
	return nil, false
}

func (c *coordinator) FindOrAttach(name string, weight float64) (instance.Instance, error) {
	if inst, ok := c.FindInstance(name); ok {
		inst.SetBlend(weight)
		return inst, nil
	}
	return c.AttachBlendedByName(name, weight, MediumPriority)
}

func (c *coordinator) PlaySimple(name string) (instance.Instance, error) {
	if inst, ok := c.FindInstance(name); ok {
		return inst, nil
	}
	inst, err := c.AttachBlendedByName(name, 1, MaxPriority, instance.WithLoop(false))
	if err != nil {
		return nil, err
	}
	if clk := inst.Clock(); clk != nil {
		clk.AddCallback(clock.Callback{
			Event: clock.EventStop,
			Fn: func(clock.Event) {
				c.pending = append(c.pending, inst)
			},
		})
	}
	inst.Start()
	return inst, nil
}

func (c *coordinator) PlayExclusive(name string) (instance.Instance, error) {
	inst, err := c.FindOrAttach(name, 1)
	if err != nil {
		return nil, err
	}
	for _, other := range c.instances {
		if other != inst && other.SharesPinsWith(inst) {
			other.SetBlend(0)
		}
	}
	inst.SetBlend(1)
	inst.Start()
	return inst, nil
}

func (c *coordinator) SetAnimTime(t float64) {
	for _, inst := range c.instances {
		inst.SetCurrentTime(t, true)
	}
}

func (c *coordinator) Running() bool {
	for _, inst := range c.instances {
		if inst.Clock() != nil && !inst.IsFinished() {
			return true
		}
	}
	return false
}

func (c *coordinator) SyncDirty() bool {
	return c.syncDirty
}

func (c *coordinator) ClearSyncDirty() {
	c.syncDirty = false
}

func (c *coordinator) DumpGraph(w io.Writer, name string, simplified bool) error {
	if name != "" {
		m, ok := c.mods[common.NameKey(name)]
		if !ok {
			return fmt.Errorf("%w: %q", ErrNoNode, name)
		}
		return m.Dump(w, simplified)
	}
	if _, err := fmt.Fprintf(w, "coordinator %q t=%.3f (%d modifiers)\n", c.Name(), c.now, len(c.order)); err != nil {
		return err
	}
	for _, key := range c.order {
		if err := c.mods[key].Dump(w, simplified); err != nil {
			return err
		}
	}
	return nil
}

func (c *coordinator) DumpInstances(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "coordinator %q (%d instances)\n", c.Name(), len(c.instances)); err != nil {
		return err
	}
	for _, inst := range c.instances {
		if err := inst.Dump(w); err != nil {
			return err
		}
	}
	return nil
}
