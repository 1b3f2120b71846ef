package instance

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/applicator"
	"github.com/Carmen-Shannon/oxy-anim/engine/channel"
	"github.com/Carmen-Shannon/oxy-anim/engine/clock"
	"github.com/Carmen-Shannon/oxy-anim/engine/definition"
	"github.com/Carmen-Shannon/oxy-anim/engine/modifier"
	"github.com/Carmen-Shannon/oxy-anim/internal/logging"
	"github.com/google/uuid"
)

var (
	// ErrNoModifier is returned when the target has no binding point for a channel name.
	ErrNoModifier = errors.New("instance: no modifier for channel")

	// ErrNotAttached is returned when fading or driving an instance that is not attached.
	ErrNotAttached = errors.New("instance: not attached")

	// ErrAlreadyDetached is returned by a second detach.
	ErrAlreadyDetached = errors.New("instance: already detached")

	// ErrNoDriver is returned when attaching a driven definition without a driver.
	ErrNoDriver = errors.New("instance: driven animation needs a driver")

	// ErrUnknownMarker is returned when a marker name is not in the definition.
	ErrUnknownMarker = errors.New("instance: unknown marker")
)

// AttachError describes which channel of which animation failed to attach.
type AttachError struct {
	Animation string
	Channel   string
	Err       error
}

func (e *AttachError) Error() string {
	return fmt.Sprintf("attach %q channel %q: %v", e.Animation, e.Channel, e.Err)
}

func (e *AttachError) Unwrap() error {
	return e.Err
}

// State is the lifecycle position of an Instance.
type State uint8

const (
	StateAttaching State = iota
	StateActive
	StateFading
	StateDetaching
	StateDestroyed
)

var stateNames = map[State]string{
	StateAttaching: "attaching",
	StateActive:    "active",
	StateFading:    "fading",
	StateDetaching: "detaching",
	StateDestroyed: "destroyed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

// Host is the side of a coordinator an Instance talks to.
type Host interface {
	// ModifierFor returns the binding point for a channel name, creating it on first use.
	ModifierFor(name string) (modifier.Modifier, error)

	// Now returns the world time of the current or last tick.
	Now() float64

	// MarkSimplifyDirty asks for the blend graph to be simplified again before the next apply.
	MarkSimplifyDirty()

	// MarkSyncDirty records that replicated playback state changed.
	MarkSyncDirty()

	// Forget drops a detached instance from the host's attachment list.
	Forget(inst Instance)
}

// Contribution is everything one Instance added for one channel name.
type Contribution struct {
	Channel  string
	Modifier modifier.Modifier
	Nodes    []channel.Node
	Result   channel.Node
}

type fade struct {
	active bool
	goal   float64
	rate   float64
	detach bool
}

type instance struct {
	id         uuid.UUID
	def        definition.Definition
	host       Host
	logger     *slog.Logger
	clock      clock.Clock
	driver     channel.Scalar
	timeSource channel.Scalar

	blend, amplitude   float64
	blendFade, ampFade fade
	priority           int
	above              channel.PriorityFunc
	cache              bool
	loop               *bool
	speed              *float64
	state              State
	arena              []*Contribution
}

// Instance is one attachment of a Definition to one target. It owns the local clock, the
// blend and amplitude weights, any active fades, and every node it allocated in the
// target's blend graph. Detaching releases exactly those nodes.
type Instance interface {
	// ID returns the unique id recorded as the owner of every node this instance allocated.
	ID() uuid.UUID

	// Name returns the animation name.
	Name() string

	// Definition returns the attached definition.
	Definition() definition.Definition

	// State returns the lifecycle state.
	State() State

	// Priority returns the blend priority the instance was attached with.
	Priority() int

	// Blend returns the current blend weight.
	Blend() float64

	// SetBlend sets the blend weight. Crossing the 0 or 1 boundary marks the graph for re-simplification.
	//
	// Parameters:
	//   - v: the new weight in [0, 1]
	//
	// Returns:
	//   - float64: the weight that was set
	SetBlend(v float64) float64

	// Amplitude returns the amplitude weight, or -1 when the instance was attached without one.
	Amplitude() float64

	// SetAmplitude sets the amplitude weight. It is ignored when amplitude is unused.
	//
	// Parameters:
	//   - v: the new amplitude in [0, 1]
	SetAmplitude(v float64)

	// FadeBlend moves the blend weight towards goal at rate per second.
	// A zero rate sets the weight immediately.
	//
	// Parameters:
	//   - goal: the target weight
	//   - rate: the change per second, its sign is ignored
	//   - detach: detach once the weight reaches 0
	//
	// Returns:
	//   - error: ErrNotAttached after detach
	FadeBlend(goal, rate float64, detach bool) error

	// FadeAmplitude moves the amplitude towards goal at rate per second. It never detaches.
	//
	// Parameters:
	//   - goal: the target amplitude
	//   - rate: the change per second, its sign is ignored
	//
	// Returns:
	//   - error: ErrNotAttached after detach
	FadeAmplitude(goal, rate float64) error

	// Fading reports whether a blend or amplitude fade is in progress.
	Fading() bool

	// Step advances active fades by elapsed seconds.
	//
	// Parameters:
	//   - elapsed: the seconds since the previous step
	//
	// Returns:
	//   - bool: true if the step finished a detaching fade and the instance detached
	Step(elapsed float64) bool

	// Detach removes every node the instance allocated and releases its clock.
	//
	// Returns:
	//   - error: ErrAlreadyDetached on a second call
	Detach() error

	// Clock returns the local clock, nil for driven animations or after detach.
	Clock() clock.Clock

	// Start resumes local playback.
	Start()

	// Stop halts local playback.
	Stop()

	// SetSpeed sets the local playback rate.
	SetSpeed(speed float64)

	// SetLoop toggles looping.
	SetLoop(on bool)

	// SetCurrentTime moves the local clock to anim time t.
	//
	// Parameters:
	//   - t: the anim time
	//   - jump: skip marker callbacks between the old and new time
	SetCurrentTime(t float64, jump bool)

	// SeekRelative moves the local clock by delta seconds of anim time.
	//
	// Parameters:
	//   - delta: the offset
	//   - jump: skip marker callbacks in between
	SeekRelative(delta float64, jump bool)

	// PlayToTime plays until anim time t and stops there.
	PlayToTime(t float64)

	// PlayToPercentage plays until a fraction of the animation length and stops there.
	PlayToPercentage(p float64)

	// StopAtNextStopPoint plays to the next authored stop point in the current direction.
	//
	// Returns:
	//   - bool: false when no stop point lies ahead
	StopAtNextStopPoint() bool

	// AnimTime returns the current local time.
	AnimTime() float64

	// WorldToAnimTime returns the local time at world time w without advancing playback.
	WorldToAnimTime(w float64) float64

	// IsFinished reports whether local playback has stopped.
	IsFinished() bool

	// IsAtEnd reports whether local playback sits at the end of its range.
	IsAtEnd() bool

	// Marker returns the anim time of a named marker.
	Marker(name string) (float64, bool)

	// OnMarker registers fn to run whenever playback crosses a named marker.
	//
	// Parameters:
	//   - name: the marker name
	//   - fn: the callback
	//
	// Returns:
	//   - error: ErrUnknownMarker, or ErrNotAttached when there is no clock
	OnMarker(name string, fn func(clock.Event)) error

	// SharesPinsWith reports whether both instances write the same pin of the same channel name.
	SharesPinsWith(other Instance) bool

	// Contributions returns what the instance added per channel name.
	Contributions() []Contribution

	// Dump writes the instance state and the nodes it owns.
	//
	// Parameters:
	//   - w: the destination
	//
	// Returns:
	//   - error: the first write error
	Dump(w io.Writer) error
}

var _ Instance = &instance{}

// New attaches def to the host's target. Every channel is resolved and validated before
// anything is mutated; if a merge still fails, every node already merged is removed again.
//
// Parameters:
//   - def: the definition to attach
//   - host: the coordinator of the target
//   - options: functional options to configure the instance
//
// Returns:
//   - Instance: the attached instance
//   - error: *AttachError describing the failing channel
func New(def definition.Definition, host Host, options ...InstanceBuilderOption) (Instance, error) {
	i := &instance{
		id:        uuid.New(),
		def:       def,
		host:      host,
		logger:    logging.NewNop(),
		blend:     1,
		amplitude: -1,
		above:     channel.DefaultPriority,
		state:     StateAttaching,
	}
	for _, option := range options {
		option(i)
	}

	if err := i.initTime(); err != nil {
		return nil, err
	}
	if err := i.attach(); err != nil {
		i.logger.Warn("attach failed", "animation", def.Name(), "error", err)
		i.clock = nil
		i.state = StateDestroyed
		return nil, err
	}
	i.state = StateActive
	if i.clock != nil && def.AutoStart() {
		i.clock.Start(host.Now())
	}
	i.logger.Debug("attached", "animation", def.Name(), "instance", i.id, "channels", len(i.arena))
	return i, nil
}

func (i *instance) initTime() error {
	if i.def.Driven() {
		if i.driver == nil {
			return &AttachError{Animation: i.def.Name(), Err: ErrNoDriver}
		}
		begin, length, driver := i.def.Begin(), i.def.Length(), i.driver
		i.timeSource = channel.ScalarFunc(func(w float64) float64 {
			return begin + common.Clamp01(driver.Value(w))*length
		})
		return nil
	}

	initial, _ := i.def.InitialTime()
	opts := []clock.ClockBuilderOption{
		clock.WithRange(i.def.Begin(), i.def.End()),
		clock.WithLoopRange(i.def.LoopBegin(), i.def.LoopEnd()),
		clock.WithLoop(i.def.Loop()),
		clock.WithInitialTime(initial),
		clock.WithWorldTime(i.host.Now()),
		clock.WithStateChangeHook(i.host.MarkSyncDirty),
	}
	if i.loop != nil {
		opts = append(opts, clock.WithLoop(*i.loop))
	}
	if i.speed != nil {
		opts = append(opts, clock.WithSpeed(*i.speed))
	}
	i.clock = clock.NewClock(opts...)
	i.timeSource = i.clock
	return nil
}

func (i *instance) owner(channelName string) channel.Owner {
	return channel.Owner{Instance: i.id, Animation: i.def.Name(), Channel: channelName}
}

func (i *instance) attach() error {
	tracks := i.def.Tracks()
	mods := make([]modifier.Modifier, len(tracks))
	for n, tr := range tracks {
		mod, err := i.host.ModifierFor(tr.Name)
		if err != nil {
			return &AttachError{Animation: i.def.Name(), Channel: tr.Name, Err: fmt.Errorf("%w: %w", ErrNoModifier, err)}
		}
		if err := mod.CanMerge(tr.Template, tr.Root); err != nil {
			return &AttachError{Animation: i.def.Name(), Channel: tr.Name, Err: err}
		}
		mods[n] = mod
	}

	for n, tr := range tracks {
		c := &Contribution{Channel: tr.Name, Modifier: mods[n]}
		i.arena = append(i.arena, c)

		var err error
		switch tr.Root.Kind() {
		case channel.KindScalar:
			err = attachTrack[float64](i, tr, c)
		case channel.KindPoint:
			err = attachTrack[common.Point3](i, tr, c)
		case channel.KindQuat:
			err = attachTrack[common.Quat](i, tr, c)
		case channel.KindMatrix:
			err = attachTrack[common.Matrix4](i, tr, c)
		}
		if err != nil {
			i.release()
			return &AttachError{Animation: i.def.Name(), Channel: tr.Name, Err: err}
		}
	}
	i.host.MarkSimplifyDirty()
	return nil
}

// attachTrack builds the per-instance chain for one track and merges it:
// optional cache, optional amplitude blend against a snapshot, then a time remap onto the local clock.
func attachTrack[T channel.Value](i *instance, tr definition.Track, c *Contribution) error {
	src, ok := channel.As[T](tr.Root)
	if !ok {
		return applicator.ErrIncompatibleChannel
	}
	owner := i.owner(tr.Name)

	top := src
	if i.cache {
		top = channel.Cache(top, i.timeSource, owner)
		c.Nodes = append(c.Nodes, top)
	}
	if i.amplitude >= 0 {
		snapshot := channel.Snapshot(src, 0, owner)
		c.Nodes = append(c.Nodes, snapshot)
		top = channel.Blend(snapshot, top, channel.Weight(&i.amplitude), channel.InheritPriority, i.above, owner)
	}
	top = channel.TimeRemap(top, i.timeSource, owner)
	c.Nodes = append(c.Nodes, top)

	result, err := c.Modifier.Merge(tr.Template, top, channel.Weight(&i.blend), i.priority, i.above, owner)
	if err != nil {
		return err
	}
	c.Result = result
	return nil
}

// release removes every registered node from its modifier, newest first.
func (i *instance) release() {
	for n := len(i.arena) - 1; n >= 0; n-- {
		c := i.arena[n]
		for k := len(c.Nodes) - 1; k >= 0; k-- {
			c.Modifier.Remove(c.Nodes[k])
		}
	}
	i.arena = nil
	i.host.MarkSimplifyDirty()
}

func (i *instance) ID() uuid.UUID                     { return i.id }
func (i *instance) Name() string                      { return i.def.Name() }
func (i *instance) Definition() definition.Definition { return i.def }
func (i *instance) State() State                      { return i.state }
func (i *instance) Priority() int                     { return i.priority }
func (i *instance) Clock() clock.Clock                { return i.clock }

func (i *instance) attached() bool {
	return i.state == StateActive || i.state == StateFading
}

func (i *instance) Detach() error {
	if !i.attached() {
		return fmt.Errorf("%w: %s", ErrAlreadyDetached, i.def.Name())
	}
	i.state = StateDetaching
	i.release()
	i.clock = nil
	i.blendFade, i.ampFade = fade{}, fade{}
	i.state = StateDestroyed
	i.host.Forget(i)
	i.logger.Debug("detached", "animation", i.def.Name(), "instance", i.id)
	return nil
}

func (i *instance) SharesPinsWith(other Instance) bool {
	if other == nil {
		return false
	}
	for _, mine := range i.def.Tracks() {
		for _, theirs := range other.Definition().Tracks() {
			if common.NameKey(mine.Name) == common.NameKey(theirs.Name) && mine.Template.CanBlend(theirs.Template) {
				return true
			}
		}
	}
	return false
}

func (i *instance) Contributions() []Contribution {
	out := make([]Contribution, 0, len(i.arena))
	for _, c := range i.arena {
		cp := *c
		cp.Nodes = append([]channel.Node(nil), c.Nodes...)
		out = append(out, cp)
	}
	return out
}

func (i *instance) Dump(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "instance %q %s state=%s blend=%.3f amplitude=%.3f priority=%d time=%.3f\n",
		i.def.Name(), i.id, i.state, i.blend, i.amplitude, i.priority, i.AnimTime()); err != nil {
		return err
	}
	for _, c := range i.arena {
		if _, err := fmt.Fprintf(w, "  channel %q -> modifier %q\n", c.Channel, c.Modifier.Name()); err != nil {
			return err
		}
		for _, n := range c.Nodes {
			if _, err := fmt.Fprintf(w, "    %s %s [%s]\n", n.Variant(), n.Kind(), n.Owner()); err != nil {
				return err
			}
		}
	}
	return nil
}
