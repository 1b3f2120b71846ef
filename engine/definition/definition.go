package definition

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/applicator"
	"github.com/Carmen-Shannon/oxy-anim/engine/channel"
)

var (
	// ErrInvalidDefinition is returned when a definition fails validation.
	ErrInvalidDefinition = errors.New("definition: invalid")

	// ErrUnknownAnimation is returned when a library has no definition of the requested name.
	ErrUnknownAnimation = errors.New("definition: unknown animation")
)

// Track is one named channel of a definition: the shared source tree and the applicator
// template that decides how the channel is written into a target.
type Track struct {
	Name     string
	Root     channel.Node
	Template applicator.Applicator
}

type definition struct {
	name               string
	begin, end         float64
	loopBegin, loopEnd float64
	loop               bool
	autoStart          bool
	initialTime        float64
	hasInitialTime     bool
	driven             bool
	markers            map[string]float64
	stopPoints         []float64
	tracks             []Track
	source             string
	rangeSet           bool
}

// Definition is a read-only animation: named channels with shared source trees plus the
// playback parameters every Instance of it starts from. Definitions never change after
// construction and may be attached to any number of targets at once.
type Definition interface {
	// Name returns the animation name.
	//
	// Returns:
	//   - string: the name
	Name() string

	// Begin returns the first playable anim time.
	Begin() float64

	// End returns the last playable anim time.
	End() float64

	// Length returns End minus Begin.
	Length() float64

	// LoopBegin returns the loop start. An empty authored loop range reports Begin.
	LoopBegin() float64

	// LoopEnd returns the loop end. An empty authored loop range reports End.
	LoopEnd() float64

	// Loop reports whether instances loop by default.
	Loop() bool

	// AutoStart reports whether instances start playing as soon as they are attached.
	AutoStart() bool

	// InitialTime returns the anim time instances start at.
	//
	// Returns:
	//   - float64: the initial time, Begin when unset
	//   - bool: true when an initial time was authored
	InitialTime() (float64, bool)

	// Driven reports whether the animation is positioned by an external driver instead of a clock.
	Driven() bool

	// Marker returns the anim time of a named marker.
	//
	// Parameters:
	//   - name: the marker name, matched case-insensitively
	//
	// Returns:
	//   - float64: the marker time
	//   - bool: true if the marker exists
	Marker(name string) (float64, bool)

	// Markers returns a copy of every marker keyed by lower-cased name.
	Markers() map[string]float64

	// StopPoints returns the sorted anim times playback may come to rest at.
	StopPoints() []float64

	// NextStopPoint returns the first stop point after t in the given direction.
	//
	// Parameters:
	//   - t: the anim time to search from
	//   - backwards: search towards Begin instead of End
	//
	// Returns:
	//   - float64: the stop point
	//   - bool: true if one exists
	NextStopPoint(t float64, backwards bool) (float64, bool)

	// Tracks returns the channels in authored order.
	Tracks() []Track

	// Track returns the first channel with the given name.
	//
	// Parameters:
	//   - name: the channel name, matched case-insensitively
	//
	// Returns:
	//   - Track: the channel
	//   - bool: true if found
	Track(name string) (Track, bool)

	// Source returns the file the definition was loaded from, if any.
	Source() string
}

var _ Definition = &definition{}

// NewDefinition builds and validates a definition.
// When no range is given the range spans every track's source length.
//
// Parameters:
//   - name: the animation name
//   - options: functional options to configure the definition
//
// Returns:
//   - Definition: the definition
//   - error: ErrInvalidDefinition describing the first problem found
func NewDefinition(name string, options ...DefinitionBuilderOption) (Definition, error) {
	d := &definition{
		name:    name,
		markers: make(map[string]float64),
	}
	for _, option := range options {
		option(d)
	}

	if common.NameKey(d.name) == "" {
		return nil, fmt.Errorf("%w: missing name", ErrInvalidDefinition)
	}
	for i, tr := range d.tracks {
		if tr.Name == "" {
			return nil, fmt.Errorf("%w: %s track %d has no name", ErrInvalidDefinition, d.name, i)
		}
		if tr.Root == nil || tr.Template == nil {
			return nil, fmt.Errorf("%w: %s track %q needs a source and an applicator", ErrInvalidDefinition, d.name, tr.Name)
		}
		if err := tr.Template.Accepts(tr.Root); err != nil {
			return nil, fmt.Errorf("%w: %s track %q: %w", ErrInvalidDefinition, d.name, tr.Name, err)
		}
	}

	if !d.rangeSet {
		d.begin, d.end = 0, d.sourceLength()
	}
	if d.end < d.begin {
		return nil, fmt.Errorf("%w: %s ends before it begins", ErrInvalidDefinition, d.name)
	}
	d.checkLoop()
	if d.hasInitialTime && (d.initialTime < d.begin || d.initialTime > d.end) {
		return nil, fmt.Errorf("%w: %s initial time %g outside [%g, %g]", ErrInvalidDefinition, d.name, d.initialTime, d.begin, d.end)
	}
	slices.Sort(d.stopPoints)
	return d, nil
}

func (d *definition) sourceLength() float64 {
	var length float64
	for _, tr := range d.tracks {
		channel.Walk(tr.Root, func(n channel.Node, _ int) bool {
			if l, ok := n.(interface{ Length() float64 }); ok {
				length = max(length, l.Length())
			}
			return true
		})
	}
	return length
}

// checkLoop falls back to the playable range when the loop range is empty.
func (d *definition) checkLoop() {
	if d.loopBegin == d.loopEnd {
		d.loopBegin, d.loopEnd = d.begin, d.end
	}
}

func (d *definition) Name() string       { return d.name }
func (d *definition) Begin() float64     { return d.begin }
func (d *definition) End() float64       { return d.end }
func (d *definition) Length() float64    { return d.end - d.begin }
func (d *definition) LoopBegin() float64 { return d.loopBegin }
func (d *definition) LoopEnd() float64   { return d.loopEnd }
func (d *definition) Loop() bool         { return d.loop }
func (d *definition) AutoStart() bool    { return d.autoStart }
func (d *definition) Driven() bool       { return d.driven }
func (d *definition) Source() string     { return d.source }

func (d *definition) InitialTime() (float64, bool) {
	if !d.hasInitialTime {
		return d.begin, false
	}
	return d.initialTime, true
}

func (d *definition) Marker(name string) (float64, bool) {
	t, ok := d.markers[common.NameKey(name)]
	return t, ok
}

func (d *definition) Markers() map[string]float64 {
	return maps.Clone(d.markers)
}

func (d *definition) StopPoints() []float64 {
	return slices.Clone(d.stopPoints)
}

func (d *definition) NextStopPoint(t float64, backwards bool) (float64, bool) {
	if backwards {
		for i := len(d.stopPoints) - 1; i >= 0; i-- {
			if d.stopPoints[i] < t {
				return d.stopPoints[i], true
			}
		}
		return 0, false
	}
	for _, p := range d.stopPoints {
		if p > t {
			return p, true
		}
	}
	return 0, false
}

func (d *definition) Tracks() []Track {
	return slices.Clone(d.tracks)
}

func (d *definition) Track(name string) (Track, bool) {
	key := common.NameKey(name)
	for _, tr := range d.tracks {
		if common.NameKey(tr.Name) == key {
			return tr, true
		}
	}
	return Track{}, false
}
