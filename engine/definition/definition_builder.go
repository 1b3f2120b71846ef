package definition

import (
	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/applicator"
	"github.com/Carmen-Shannon/oxy-anim/engine/channel"
)

// DefinitionBuilderOption is a functional option for configuring a Definition during construction.
type DefinitionBuilderOption func(*definition)

// WithRange sets the playable range.
//
// Parameters:
//   - begin: the first playable anim time
//   - end: the last playable anim time
//
// Returns:
//   - DefinitionBuilderOption: functional option to set the range
func WithRange(begin, end float64) DefinitionBuilderOption {
	return func(d *definition) {
		d.begin, d.end = begin, end
		d.rangeSet = true
	}
}

// WithLoop sets whether instances loop by default.
//
// Parameters:
//   - loop: true to loop
//
// Returns:
//   - DefinitionBuilderOption: functional option to set looping
func WithLoop(loop bool) DefinitionBuilderOption {
	return func(d *definition) {
		d.loop = loop
	}
}

// WithLoopRange sets the loop range inside the playable range.
//
// Parameters:
//   - begin: the loop start
//   - end: the loop end
//
// Returns:
//   - DefinitionBuilderOption: functional option to set the loop range
func WithLoopRange(begin, end float64) DefinitionBuilderOption {
	return func(d *definition) {
		d.loopBegin, d.loopEnd = begin, end
	}
}

// WithAutoStart makes instances start playing as soon as they are attached.
//
// Parameters:
//   - autoStart: true to start on attach
//
// Returns:
//   - DefinitionBuilderOption: functional option to set auto start
func WithAutoStart(autoStart bool) DefinitionBuilderOption {
	return func(d *definition) {
		d.autoStart = autoStart
	}
}

// WithInitialTime sets the anim time instances start at.
//
// Parameters:
//   - t: the initial anim time
//
// Returns:
//   - DefinitionBuilderOption: functional option to set the initial time
func WithInitialTime(t float64) DefinitionBuilderOption {
	return func(d *definition) {
		d.initialTime = t
		d.hasInitialTime = true
	}
}

// WithDriven marks the animation as positioned by an external [0, 1] driver instead of a clock.
//
// Parameters:
//   - driven: true for externally driven playback
//
// Returns:
//   - DefinitionBuilderOption: functional option to set driven playback
func WithDriven(driven bool) DefinitionBuilderOption {
	return func(d *definition) {
		d.driven = driven
	}
}

// WithMarker adds a named marker.
//
// Parameters:
//   - name: the marker name
//   - t: the marker anim time
//
// Returns:
//   - DefinitionBuilderOption: functional option to add the marker
func WithMarker(name string, t float64) DefinitionBuilderOption {
	return func(d *definition) {
		d.markers[common.NameKey(name)] = t
	}
}

// WithStopPoints adds anim times playback may come to rest at.
//
// Parameters:
//   - points: the stop points
//
// Returns:
//   - DefinitionBuilderOption: functional option to add stop points
func WithStopPoints(points ...float64) DefinitionBuilderOption {
	return func(d *definition) {
		d.stopPoints = append(d.stopPoints, points...)
	}
}

// WithTrack adds a named channel.
//
// Parameters:
//   - name: the channel name resolved on the target
//   - root: the shared source tree
//   - template: the applicator template for the channel
//
// Returns:
//   - DefinitionBuilderOption: functional option to add the track
func WithTrack(name string, root channel.Node, template applicator.Applicator) DefinitionBuilderOption {
	return func(d *definition) {
		d.tracks = append(d.tracks, Track{Name: name, Root: root, Template: template})
	}
}

// WithSource records the file a definition was loaded from.
//
// Parameters:
//   - path: the file path
//
// Returns:
//   - DefinitionBuilderOption: functional option to set the source
func WithSource(path string) DefinitionBuilderOption {
	return func(d *definition) {
		d.source = path
	}
}
