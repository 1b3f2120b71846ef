// Package target defines the property sinks applicators write into, plus an in-memory
// scene object implementation that records what it receives.
package target

import (
	"github.com/Carmen-Shannon/oxy-anim/common"
)

// TransformSink receives transform updates for one animated node.
type TransformSink interface {
	// SetLocalToParent replaces the node's full local transform.
	//
	// Parameters:
	//   - l2p: local-to-parent matrix (column-major)
	//   - p2l: its inverse
	SetLocalToParent(l2p, p2l common.Matrix4)

	// SetTranslation replaces only the translation part of the local transform.
	//
	// Parameters:
	//   - p: the new translation
	SetTranslation(p common.Point3)

	// SetRotation replaces only the rotation part of the local transform.
	//
	// Parameters:
	//   - q: the new rotation (x, y, z, w)
	SetRotation(q common.Quat)
}

// AudioSink receives audio property updates.
type AudioSink interface {
	// SetVolume sets the linear volume of the node's sound.
	//
	// Parameters:
	//   - v: the volume, typically in [0, 1]
	SetVolume(v float64)
}

// DrawSink receives draw property updates.
type DrawSink interface {
	// SetOpacity sets the node's draw opacity.
	//
	// Parameters:
	//   - v: the opacity in [0, 1]
	SetOpacity(v float64)
}

// SimulationSink receives simulation property updates.
type SimulationSink interface {
	// SetVelocity sets the kinematic velocity the simulation should use for the node.
	//
	// Parameters:
	//   - v: the velocity vector
	SetVelocity(v common.Point3)
}

// PropertySink receives free-form named scalar properties.
type PropertySink interface {
	// SetProperty stores a named scalar value.
	//
	// Parameters:
	//   - name: the property name, usually the channel name
	//   - v: the value
	SetProperty(name string, v float64)
}

// Node is one named binding point on a target object. Accessors return nil when
// the node does not expose that kind of property.
type Node interface {
	// Name returns the node name channels are matched against.
	//
	// Returns:
	//   - string: the node name
	Name() string

	// Transform returns the transform sink, or nil.
	Transform() TransformSink

	// Audio returns the audio sink, or nil.
	Audio() AudioSink

	// Draw returns the draw sink, or nil.
	Draw() DrawSink

	// Simulation returns the simulation sink, or nil.
	Simulation() SimulationSink

	// Properties returns the named property sink, or nil.
	Properties() PropertySink
}

// Object is a target that animations attach to. It resolves channel names to the nodes they drive.
type Object interface {
	// Name returns the object name.
	//
	// Returns:
	//   - string: the object name
	Name() string

	// Resolve finds the node a channel name binds to. Names match case-insensitively.
	//
	// Parameters:
	//   - channelName: the channel name from an animation definition
	//
	// Returns:
	//   - Node: the bound node
	//   - bool: false when the object has no node with that name
	Resolve(channelName string) (Node, bool)
}
