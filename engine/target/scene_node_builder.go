package target

import "github.com/Carmen-Shannon/oxy-anim/common"

// SceneNodeBuilderOption is a functional option for configuring a SceneNode during construction.
type SceneNodeBuilderOption func(*sceneNode)

// WithLocal sets the initial local transform of the node.
//
// Parameters:
//   - t: the initial translation, rotation and scale
//
// Returns:
//   - SceneNodeBuilderOption: functional option to set the local transform
func WithLocal(t common.Transform) SceneNodeBuilderOption {
	return func(n *sceneNode) {
		n.local = t
	}
}

// WithSinks selects which sinks the node exposes. Sinks not listed return nil.
//
// Parameters:
//   - transform, audio, draw, simulation, properties: true to expose that sink
//
// Returns:
//   - SceneNodeBuilderOption: functional option to set the exposed sinks
func WithSinks(transform, audio, draw, simulation, properties bool) SceneNodeBuilderOption {
	return func(n *sceneNode) {
		n.hasTransform = transform
		n.hasAudio = audio
		n.hasDraw = draw
		n.hasSimulation = simulation
		n.hasProperties = properties
	}
}
