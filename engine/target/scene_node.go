package target

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-anim/common"
)

type sceneNode struct {
	mu *sync.RWMutex

	name string

	hasTransform, hasAudio, hasDraw, hasSimulation, hasProperties bool

	localToParent, parentToLocal common.Matrix4
	local                        common.Transform
	volume, opacity              float64
	velocity                     common.Point3
	properties                   map[string]float64

	writes uint64
}

// SceneNode is an in-memory Node that keeps the last value written to each sink.
// Position, rotation, and scale are kept both decomposed and as matrices so either kind
// of transform applicator can drive it.
type SceneNode interface {
	Node

	// LocalToParent returns the current local-to-parent matrix.
	//
	// Returns:
	//   - common.Matrix4: the matrix (column-major)
	LocalToParent() common.Matrix4

	// ParentToLocal returns the inverse of LocalToParent.
	//
	// Returns:
	//   - common.Matrix4: the inverse matrix
	ParentToLocal() common.Matrix4

	// Local returns the decomposed local transform.
	//
	// Returns:
	//   - common.Transform: translation, rotation and scale
	Local() common.Transform

	// Volume returns the last volume written.
	Volume() float64

	// Opacity returns the last opacity written.
	Opacity() float64

	// Velocity returns the last velocity written.
	Velocity() common.Point3

	// Property returns a named property.
	//
	// Parameters:
	//   - name: the property name
	//
	// Returns:
	//   - float64: the value
	//   - bool: false if it was never written
	Property(name string) (float64, bool)

	// Writes returns how many sink writes the node has received.
	//
	// Returns:
	//   - uint64: the write count
	Writes() uint64
}

var _ SceneNode = &sceneNode{}

// NewSceneNode creates an in-memory node. By default it exposes every sink.
//
// Parameters:
//   - name: the node name channels bind to
//   - options: functional options to configure the node
//
// Returns:
//   - SceneNode: the newly created node
func NewSceneNode(name string, options ...SceneNodeBuilderOption) SceneNode {
	n := &sceneNode{
		mu:            &sync.RWMutex{},
		name:          name,
		hasTransform:  true,
		hasAudio:      true,
		hasDraw:       true,
		hasSimulation: true,
		hasProperties: true,
		local:         common.IdentityTransform(),
		opacity:       1,
		volume:        1,
		properties:    make(map[string]float64),
	}
	for _, option := range options {
		option(n)
	}
	n.localToParent = n.local.Matrix()
	common.Invert4(n.parentToLocal[:], n.localToParent[:])
	return n
}

func (n *sceneNode) Name() string {
	return n.name
}

func (n *sceneNode) Transform() TransformSink {
	if !n.hasTransform {
		return nil
	}
	return n
}

func (n *sceneNode) Audio() AudioSink {
	if !n.hasAudio {
		return nil
	}
	return n
}

func (n *sceneNode) Draw() DrawSink {
	if !n.hasDraw {
		return nil
	}
	return n
}

func (n *sceneNode) Simulation() SimulationSink {
	if !n.hasSimulation {
		return nil
	}
	return n
}

func (n *sceneNode) Properties() PropertySink {
	if !n.hasProperties {
		return nil
	}
	return n
}

func (n *sceneNode) SetLocalToParent(l2p, p2l common.Matrix4) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.localToParent = l2p
	n.parentToLocal = p2l
	n.local = common.DecomposeMatrix(l2p[:])
	n.writes++
}

func (n *sceneNode) SetTranslation(p common.Point3) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.local.Translation = p
	n.recompose()
	n.writes++
}

func (n *sceneNode) SetRotation(q common.Quat) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.local.Rotation = q
	n.recompose()
	n.writes++
}

// recompose rebuilds both matrices from the decomposed transform. Caller holds the lock.
func (n *sceneNode) recompose() {
	n.localToParent = n.local.Matrix()
	common.Invert4(n.parentToLocal[:], n.localToParent[:])
}

func (n *sceneNode) SetVolume(v float64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.volume = v
	n.writes++
}

func (n *sceneNode) SetOpacity(v float64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.opacity = v
	n.writes++
}

func (n *sceneNode) SetVelocity(v common.Point3) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.velocity = v
	n.writes++
}

func (n *sceneNode) SetProperty(name string, v float64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.properties[name] = v
	n.writes++
}

func (n *sceneNode) LocalToParent() common.Matrix4 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.localToParent
}

func (n *sceneNode) ParentToLocal() common.Matrix4 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.parentToLocal
}

func (n *sceneNode) Local() common.Transform {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.local
}

func (n *sceneNode) Volume() float64 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.volume
}

func (n *sceneNode) Opacity() float64 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.opacity
}

func (n *sceneNode) Velocity() common.Point3 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.velocity
}

func (n *sceneNode) Property(name string) (float64, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	v, ok := n.properties[name]
	return v, ok
}

func (n *sceneNode) Writes() uint64 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.writes
}
