package target

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-anim/common"
)

type object struct {
	mu    *sync.RWMutex
	name  string
	nodes map[string]Node
	order []string
}

// SceneObject is an in-memory Object holding a flat set of named nodes.
type SceneObject interface {
	Object

	// Add registers a node, replacing any node with the same name.
	//
	// Parameters:
	//   - n: the node to add
	Add(n Node)

	// Nodes returns the nodes in insertion order.
	//
	// Returns:
	//   - []Node: the registered nodes
	Nodes() []Node
}

var _ SceneObject = &object{}

// NewObject creates an in-memory target object.
//
// Parameters:
//   - name: the object name
//   - options: functional options to configure the object
//
// Returns:
//   - SceneObject: the newly created object
func NewObject(name string, options ...ObjectBuilderOption) SceneObject {
	o := &object{
		mu:    &sync.RWMutex{},
		name:  name,
		nodes: make(map[string]Node),
	}
	for _, option := range options {
		option(o)
	}
	return o
}

func (o *object) Name() string {
	return o.name
}

func (o *object) Resolve(channelName string) (Node, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	n, ok := o.nodes[common.NameKey(channelName)]
	return n, ok
}

func (o *object) Add(n Node) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.add(n)
}

func (o *object) add(n Node) {
	key := common.NameKey(n.Name())
	if _, exists := o.nodes[key]; !exists {
		o.order = append(o.order, key)
	}
	o.nodes[key] = n
}

func (o *object) Nodes() []Node {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]Node, 0, len(o.order))
	for _, name := range o.order {
		out = append(out, o.nodes[name])
	}
	return out
}
