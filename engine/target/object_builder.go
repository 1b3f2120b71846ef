package target

// ObjectBuilderOption is a functional option for configuring a SceneObject during construction.
type ObjectBuilderOption func(*object)

// WithNodes registers nodes on the object.
//
// Parameters:
//   - nodes: the nodes to add, later names replace earlier ones
//
// Returns:
//   - ObjectBuilderOption: functional option to add the nodes
func WithNodes(nodes ...Node) ObjectBuilderOption {
	return func(o *object) {
		for _, n := range nodes {
			o.add(n)
		}
	}
}
