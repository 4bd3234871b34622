package flicker

// Registry allocates node ids and resolves id references such as masks.
// Each loaded scene owns one; there is no package-level node state.
type Registry struct {
	nextID uint32
	nodes  map[uint32]*Node
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{nodes: make(map[uint32]*Node)}
}

// NewNode creates a node holding c and registers it.
func (r *Registry) NewNode(name string, c Content) *Node {
	r.nextID++
	n := &Node{ID: r.nextID, Name: name, Content: c, registry: r}
	switch v := c.(type) {
	case *Container:
		v.attach(n)
	case *Button:
		v.attach(n)
	}
	r.nodes[n.ID] = n
	return n
}

// NewShapeNode is shorthand for NewNode(name, shape).
func (r *Registry) NewShapeNode(name string, s *Shape) *Node {
	return r.NewNode(name, s)
}

// NewContainerNode creates a node holding a fresh container.
func (r *Registry) NewContainerNode(name string) *Node {
	return r.NewNode(name, NewContainer())
}

// Lookup returns the live node with id, or nil.
func (r *Registry) Lookup(id uint32) *Node {
	return r.nodes[id]
}

// Len returns the number of live nodes.
func (r *Registry) Len() int { return len(r.nodes) }

func (r *Registry) remove(n *Node) {
	if r.nodes[n.ID] == n {
		delete(r.nodes, n.ID)
	}
}

// containerOf returns n's container content, or nil.
func containerOf(n *Node) *Container {
	c, _ := n.Content.(*Container)
	return c
}

// Container returns the node's container content, or nil for other
// content kinds.
func (n *Node) Container() *Container { return containerOf(n) }
