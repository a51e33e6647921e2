package render

import (
	"sync"

	"github.com/golang/geo/r3"
)

// Node of the scene graph. Components are opaque to the graph, the renderer
// dispatches on their concrete type.
type SceneNode struct {
	Name       string
	Components []any
	Children   []*SceneNode
	Parent     *SceneNode
}

func NewSceneNode(name string, components ...any) *SceneNode {
	return &SceneNode{Name: name, Components: components}
}

func (n *SceneNode) AddChild(child *SceneNode) {
	child.Parent = n
	n.Children = append(n.Children, child)
}

// Detaches the child, returns false if it was not a child of n
func (n *SceneNode) RemoveChild(child *SceneNode) bool {
	for i, c := range n.Children {
		if c == child {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			child.Parent = nil
			return true
		}
	}
	return false
}

// Returns the first node with the given name in depth first order
func (n *SceneNode) FindByName(name string) *SceneNode {
	if n.Name == name {
		return n
	}
	for _, c := range n.Children {
		if found := c.FindByName(name); found != nil {
			return found
		}
	}
	return nil
}

// Returns the first component of type T attached to the node
func ComponentOf[T any](n *SceneNode) (T, bool) {
	for _, c := range n.Components {
		if typed, ok := c.(T); ok {
			return typed, true
		}
	}
	var zero T
	return zero, false
}

// Scene is the root of a scene graph shared between the render thread and
// the components that attach content to it
type Scene struct {
	sync.Mutex
	Root *SceneNode
}

func NewScene() *Scene {
	return &Scene{Root: NewSceneNode("Scene")}
}

func (s *Scene) Attach(node *SceneNode) {
	s.Lock()
	defer s.Unlock()
	s.Root.AddChild(node)
}

func (s *Scene) Detach(node *SceneNode) bool {
	s.Lock()
	defer s.Unlock()
	return s.Root.RemoveChild(node)
}

func (s *Scene) FindByName(name string) *SceneNode {
	s.Lock()
	defer s.Unlock()
	return s.Root.FindByName(name)
}

// Wireframe cube drawn around an octant by the debug visualization
type Wireframe struct {
	Center r3.Vector
	Size   float64
}

// Resident point buffer of an octant
type PointMesh struct {
	Buffer BufferHandle
	Points int
}
