// Package scene is a minimal headless stand-in for a host engine's scene
// graph: named owner nodes and the objects instantiated under them.
package scene

import "sync/atomic"

// objectIDCounter generates unique object IDs across all templates.
var objectIDCounter atomic.Uint64

// NextObjectID returns a unique object ID.
func NextObjectID() uint64 {
	return objectIDCounter.Add(1)
}

// Node is a named owner of objects. Accessed only from the frame loop.
type Node struct {
	Name     string
	parent   *Node
	children []*Node
	objects  []*Object
}

func NewNode(name string) *Node {
	return &Node{Name: name}
}

// AddChild creates a child node under n.
func (n *Node) AddChild(name string) *Node {
	c := &Node{Name: name, parent: n}
	n.children = append(n.children, c)
	return c
}

// RemoveChild detaches c from n. Objects owned by c are left untouched.
func (n *Node) RemoveChild(c *Node) {
	for i, cur := range n.children {
		if cur == c {
			n.children = append(n.children[:i], n.children[i+1:]...)
			c.parent = nil
			return
		}
	}
}

func (n *Node) Parent() *Node     { return n.parent }
func (n *Node) Children() []*Node { return n.children }

// Objects returns the objects currently owned by n, active or not.
func (n *Node) Objects() []*Object { return n.objects }

func (n *Node) attach(o *Object) {
	n.objects = append(n.objects, o)
	o.owner = n
}

func (n *Node) detach(o *Object) {
	for i, cur := range n.objects {
		if cur == o {
			n.objects = append(n.objects[:i], n.objects[i+1:]...)
			break
		}
	}
	o.owner = nil
}

// Object is one instantiated unit. Inactive objects stay attached to their
// owner until destroyed.
type Object struct {
	ID        uint64
	Prefab    string
	Lifetime  int // frames before expiry, 0 = immortal
	active    bool
	destroyed bool
	age       int
	owner     *Node
}

// SetActive toggles the object; activating resets its age.
func (o *Object) SetActive(active bool) {
	if active && !o.active {
		o.age = 0
	}
	o.active = active
}

func (o *Object) Active() bool    { return o.active }
func (o *Object) Destroyed() bool { return o.destroyed }
func (o *Object) Owner() *Node    { return o.owner }
func (o *Object) Age() int        { return o.age }

// Step ages an active object by one frame.
func (o *Object) Step() {
	if o.active {
		o.age++
	}
}

// Expired reports whether a mortal object has outlived its lifetime.
func (o *Object) Expired() bool {
	return o.Lifetime > 0 && o.age >= o.Lifetime
}

// Destroy detaches the object from its owner permanently.
func (o *Object) Destroy() {
	if o.destroyed {
		return
	}
	o.active = false
	o.destroyed = true
	if o.owner != nil {
		o.owner.detach(o)
	}
}

// Template describes how to build objects of one prefab.
type Template struct {
	Name     string
	Lifetime int
}

// Instantiate builds a new inactive object owned by owner.
func (t Template) Instantiate(owner *Node) *Object {
	o := &Object{
		ID:       NextObjectID(),
		Prefab:   t.Name,
		Lifetime: t.Lifetime,
	}
	if owner != nil {
		owner.attach(o)
	}
	return o
}
