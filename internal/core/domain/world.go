package domain

// Bounds is the extent of the world grid as reported by the host.
type Bounds struct {
	X      int `json:"x" yaml:"x"`
	Y      int `json:"y" yaml:"y"`
	Layers int `json:"layers" yaml:"layers"`
}

// World is a fully decoded snapshot. Every Reference reachable from Layers,
// Roots or Instances resolves through Resolve; Load only returns a World
// once that holds.
type World struct {
	Bounds    Bounds
	Layers    [][]*Cell
	Roots     []Node
	Instances []*Instance

	targets map[uint32]Node
}

// NewWorld assembles a world and indexes every instance and identified cell
// by reference id. It does not validate references; see Dangling.
func NewWorld(bounds Bounds, layers [][]*Cell, roots []Node, instances []*Instance) *World {
	w := &World{
		Bounds:    bounds,
		Layers:    layers,
		Roots:     roots,
		Instances: instances,
		targets:   make(map[uint32]Node, len(instances)),
	}
	for _, inst := range instances {
		w.targets[inst.ID()] = inst
	}
	for _, layer := range layers {
		for _, c := range layer {
			if c.ID() != 0 {
				w.targets[c.ID()] = c
			}
		}
	}
	return w
}

// Resolve returns the instance or cell a reference id points at.
func (w *World) Resolve(id uint32) (Node, bool) {
	n, ok := w.targets[id]
	return n, ok
}

// Instance returns the instance with the given reference id.
func (w *World) Instance(id uint32) (*Instance, bool) {
	n, ok := w.targets[id]
	if !ok {
		return nil, false
	}
	inst, ok := n.(*Instance)
	return inst, ok
}

// CellCount returns the number of cells across all layers.
func (w *World) CellCount() int {
	n := 0
	for _, l := range w.Layers {
		n += len(l)
	}
	return n
}

// Dangling returns the first reference id reachable from the world that does
// not resolve, and false when every reference resolves.
func (w *World) Dangling() (uint32, bool) {
	var stack []Node
	for _, inst := range w.Instances {
		stack = append(stack, inst)
	}
	for _, layer := range w.Layers {
		for _, c := range layer {
			stack = append(stack, c)
		}
	}
	stack = append(stack, w.Roots...)

	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch v := n.(type) {
		case Reference:
			if _, ok := w.targets[uint32(v)]; !ok {
				return uint32(v), true
			}
		case List:
			stack = append(stack, v.items...)
		case *Instance:
			for _, f := range v.fields.list {
				stack = append(stack, f.Value)
			}
		case *Cell:
			for _, f := range v.fields.list {
				stack = append(stack, f.Value)
			}
		}
	}
	return 0, false
}
