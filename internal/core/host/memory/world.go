package memory

import (
	"fmt"
	"sync"

	"github.com/yndnr/worldsave-go/internal/core/domain"
	"github.com/yndnr/worldsave-go/internal/core/host"
)

// Object is one mutable node of an in-memory world. The same *Object may be
// reachable from many places; that sharing is what the snapshot preserves.
type Object struct {
	kind     domain.Kind
	identity domain.Identity
	typeTag  string
	num      float64
	text     string
	layer    int
	fields   []field
	items    []*Object
}

type field struct {
	name  string
	value *Object
}

// Null returns a null node.
func Null() *Object { return &Object{kind: domain.KindNull} }

// Number returns a numeric node.
func Number(f float64) *Object { return &Object{kind: domain.KindNumber, num: f} }

// String returns a text node.
func String(s string) *Object { return &Object{kind: domain.KindString, text: s} }

// Typepath returns a type path node of the given kind, e.g.
// Typepath(domain.KindObjTypepath, "/obj/item").
func Typepath(kind domain.Kind, path string) *Object {
	return &Object{kind: kind, text: path}
}

// Opaque returns a node of a kind that carries no persisted payload, such as
// an appearance or a file handle.
func Opaque(kind domain.Kind) *Object { return &Object{kind: kind} }

// NewList returns a list node of the given list kind.
func NewList(kind domain.Kind, items ...*Object) *Object {
	return &Object{kind: kind, items: append([]*Object(nil), items...)}
}

// NewInstance returns an identity-bearing object.
func NewInstance(kind domain.Kind, id domain.Identity, typeTag string) *Object {
	return &Object{kind: kind, identity: id, typeTag: typeTag}
}

// NewCell returns a cell on the given layer. Cells are anonymous unless
// WithIdentity is called.
func NewCell(layer int, typeTag string) *Object {
	return &Object{kind: domain.KindTurf, layer: layer, typeTag: typeTag}
}

// WithIdentity sets the identity and returns o.
func (o *Object) WithIdentity(id domain.Identity) *Object {
	o.identity = id
	return o
}

// Set assigns a field, replacing an existing field of the same name in
// place, and returns o.
func (o *Object) Set(name string, value *Object) *Object {
	for i := range o.fields {
		if o.fields[i].name == name {
			o.fields[i].value = value
			return o
		}
	}
	o.fields = append(o.fields, field{name: name, value: value})
	return o
}

// Get returns a field value.
func (o *Object) Get(name string) (*Object, bool) {
	for _, f := range o.fields {
		if f.name == name {
			return f.value, true
		}
	}
	return nil, false
}

// Append adds items to a list node and returns o.
func (o *Object) Append(items ...*Object) *Object {
	o.items = append(o.items, items...)
	return o
}

// Items returns the list items.
func (o *Object) Items() []*Object { return o.items }

// FieldNames returns field names in order.
func (o *Object) FieldNames() []string {
	out := make([]string, len(o.fields))
	for i, f := range o.fields {
		out[i] = f.name
	}
	return out
}

func (o *Object) Kind() domain.Kind { return o.kind }

func (o *Object) Identity() (domain.Identity, bool) {
	return o.identity, !o.identity.IsZero()
}

func (o *Object) TypeTag() string { return o.typeTag }

func (o *Object) Fields() []host.Field {
	out := make([]host.Field, len(o.fields))
	for i, f := range o.fields {
		out[i] = host.Field{Name: f.name, Value: f.value}
	}
	return out
}

func (o *Object) Len() int { return len(o.items) }

func (o *Object) At(i int) host.Node { return o.items[i] }

func (o *Object) Number() float64 { return o.num }

func (o *Object) Text() string { return o.text }

func (o *Object) Layer() int { return o.layer }

// World is an in-memory host. It is safe for concurrent use; Save callers
// still must not mutate objects while a snapshot is in flight.
type World struct {
	mu       sync.RWMutex
	bounds   domain.Bounds
	savePath string
	roots    []*Object
}

// NewWorld creates an empty world.
func NewWorld(bounds domain.Bounds, savePath string) *World {
	return &World{bounds: bounds, savePath: savePath}
}

// Add appends top-level nodes.
func (w *World) Add(roots ...*Object) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.roots = append(w.roots, roots...)
}

// Roots returns the top-level objects.
func (w *World) Roots() []*Object {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]*Object(nil), w.roots...)
}

// SetSavePath changes the snapshot directory.
func (w *World) SetSavePath(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.savePath = path
}

func (w *World) WorldBounds() (domain.Bounds, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.bounds, nil
}

func (w *World) RootContainer() ([]host.Node, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]host.Node, len(w.roots))
	for i, r := range w.roots {
		out[i] = r
	}
	return out, nil
}

func (w *World) SavePath() (string, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.savePath == "" {
		return "", domain.ErrConfiguration.WithDetails("world has no save path")
	}
	return w.savePath, nil
}

// Restore replaces the world contents with a decoded snapshot. The bounds
// and roots are swapped only after the whole graph is rebuilt.
func (w *World) Restore(dw *domain.World) error {
	roots, err := Rebuild(dw)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.bounds = dw.Bounds
	w.roots = roots
	return nil
}

// Rebuild turns a decoded world into live objects. Every reference id maps
// to exactly one *Object, so two fields that referenced the same instance
// before the Save share a pointer afterwards. Cells come first in layer
// order, followed by the remaining roots.
func Rebuild(dw *domain.World) ([]*Object, error) {
	shells := make(map[uint32]*Object, len(dw.Instances))
	for _, inst := range dw.Instances {
		shells[inst.ID()] = NewInstance(instanceKind(inst.TypeTag()), domain.NumericIdentity(int64(inst.ID())), inst.TypeTag())
	}

	cells := make([]*Object, 0, dw.CellCount())
	pending := make([]*domain.Cell, 0, dw.CellCount())
	for layer, cs := range dw.Layers {
		for _, c := range cs {
			obj := NewCell(layer, c.TypeTag())
			if c.ID() != 0 {
				obj.identity = domain.NumericIdentity(int64(c.ID()))
				shells[c.ID()] = obj
			}
			cells = append(cells, obj)
			pending = append(pending, c)
		}
	}

	b := rebuilder{shells: shells}
	for _, inst := range dw.Instances {
		if err := b.fill(shells[inst.ID()], inst.Fields()); err != nil {
			return nil, err
		}
	}
	for i, c := range pending {
		if err := b.fill(cells[i], c.Fields()); err != nil {
			return nil, err
		}
	}

	roots := cells
	for _, r := range dw.Roots {
		obj, err := b.value(r)
		if err != nil {
			return nil, err
		}
		roots = append(roots, obj)
	}
	return roots, nil
}

// instanceKind is KindForType restricted to interned kinds. An instance
// record whose type path looks like a cell stays an instance.
func instanceKind(typeTag string) domain.Kind {
	if k := KindForType(typeTag); k != domain.KindTurf {
		return k
	}
	return domain.KindDatum
}

type rebuilder struct {
	shells map[uint32]*Object
}

func (b rebuilder) fill(obj *Object, fs domain.Fields) error {
	for i := 0; i < fs.Len(); i++ {
		f := fs.At(i)
		v, err := b.value(f.Value)
		if err != nil {
			return fmt.Errorf("field %q: %w", f.Name, err)
		}
		obj.Set(f.Name, v)
	}
	return nil
}

func (b rebuilder) value(n domain.Node) (*Object, error) {
	switch v := n.(type) {
	case domain.Null:
		return Null(), nil
	case domain.Number:
		return Number(float64(v)), nil
	case domain.Text:
		return String(string(v)), nil
	case domain.Reference:
		obj, ok := b.shells[uint32(v)]
		if !ok {
			return nil, domain.ErrCorruptData.WithDetailsf("unknown reference id %d", uint32(v))
		}
		return obj, nil
	case domain.List:
		items := make([]*Object, v.Len())
		for i := 0; i < v.Len(); i++ {
			item, err := b.value(v.At(i))
			if err != nil {
				return nil, err
			}
			items[i] = item
		}
		return NewList(domain.KindList, items...), nil
	default:
		return nil, domain.ErrCorruptData.WithDetailsf("unexpected %s node in field position", n.Variant())
	}
}
