package domain

import (
	"fmt"
	"math"
)

// Variant discriminates the persisted node forms.
type Variant uint8

const (
	VariantNull Variant = iota
	VariantNumber
	VariantText
	VariantReference
	VariantList
	VariantInstance
	VariantCell
)

func (v Variant) String() string {
	switch v {
	case VariantNull:
		return "null"
	case VariantNumber:
		return "number"
	case VariantText:
		return "text"
	case VariantReference:
		return "reference"
	case VariantList:
		return "list"
	case VariantInstance:
		return "instance"
	case VariantCell:
		return "cell"
	default:
		return fmt.Sprintf("variant(%d)", uint8(v))
	}
}

// Node is one persisted value. The set of implementations is closed to this
// package; every Node is immutable once constructed.
type Node interface {
	Variant() Variant
	node()
}

// Null is the absent value.
type Null struct{}

// Number is a numeric value.
type Number float64

// Text is a string value.
type Text string

// Reference points at an instance (or identified cell) by reference id.
type Reference uint32

func (Null) Variant() Variant      { return VariantNull }
func (Number) Variant() Variant    { return VariantNumber }
func (Text) Variant() Variant      { return VariantText }
func (Reference) Variant() Variant { return VariantReference }
func (List) Variant() Variant      { return VariantList }
func (*Instance) Variant() Variant { return VariantInstance }
func (*Cell) Variant() Variant     { return VariantCell }

func (Null) node()      {}
func (Number) node()    {}
func (Text) node()      {}
func (Reference) node() {}
func (List) node()      {}
func (*Instance) node() {}
func (*Cell) node()     {}

// List is an ordered sequence of nodes. Duplicates are preserved.
type List struct {
	items []Node
}

// NewList returns a list holding a copy of items.
func NewList(items ...Node) List {
	cp := make([]Node, len(items))
	copy(cp, items)
	return List{items: cp}
}

// Len returns the number of items.
func (l List) Len() int { return len(l.items) }

// At returns the i-th item.
func (l List) At(i int) Node { return l.items[i] }

// Items returns a copy of the items.
func (l List) Items() []Node {
	cp := make([]Node, len(l.items))
	copy(cp, l.items)
	return cp
}

// Field is one named entry of a field mapping.
type Field struct {
	Name  string
	Value Node
}

// Fields is an ordered name to node mapping. Names are unique; the first
// occurrence wins when constructed from a slice with duplicates.
type Fields struct {
	list  []Field
	index map[string]int
}

// NewFields builds a mapping from fs, preserving order.
func NewFields(fs ...Field) Fields {
	out := Fields{
		list:  make([]Field, 0, len(fs)),
		index: make(map[string]int, len(fs)),
	}
	for _, f := range fs {
		if _, dup := out.index[f.Name]; dup {
			continue
		}
		out.index[f.Name] = len(out.list)
		out.list = append(out.list, f)
	}
	return out
}

// Len returns the number of fields.
func (f Fields) Len() int { return len(f.list) }

// At returns the i-th field in insertion order.
func (f Fields) At(i int) Field { return f.list[i] }

// Get looks up a field by name.
func (f Fields) Get(name string) (Node, bool) {
	i, ok := f.index[name]
	if !ok {
		return nil, false
	}
	return f.list[i].Value, true
}

// Names returns field names in order.
func (f Fields) Names() []string {
	out := make([]string, len(f.list))
	for i, fl := range f.list {
		out[i] = fl.Name
	}
	return out
}

// All returns a copy of the fields in order.
func (f Fields) All() []Field {
	cp := make([]Field, len(f.list))
	copy(cp, f.list)
	return cp
}

// Instance is an identity-bearing object recorded once in the instances pool.
type Instance struct {
	id      uint32
	typeTag string
	fields  Fields
}

// NewInstance creates an instance record.
func NewInstance(id uint32, typeTag string, fields Fields) *Instance {
	return &Instance{id: id, typeTag: typeTag, fields: fields}
}

// ID returns the reference id assigned during the Save.
func (i *Instance) ID() uint32 { return i.id }

// TypeTag returns the host type of the instance (e.g. "/obj/item").
func (i *Instance) TypeTag() string { return i.typeTag }

// Fields returns the field mapping.
func (i *Instance) Fields() Fields { return i.fields }

// Cell is one element of a spatial layer. ID is zero for anonymous cells;
// cells reached through another node's field carry a reference id.
type Cell struct {
	id      uint32
	typeTag string
	fields  Fields
}

// NewCell creates a cell record.
func NewCell(id uint32, typeTag string, fields Fields) *Cell {
	return &Cell{id: id, typeTag: typeTag, fields: fields}
}

// ID returns the reference id, or zero when the cell is anonymous.
func (c *Cell) ID() uint32 { return c.id }

// TypeTag returns the host type of the cell (e.g. "/turf/floor").
func (c *Cell) TypeTag() string { return c.typeTag }

// Fields returns the field mapping.
func (c *Cell) Fields() Fields { return c.fields }

// Equal reports whether two nodes are structurally identical. References
// compare by id, not by what they resolve to.
func Equal(a, b Node) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Variant() != b.Variant() {
		return false
	}
	switch av := a.(type) {
	case Null:
		return true
	case Number:
		bv := b.(Number)
		if math.IsNaN(float64(av)) {
			return math.IsNaN(float64(bv))
		}
		return av == bv
	case Text:
		return av == b.(Text)
	case Reference:
		return av == b.(Reference)
	case List:
		bv := b.(List)
		if av.Len() != bv.Len() {
			return false
		}
		for i := range av.items {
			if !Equal(av.items[i], bv.items[i]) {
				return false
			}
		}
		return true
	case *Instance:
		bv := b.(*Instance)
		return av.id == bv.id && av.typeTag == bv.typeTag && fieldsEqual(av.fields, bv.fields)
	case *Cell:
		bv := b.(*Cell)
		return av.id == bv.id && av.typeTag == bv.typeTag && fieldsEqual(av.fields, bv.fields)
	}
	return false
}

func fieldsEqual(a, b Fields) bool {
	if a.Len() != b.Len() {
		return false
	}
	for i := range a.list {
		if a.list[i].Name != b.list[i].Name || !Equal(a.list[i].Value, b.list[i].Value) {
			return false
		}
	}
	return true
}
