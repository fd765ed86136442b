package host

import (
	"github.com/yndnr/worldsave-go/internal/core/domain"
)

// Host is the live runtime whose world is snapshotted.
type Host interface {
	// WorldBounds returns the grid extent and the number of spatial layers.
	WorldBounds() (domain.Bounds, error)

	// RootContainer returns the top-level nodes of the world in order.
	RootContainer() ([]Node, error)

	// SavePath returns the directory snapshots are written to and read from.
	SavePath() (string, error)
}

// Restorer is implemented by hosts that can adopt a loaded world.
type Restorer interface {
	Restore(w *domain.World) error
}

// Node is one host-exposed value.
//
// Which methods are meaningful depends on Kind: Number and Text for
// primitives and type paths, Identity and Fields for instances and cells,
// Len and At for list kinds, Layer for cells.
type Node interface {
	Kind() domain.Kind

	// Identity returns the stable key of an identity-bearing node.
	Identity() (domain.Identity, bool)

	// TypeTag returns the host type name of an instance or cell.
	TypeTag() string

	Fields() []Field

	Len() int
	At(i int) Node

	Number() float64
	Text() string

	// Layer returns the spatial layer index of a cell.
	Layer() int
}

// Field is one named entry of a node's field mapping.
type Field struct {
	Name  string
	Value Node
}
