package service

import "github.com/yndnr/worldsave-go/internal/core/domain"

// InstancesPool collects encoded instance records in first-sighting order.
// A slot is reserved when an instance is interned and filled once its body
// has been expanded, so the pool order is independent of expansion order.
type InstancesPool struct {
	records []*domain.Instance
}

// Reserve appends an empty slot and returns its index.
func (p *InstancesPool) Reserve() int {
	p.records = append(p.records, nil)
	return len(p.records) - 1
}

// Fill stores the record for a reserved slot.
func (p *InstancesPool) Fill(slot int, inst *domain.Instance) {
	p.records[slot] = inst
}

// Len returns the number of reserved slots.
func (p *InstancesPool) Len() int { return len(p.records) }

// Records returns the filled records. Slots still empty are omitted.
func (p *InstancesPool) Records() []*domain.Instance {
	out := make([]*domain.Instance, 0, len(p.records))
	for _, r := range p.records {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

// Partition collects the cells of one spatial layer in encounter order.
type Partition struct {
	layer int
	cells []*domain.Cell
}

// NewPartition returns an empty partition for layer.
func NewPartition(layer int) *Partition {
	return &Partition{layer: layer}
}

// Layer returns the layer index.
func (p *Partition) Layer() int { return p.layer }

// Reserve appends an empty slot and returns its index.
func (p *Partition) Reserve() int {
	p.cells = append(p.cells, nil)
	return len(p.cells) - 1
}

// Fill stores the cell for a reserved slot.
func (p *Partition) Fill(slot int, c *domain.Cell) {
	p.cells[slot] = c
}

// Len returns the number of reserved slots.
func (p *Partition) Len() int { return len(p.cells) }

// Cells returns the filled cells. Slots still empty are omitted.
func (p *Partition) Cells() []*domain.Cell {
	out := make([]*domain.Cell, 0, len(p.cells))
	for _, c := range p.cells {
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}
