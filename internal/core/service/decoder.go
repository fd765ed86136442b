package service

import "github.com/yndnr/worldsave-go/internal/core/domain"

// splitInstances separates the records of an instances blob into instance
// records and the trailing roots list.
func splitInstances(records []domain.Node) ([]*domain.Instance, []domain.Node, error) {
	var roots []domain.Node
	if n := len(records); n > 0 {
		if l, ok := records[n-1].(domain.List); ok {
			roots = l.Items()
			records = records[:n-1]
		}
	}

	instances := make([]*domain.Instance, 0, len(records))
	for i, r := range records {
		inst, ok := r.(*domain.Instance)
		if !ok {
			return nil, nil, domain.ErrCorruptData.WithDetailsf("instances record %d is %s", i, variantOf(r))
		}
		instances = append(instances, inst)
	}
	return instances, roots, nil
}

// cellsOf converts the records of a layer blob to cells.
func cellsOf(records []domain.Node, layer int) ([]*domain.Cell, error) {
	cells := make([]*domain.Cell, 0, len(records))
	for i, r := range records {
		c, ok := r.(*domain.Cell)
		if !ok {
			return nil, domain.ErrCorruptData.WithDetailsf("layer %d record %d is %s", layer, i, variantOf(r))
		}
		cells = append(cells, c)
	}
	return cells, nil
}

// checkIDs rejects reference ids defined more than once across instances
// and identified cells.
func checkIDs(instances []*domain.Instance, layers [][]*domain.Cell) error {
	seen := make(map[uint32]struct{}, len(instances))
	claim := func(id uint32) error {
		if _, dup := seen[id]; dup {
			return domain.ErrCorruptData.WithDetailsf("reference id %d defined twice", id)
		}
		seen[id] = struct{}{}
		return nil
	}
	for _, inst := range instances {
		if err := claim(inst.ID()); err != nil {
			return err
		}
	}
	for _, layer := range layers {
		for _, c := range layer {
			if c.ID() == 0 {
				continue
			}
			if err := claim(c.ID()); err != nil {
				return err
			}
		}
	}
	return nil
}

func variantOf(n domain.Node) string {
	if n == nil {
		return "nil"
	}
	return n.Variant().String()
}

func cellRecords(cells []*domain.Cell) []domain.Node {
	out := make([]domain.Node, len(cells))
	for i, c := range cells {
		out[i] = c
	}
	return out
}

func instanceRecords(instances []*domain.Instance, roots []domain.Node) []domain.Node {
	out := make([]domain.Node, 0, len(instances)+1)
	for _, inst := range instances {
		out = append(out, inst)
	}
	if len(roots) > 0 {
		out = append(out, domain.NewList(roots...))
	}
	return out
}
