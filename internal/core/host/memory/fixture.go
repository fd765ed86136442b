package memory

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/yndnr/worldsave-go/internal/core/domain"
)

// Fixture format (YAML, field order preserved):
//
//	bounds: {x: 8, y: 8, layers: 2}
//	save_path: ./save
//	objects:
//	  - id: A1
//	    type: /obj/item/sword
//	    fields:
//	      name: sword
//	      owner: {ref: M1}
//	cells:
//	  - layer: 0
//	    type: /turf/floor
//	    fields:
//	      item: {ref: A1}
//	roots:
//	  - {ref: M1}
//
// Scalars map to null, number and string nodes, sequences to plain lists.
// A mapping value is either {ref: ID}, or {kind: KIND} optionally carrying
// value (type paths) or items (typed lists). Objects and cells listed under
// objects/cells are not roots by themselves, except that every cell is.

// LoadFixture reads a fixture file.
func LoadFixture(path string) (*World, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fixture: %w", err)
	}
	defer f.Close()
	return ReadFixture(f)
}

// ReadFixture parses a fixture.
func ReadFixture(r io.Reader) (*World, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("fixture: top level must be a mapping")
	}

	p := &fixtureParser{registry: make(map[string]*Object)}
	var (
		bounds   domain.Bounds
		savePath string
		objects  *yaml.Node
		cells    *yaml.Node
		roots    *yaml.Node
	)

	top := doc.Content[0]
	for i := 0; i+1 < len(top.Content); i += 2 {
		key, val := top.Content[i].Value, top.Content[i+1]
		switch key {
		case "bounds":
			if err := val.Decode(&bounds); err != nil {
				return nil, fmt.Errorf("fixture bounds: %w", err)
			}
		case "save_path":
			savePath = val.Value
		case "objects":
			objects = val
		case "cells":
			cells = val
		case "roots":
			roots = val
		default:
			return nil, fmt.Errorf("fixture: unknown key %q (line %d)", key, top.Content[i].Line)
		}
	}

	// Pass 1: allocate every addressable object so refs may point forward.
	type pendingFields struct {
		obj    *Object
		fields *yaml.Node
	}
	var pending []pendingFields
	var cellObjs []*Object

	for _, entry := range seq(objects) {
		obj, fields, err := p.declareObject(entry)
		if err != nil {
			return nil, err
		}
		pending = append(pending, pendingFields{obj, fields})
	}
	for _, entry := range seq(cells) {
		obj, fields, err := p.declareCell(entry, bounds.Layers)
		if err != nil {
			return nil, err
		}
		cellObjs = append(cellObjs, obj)
		pending = append(pending, pendingFields{obj, fields})
	}

	// Pass 2: fields and roots.
	for _, pf := range pending {
		if pf.fields == nil {
			continue
		}
		if pf.fields.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("fixture: fields must be a mapping (line %d)", pf.fields.Line)
		}
		for i := 0; i+1 < len(pf.fields.Content); i += 2 {
			v, err := p.value(pf.fields.Content[i+1])
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", pf.fields.Content[i].Value, err)
			}
			pf.obj.Set(pf.fields.Content[i].Value, v)
		}
	}

	w := NewWorld(bounds, savePath)
	w.Add(cellObjs...)
	for _, r := range seq(roots) {
		v, err := p.value(r)
		if err != nil {
			return nil, fmt.Errorf("root: %w", err)
		}
		w.Add(v)
	}
	return w, nil
}

type fixtureParser struct {
	registry map[string]*Object
}

func seq(n *yaml.Node) []*yaml.Node {
	if n == nil || n.Kind != yaml.SequenceNode {
		return nil
	}
	return n.Content
}

func mappingValues(n *yaml.Node) map[string]*yaml.Node {
	out := make(map[string]*yaml.Node, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		out[n.Content[i].Value] = n.Content[i+1]
	}
	return out
}

func (p *fixtureParser) register(idNode *yaml.Node, obj *Object) error {
	if idNode == nil {
		return nil
	}
	if _, dup := p.registry[idNode.Value]; dup {
		return fmt.Errorf("fixture: duplicate id %q (line %d)", idNode.Value, idNode.Line)
	}
	if idNode.ShortTag() == "!!int" {
		n, err := strconv.ParseInt(idNode.Value, 10, 64)
		if err != nil {
			return fmt.Errorf("fixture: id %q: %w", idNode.Value, err)
		}
		obj.identity = domain.NumericIdentity(n)
	} else {
		obj.identity = domain.TextIdentity(idNode.Value)
	}
	p.registry[idNode.Value] = obj
	return nil
}

func (p *fixtureParser) declareObject(entry *yaml.Node) (*Object, *yaml.Node, error) {
	if entry.Kind != yaml.MappingNode {
		return nil, nil, fmt.Errorf("fixture: object must be a mapping (line %d)", entry.Line)
	}
	m := mappingValues(entry)
	typeTag := ""
	if t := m["type"]; t != nil {
		typeTag = t.Value
	}
	kind := KindForType(typeTag)
	if k := m["kind"]; k != nil {
		parsed, err := domain.ParseKind(k.Value)
		if err != nil {
			return nil, nil, err
		}
		kind = parsed
	}
	obj := &Object{kind: kind, typeTag: typeTag}
	if err := p.register(m["id"], obj); err != nil {
		return nil, nil, err
	}
	return obj, m["fields"], nil
}

func (p *fixtureParser) declareCell(entry *yaml.Node, layers int) (*Object, *yaml.Node, error) {
	if entry.Kind != yaml.MappingNode {
		return nil, nil, fmt.Errorf("fixture: cell must be a mapping (line %d)", entry.Line)
	}
	m := mappingValues(entry)
	layer := 0
	if l := m["layer"]; l != nil {
		n, err := strconv.Atoi(l.Value)
		if err != nil {
			return nil, nil, fmt.Errorf("fixture: cell layer %q (line %d): %w", l.Value, l.Line, err)
		}
		layer = n
	}
	if layers > 0 && (layer < 0 || layer >= layers) {
		return nil, nil, fmt.Errorf("fixture: cell layer %d out of range [0,%d) (line %d)", layer, layers, entry.Line)
	}
	typeTag := "/turf"
	if t := m["type"]; t != nil {
		typeTag = t.Value
	}
	obj := NewCell(layer, typeTag)
	if err := p.register(m["id"], obj); err != nil {
		return nil, nil, err
	}
	return obj, m["fields"], nil
}

func (p *fixtureParser) value(n *yaml.Node) (*Object, error) {
	switch n.Kind {
	case yaml.AliasNode:
		return p.value(n.Alias)
	case yaml.ScalarNode:
		switch n.ShortTag() {
		case "!!null":
			return Null(), nil
		case "!!int", "!!float":
			f, err := strconv.ParseFloat(n.Value, 64)
			if err != nil {
				return nil, fmt.Errorf("number %q (line %d): %w", n.Value, n.Line, err)
			}
			return Number(f), nil
		case "!!bool":
			var b bool
			if err := n.Decode(&b); err != nil {
				return nil, err
			}
			if b {
				return Number(1), nil
			}
			return Number(0), nil
		default:
			return String(n.Value), nil
		}
	case yaml.SequenceNode:
		return p.list(domain.KindList, n)
	case yaml.MappingNode:
		m := mappingValues(n)
		if ref := m["ref"]; ref != nil {
			obj, ok := p.registry[ref.Value]
			if !ok {
				return nil, fmt.Errorf("unknown ref %q (line %d)", ref.Value, ref.Line)
			}
			return obj, nil
		}
		k := m["kind"]
		if k == nil {
			return nil, fmt.Errorf("mapping value needs ref or kind (line %d)", n.Line)
		}
		kind, err := domain.ParseKind(k.Value)
		if err != nil {
			return nil, err
		}
		if items := m["items"]; items != nil {
			return p.list(kind, items)
		}
		if v := m["value"]; v != nil {
			if kind == domain.KindNumber {
				return p.value(v)
			}
			return Typepath(kind, v.Value), nil
		}
		return Opaque(kind), nil
	}
	return nil, fmt.Errorf("unsupported yaml node (line %d)", n.Line)
}

func (p *fixtureParser) list(kind domain.Kind, n *yaml.Node) (*Object, error) {
	if n.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("list items must be a sequence (line %d)", n.Line)
	}
	l := NewList(kind)
	for _, item := range n.Content {
		v, err := p.value(item)
		if err != nil {
			return nil, err
		}
		l.Append(v)
	}
	return l, nil
}

// WriteFixture renders the world as a fixture. Objects without an identity
// are given generated keys.
func WriteFixture(out io.Writer, w *World) error {
	bounds, _ := w.WorldBounds()
	fw := &fixtureWriter{keys: make(map[*Object]string), refd: make(map[*Object]bool)}

	var cells, otherRoots []*Object
	for _, r := range w.Roots() {
		if r.kind == domain.KindTurf {
			cells = append(cells, r)
			fw.note(r)
		} else {
			otherRoots = append(otherRoots, r)
		}
	}
	for _, r := range w.Roots() {
		fw.walk(r, map[*Object]bool{})
	}

	top := &yaml.Node{Kind: yaml.MappingNode}
	boundsNode := &yaml.Node{}
	if err := boundsNode.Encode(bounds); err != nil {
		return err
	}
	boundsNode.Style = yaml.FlowStyle
	top.Content = append(top.Content, scalar("!!str", "bounds"), boundsNode)
	w.mu.RLock()
	savePath := w.savePath
	w.mu.RUnlock()
	if savePath != "" {
		top.Content = append(top.Content, scalar("!!str", "save_path"), scalar("!!str", savePath))
	}

	objects := &yaml.Node{Kind: yaml.SequenceNode}
	cellSeq := &yaml.Node{Kind: yaml.SequenceNode}
	for _, obj := range fw.order {
		if obj.kind == domain.KindTurf {
			continue
		}
		objects.Content = append(objects.Content, fw.entry(obj, false))
	}
	for _, c := range cells {
		cellSeq.Content = append(cellSeq.Content, fw.entry(c, true))
	}
	// Cells reached only through fields are still written as cells.
	for _, obj := range fw.order {
		if obj.kind == domain.KindTurf && !contains(cells, obj) {
			cellSeq.Content = append(cellSeq.Content, fw.entry(obj, true))
		}
	}
	if len(objects.Content) > 0 {
		top.Content = append(top.Content, scalar("!!str", "objects"), objects)
	}
	if len(cellSeq.Content) > 0 {
		top.Content = append(top.Content, scalar("!!str", "cells"), cellSeq)
	}
	if len(otherRoots) > 0 {
		rootSeq := &yaml.Node{Kind: yaml.SequenceNode}
		for _, r := range otherRoots {
			rootSeq.Content = append(rootSeq.Content, fw.value(r, map[*Object]bool{}))
		}
		top.Content = append(top.Content, scalar("!!str", "roots"), rootSeq)
	}

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(&yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{top}}); err != nil {
		return err
	}
	return enc.Close()
}

type fixtureWriter struct {
	keys  map[*Object]string
	refd  map[*Object]bool
	order []*Object
	next  int
}

func isAddressable(o *Object) bool {
	switch o.kind {
	case domain.KindDatum, domain.KindMob, domain.KindObj, domain.KindArea, domain.KindTurf:
		return true
	}
	return false
}

func (fw *fixtureWriter) note(o *Object) bool {
	if _, seen := fw.keys[o]; seen {
		return false
	}
	key := o.identity.String()
	if o.identity.IsZero() {
		fw.next++
		key = "obj" + strconv.Itoa(fw.next)
	}
	fw.keys[o] = key
	fw.order = append(fw.order, o)
	return true
}

// walk records every addressable object reachable from o. Lists on the
// current path are tracked so a self-containing list terminates.
func (fw *fixtureWriter) walk(o *Object, onPath map[*Object]bool) {
	stack := []*Object{o}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if isAddressable(cur) {
			if !fw.note(cur) && cur != o {
				continue
			}
			for _, f := range cur.fields {
				fw.push(&stack, f.value)
			}
			continue
		}
		if onPath[cur] {
			continue
		}
		onPath[cur] = true
		for _, it := range cur.items {
			fw.push(&stack, it)
		}
	}
}

func (fw *fixtureWriter) push(stack *[]*Object, o *Object) {
	if isAddressable(o) {
		fw.refd[o] = true
	}
	*stack = append(*stack, o)
}

func (fw *fixtureWriter) entry(o *Object, cell bool) *yaml.Node {
	n := &yaml.Node{Kind: yaml.MappingNode}
	if cell {
		n.Content = append(n.Content, scalar("!!str", "layer"), scalar("!!int", strconv.Itoa(o.layer)))
	}
	if !o.identity.IsZero() || !cell || fw.refd[o] {
		n.Content = append(n.Content, scalar("!!str", "id"), fw.keyNode(o))
	}
	if !cell && KindForType(o.typeTag) != o.kind {
		n.Content = append(n.Content, scalar("!!str", "kind"), scalar("!!str", o.kind.String()))
	}
	n.Content = append(n.Content, scalar("!!str", "type"), scalar("!!str", o.typeTag))
	if len(o.fields) > 0 {
		fields := &yaml.Node{Kind: yaml.MappingNode}
		for _, f := range o.fields {
			fields.Content = append(fields.Content, scalar("!!str", f.name), fw.value(f.value, map[*Object]bool{}))
		}
		n.Content = append(n.Content, scalar("!!str", "fields"), fields)
	}
	return n
}

func (fw *fixtureWriter) keyNode(o *Object) *yaml.Node {
	if n, ok := o.identity.Int(); ok {
		return scalar("!!int", strconv.FormatInt(n, 10))
	}
	return scalar("!!str", fw.keys[o])
}

func (fw *fixtureWriter) value(o *Object, onPath map[*Object]bool) *yaml.Node {
	if isAddressable(o) {
		fw.note(o)
		ref := &yaml.Node{Kind: yaml.MappingNode, Style: yaml.FlowStyle}
		ref.Content = append(ref.Content, scalar("!!str", "ref"), fw.keyNode(o))
		return ref
	}
	switch o.kind {
	case domain.KindNull:
		return scalar("!!null", "null")
	case domain.KindNumber:
		return numberNode(o.num)
	case domain.KindString:
		return scalar("!!str", o.text)
	}
	if isListKind(o.kind) {
		if onPath[o] {
			return scalar("!!null", "null")
		}
		onPath[o] = true
		defer delete(onPath, o)

		items := &yaml.Node{Kind: yaml.SequenceNode}
		for _, it := range o.items {
			items.Content = append(items.Content, fw.value(it, onPath))
		}
		if o.kind == domain.KindList {
			return items
		}
		m := &yaml.Node{Kind: yaml.MappingNode}
		m.Content = append(m.Content, scalar("!!str", "kind"), scalar("!!str", o.kind.String()), scalar("!!str", "items"), items)
		return m
	}
	m := &yaml.Node{Kind: yaml.MappingNode, Style: yaml.FlowStyle}
	m.Content = append(m.Content, scalar("!!str", "kind"), scalar("!!str", o.kind.String()))
	if o.text != "" {
		m.Content = append(m.Content, scalar("!!str", "value"), scalar("!!str", o.text))
	}
	return m
}

func isListKind(k domain.Kind) bool {
	return k >= domain.KindList && k <= domain.KindListWorldVars
}

func numberNode(f float64) *yaml.Node {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return scalar("!!int", strconv.FormatInt(int64(f), 10))
	}
	return scalar("!!float", strconv.FormatFloat(f, 'g', -1, 64))
}

func scalar(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

func contains(list []*Object, o *Object) bool {
	for _, it := range list {
		if it == o {
			return true
		}
	}
	return false
}
