package service

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"github.com/yndnr/worldsave-go/internal/core/domain"
	"github.com/yndnr/worldsave-go/internal/core/host"
	"github.com/yndnr/worldsave-go/internal/telemetry/logger"
)

// DefaultMaxListDepth bounds list nesting when EncoderOptions leaves it unset.
const DefaultMaxListDepth = 256

// EncoderOptions configures one encoding pass.
type EncoderOptions struct {
	// MaxListDepth is the deepest list nesting encoded; deeper lists are
	// dropped with a warning.
	MaxListDepth int
	// Filter drops matching fields before they are encoded.
	Filter *FieldFilter
	// Logger receives one record per warning, subject to WarnLimiter.
	Logger logger.Logger
	// WarnLimiter throttles warning log records. Warnings are always
	// collected in full; only logging is limited. Nil logs every warning.
	WarnLimiter *rate.Limiter
}

// Encoding is the in-memory result of encoding a root container.
type Encoding struct {
	// Instances holds one record per interned instance in first-sighting
	// order.
	Instances []*domain.Instance
	// Layers holds the cells of each spatial layer in encounter order.
	Layers [][]*domain.Cell
	// Roots holds the encoded root entries that are not spatial cells.
	Roots    []domain.Node
	Warnings domain.Warnings
	// Suppressed counts warnings not logged because of the rate limit.
	Suppressed int
}

// CellCount returns the number of cells across all layers.
func (e *Encoding) CellCount() int {
	n := 0
	for _, l := range e.Layers {
		n += len(l)
	}
	return n
}

// Encoder turns a host object graph into instance records and per-layer
// cell partitions. An Encoder is single use: state such as the reference
// table lives for exactly one Encode call.
//
// Instance bodies are expanded from an explicit work list rather than by
// recursion, so graph depth does not grow the goroutine stack and cycles
// through instances terminate: a second sighting of an identity only
// yields its Reference.
type Encoder struct {
	opts  EncoderOptions
	log   logger.Logger
	refs  *ReferenceTable
	pool  InstancesPool
	parts []*Partition
	work  []expansion
	// active holds the lists on the current nesting path.
	active map[any]bool

	warnings   domain.Warnings
	suppressed int
}

// expansion is a reserved record whose fields are still to be encoded.
type expansion struct {
	node  host.Node
	path  *path
	ref   uint32
	cell  bool
	layer int
	slot  int
}

// NewEncoder returns an encoder for a world with the given number of
// spatial layers.
func NewEncoder(layers int, opts EncoderOptions) (*Encoder, error) {
	if layers < 0 {
		return nil, domain.ErrInvalidArgument.WithDetailsf("layer count %d", layers)
	}
	if opts.MaxListDepth <= 0 {
		opts.MaxListDepth = DefaultMaxListDepth
	}
	log := opts.Logger
	if log == nil {
		log = logger.Discard()
	}
	e := &Encoder{
		opts:   opts,
		log:    log,
		refs:   NewReferenceTable(),
		parts:  make([]*Partition, layers),
		active: make(map[any]bool),
	}
	for i := range e.parts {
		e.parts[i] = NewPartition(i)
	}
	return e, nil
}

// Encode encodes every entry of roots in order. Each root's reachable
// instances are fully expanded before the next root is visited.
func (e *Encoder) Encode(roots []host.Node) *Encoding {
	var encoded []domain.Node
	for i, n := range roots {
		p := &path{name: "root", index: i}
		if v, ok := e.root(n, p); ok {
			encoded = append(encoded, v)
		}
		e.drain()
	}

	out := &Encoding{
		Instances:  e.pool.Records(),
		Layers:     make([][]*domain.Cell, len(e.parts)),
		Roots:      encoded,
		Warnings:   e.warnings,
		Suppressed: e.suppressed,
	}
	for i, part := range e.parts {
		out.Layers[i] = part.Cells()
	}
	if e.suppressed > 0 {
		e.log.Warn("warning log rate limited", "suppressed", e.suppressed, "total", len(e.warnings))
	}
	return out
}

// root encodes one root container entry. Cells are routed to their
// partition and contribute nothing to the root list.
func (e *Encoder) root(n host.Node, p *path) (domain.Node, bool) {
	if n != nil && Classify(n.Kind()) == Bucket {
		e.bucket(n, p, false)
		return nil, false
	}
	return e.value(n, p, 0)
}

// value encodes a node at a field or list site. The bool is false when the
// node was dropped.
func (e *Encoder) value(n host.Node, p *path, depth int) (domain.Node, bool) {
	if n == nil {
		return domain.Null{}, true
	}
	kind := n.Kind()
	switch Classify(kind) {
	case Inline:
		return inline(n), true
	case Skip:
		e.warn(domain.ErrSkipped, p, kind, "transient value not persisted")
		return nil, false
	case Intern:
		return e.intern(n, p)
	case Bucket:
		return e.bucket(n, p, true)
	case Sequence:
		return e.list(n, p, depth)
	default:
		e.warn(domain.ErrUnsupportedValue, p, kind, "no encoding for kind")
		return nil, false
	}
}

func inline(n host.Node) domain.Node {
	switch n.Kind() {
	case domain.KindNull:
		return domain.Null{}
	case domain.KindNumber:
		return domain.Number(n.Number())
	default:
		// strings and type paths
		return domain.Text(n.Text())
	}
}

func (e *Encoder) intern(n host.Node, p *path) (domain.Node, bool) {
	id, ok := n.Identity()
	if !ok {
		e.warn(domain.ErrIdentity, p, n.Kind(), "instance has no identity")
		return nil, false
	}
	ref, first, err := e.refs.Intern(id)
	if err != nil {
		e.warn(domain.ErrIdentity, p, n.Kind(), "instance has no identity")
		return nil, false
	}
	if first {
		e.work = append(e.work, expansion{
			node:  n,
			path:  p,
			ref:   ref,
			layer: -1,
			slot:  e.pool.Reserve(),
		})
	}
	return domain.Reference(ref), true
}

// bucket routes a cell to its layer's partition. A cell with an identity is
// bucketed once and referenced from every site; an anonymous cell can only
// be bucketed from the root container.
func (e *Encoder) bucket(n host.Node, p *path, nested bool) (domain.Node, bool) {
	kind := n.Kind()
	layer := n.Layer()
	if layer < 0 || layer >= len(e.parts) {
		e.warn(domain.ErrUnsupportedValue, p, kind,
			fmt.Sprintf("layer %d outside world of %d layers", layer, len(e.parts)))
		return nil, false
	}

	id, ok := n.Identity()
	if ok && !id.IsZero() {
		ref, first, _ := e.refs.Intern(id)
		if first {
			e.work = append(e.work, expansion{
				node:  n,
				path:  p,
				ref:   ref,
				cell:  true,
				layer: layer,
				slot:  e.parts[layer].Reserve(),
			})
		}
		return domain.Reference(ref), true
	}

	if nested {
		e.warn(domain.ErrIdentity, p, kind, "cell reached through a field has no identity")
		return nil, false
	}
	e.work = append(e.work, expansion{
		node:  n,
		path:  p,
		cell:  true,
		layer: layer,
		slot:  e.parts[layer].Reserve(),
	})
	return nil, false
}

func (e *Encoder) list(n host.Node, p *path, depth int) (domain.Node, bool) {
	if depth >= e.opts.MaxListDepth {
		e.warn(domain.ErrUnsupportedValue, p, n.Kind(),
			fmt.Sprintf("list nesting exceeds %d", e.opts.MaxListDepth))
		return nil, false
	}
	if key, ok := listKey(n); ok {
		if e.active[key] {
			e.warn(domain.ErrUnsupportedValue, p, n.Kind(), "list contains itself")
			return nil, false
		}
		e.active[key] = true
		defer delete(e.active, key)
	}

	count := n.Len()
	items := make([]domain.Node, 0, count)
	for i := 0; i < count; i++ {
		if v, ok := e.value(n.At(i), p.at(i), depth+1); ok {
			items = append(items, v)
		}
	}
	return domain.NewList(items...), true
}

// listKey returns a key identifying a host list across sightings. Lists
// with an identity use it; pointer-backed lists use the pointer. Other
// lists cannot be told apart and rely on the depth limit alone.
func listKey(n host.Node) (any, bool) {
	if id, ok := n.Identity(); ok && !id.IsZero() {
		return id, true
	}
	if reflect.ValueOf(n).Kind() == reflect.Pointer {
		return n, true
	}
	return nil, false
}

// drain expands reserved records until the work list is empty.
func (e *Encoder) drain() {
	for len(e.work) > 0 {
		x := e.work[len(e.work)-1]
		e.work = e.work[:len(e.work)-1]

		fields := e.fields(x.node, x.path)
		if x.cell {
			e.parts[x.layer].Fill(x.slot, domain.NewCell(x.ref, x.node.TypeTag(), fields))
		} else {
			e.pool.Fill(x.slot, domain.NewInstance(x.ref, x.node.TypeTag(), fields))
		}
	}
}

func (e *Encoder) fields(n host.Node, p *path) domain.Fields {
	typeTag := n.TypeTag()
	src := n.Fields()
	out := make([]domain.Field, 0, len(src))
	for _, f := range src {
		kind := domain.KindNull
		if f.Value != nil {
			kind = f.Value.Kind()
		}
		if rule, ok := e.opts.Filter.Match(typeTag, f.Name, kind); ok {
			e.log.Debug("field skipped by rule", "type", typeTag, "field", f.Name, "rule", rule)
			continue
		}
		v, ok := e.value(f.Value, p.field(f.Name), 0)
		if !ok {
			continue
		}
		out = append(out, domain.Field{Name: f.Name, Value: v})
	}
	return domain.NewFields(out...)
}

func (e *Encoder) warn(err *domain.DomainError, p *path, kind domain.Kind, msg string) {
	w := domain.NewWarning(err, p.String(), kind, msg)
	e.warnings = append(e.warnings, w)
	if e.opts.WarnLimiter != nil && !e.opts.WarnLimiter.Allow() {
		e.suppressed++
		return
	}
	e.log.Warn("value dropped", "code", w.Code, "path", w.Path, "kind", kind.String(), "reason", msg)
}

// path locates a node relative to the root container. Segments are only
// rendered when a warning needs them.
type path struct {
	parent *path
	name   string
	index  int
}

func (p *path) field(name string) *path {
	return &path{parent: p, name: name, index: -1}
}

func (p *path) at(i int) *path {
	return &path{parent: p, index: i}
}

func (p *path) String() string {
	var segs []*path
	for q := p; q != nil; q = q.parent {
		segs = append(segs, q)
	}
	var b strings.Builder
	for i := len(segs) - 1; i >= 0; i-- {
		s := segs[i]
		if s.name != "" {
			if b.Len() > 0 {
				b.WriteByte('.')
			}
			b.WriteString(s.name)
		}
		if s.index >= 0 {
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(s.index))
			b.WriteByte(']')
		}
	}
	return b.String()
}
