package codec

import (
	"math"

	msgpack "github.com/hashicorp/go-msgpack/v2/codec"

	"github.com/yndnr/worldsave-go/internal/core/domain"
)

// Node tags of the msgpack form. Every node is an array whose first element
// is its tag:
//
//	[1]                         null
//	[2, float]                  number
//	[3, string]                 text
//	[4, uint]                   reference
//	[5, [node...]]              list
//	[6, id, type, [[name, node]...]]  instance
//	[7, id, type, [[name, node]...]]  cell
//
// A blob is an array of records.
const (
	tagNull uint64 = iota + 1
	tagNumber
	tagText
	tagReference
	tagList
	tagInstance
	tagCell
)

// arity is the element count of each tagged array, tag included.
var arity = map[uint64]int{
	tagNull:      1,
	tagNumber:    2,
	tagText:      2,
	tagReference: 2,
	tagList:      2,
	tagInstance:  4,
	tagCell:      4,
}

// Msgpack is the MessagePack codec.
type Msgpack struct {
	handle *msgpack.MsgpackHandle
}

// NewMsgpack returns a msgpack codec.
func NewMsgpack() *Msgpack {
	h := &msgpack.MsgpackHandle{}
	h.RawToString = true
	h.WriteExt = true
	return &Msgpack{handle: h}
}

// Name implements Codec.
func (*Msgpack) Name() string { return NameMsgpack }

// Marshal implements Codec.
func (m *Msgpack) Marshal(records []domain.Node) ([]byte, error) {
	wire := make([]any, len(records))
	for i, r := range records {
		v, err := toWire(r)
		if err != nil {
			return nil, domain.ErrInvalidArgument.WithDetailsf("record %d", i).WithCause(err)
		}
		wire[i] = v
	}
	var b []byte
	if err := msgpack.NewEncoderBytes(&b, m.handle).Encode(wire); err != nil {
		return nil, domain.ErrInternal.WithDetails("msgpack encode").WithCause(err)
	}
	return b, nil
}

func toWire(n domain.Node) (any, error) {
	switch v := n.(type) {
	case nil, domain.Null:
		return []any{tagNull}, nil
	case domain.Number:
		return []any{tagNumber, float64(v)}, nil
	case domain.Text:
		return []any{tagText, string(v)}, nil
	case domain.Reference:
		return []any{tagReference, uint64(v)}, nil
	case domain.List:
		items := make([]any, v.Len())
		for i := range items {
			item, err := toWire(v.At(i))
			if err != nil {
				return nil, err
			}
			items[i] = item
		}
		return []any{tagList, items}, nil
	case *domain.Instance:
		fields, err := fieldsToWire(v.Fields())
		if err != nil {
			return nil, err
		}
		return []any{tagInstance, uint64(v.ID()), v.TypeTag(), fields}, nil
	case *domain.Cell:
		fields, err := fieldsToWire(v.Fields())
		if err != nil {
			return nil, err
		}
		return []any{tagCell, uint64(v.ID()), v.TypeTag(), fields}, nil
	default:
		return nil, domain.ErrUnsupportedValue.WithDetailsf("node %T", n)
	}
}

func fieldsToWire(fs domain.Fields) ([]any, error) {
	out := make([]any, fs.Len())
	for i := range out {
		f := fs.At(i)
		v, err := toWire(f.Value)
		if err != nil {
			return nil, err
		}
		out[i] = []any{f.Name, v}
	}
	return out, nil
}

// Unmarshal implements Codec.
func (m *Msgpack) Unmarshal(data []byte) ([]domain.Node, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var wire []any
	if err := msgpack.NewDecoderBytes(data, m.handle).Decode(&wire); err != nil {
		return nil, corrupt("msgpack decode").WithCause(err)
	}
	out := make([]domain.Node, 0, len(wire))
	for i, w := range wire {
		n, err := fromWire(w, 0, true)
		if err != nil {
			return nil, corrupt("record %d", i).WithCause(err)
		}
		out = append(out, n)
	}
	return out, nil
}

func fromWire(w any, depth int, record bool) (domain.Node, error) {
	if depth > maxDepth {
		return nil, corrupt("list nesting exceeds %d", maxDepth)
	}
	arr, ok := w.([]any)
	if !ok || len(arr) == 0 {
		return nil, corrupt("node is %T, want non-empty array", w)
	}
	tag, ok := toUint(arr[0])
	if !ok {
		return nil, corrupt("node tag is %T", arr[0])
	}

	want, known := arity[tag]
	if !known {
		return nil, corrupt("unknown node tag %d", tag)
	}
	if len(arr) != want {
		return nil, corrupt("node tag %d has %d elements, want %d", tag, len(arr), want)
	}

	switch tag {
	case tagNull:
		return domain.Null{}, nil
	case tagNumber:
		f, ok := toFloat(arr[1])
		if !ok {
			return nil, corrupt("number is %T", arr[1])
		}
		return domain.Number(f), nil
	case tagText:
		s, ok := toString(arr[1])
		if !ok {
			return nil, corrupt("text is %T", arr[1])
		}
		return domain.Text(s), nil
	case tagReference:
		id, ok := toUint(arr[1])
		if !ok || id == 0 || id > math.MaxUint32 {
			return nil, corrupt("reference %v out of range", arr[1])
		}
		return domain.Reference(uint32(id)), nil
	case tagList:
		raw, ok := arr[1].([]any)
		if !ok && arr[1] != nil {
			return nil, corrupt("list items are %T", arr[1])
		}
		items := make([]domain.Node, len(raw))
		for i, r := range raw {
			item, err := fromWire(r, depth+1, false)
			if err != nil {
				return nil, err
			}
			items[i] = item
		}
		return domain.NewList(items...), nil
	default:
		if !record {
			return nil, corrupt("record nested inside a value")
		}
		id, ok := toUint(arr[1])
		if !ok || id > math.MaxUint32 {
			return nil, corrupt("record id %v out of range", arr[1])
		}
		typeTag, ok := toString(arr[2])
		if !ok {
			return nil, corrupt("record type is %T", arr[2])
		}
		fields, err := fieldsFromWire(arr[3], depth)
		if err != nil {
			return nil, err
		}
		if tag == tagInstance {
			if id == 0 {
				return nil, corrupt("instance record without id")
			}
			return domain.NewInstance(uint32(id), typeTag, fields), nil
		}
		return domain.NewCell(uint32(id), typeTag, fields), nil
	}
}

func fieldsFromWire(w any, depth int) (domain.Fields, error) {
	raw, ok := w.([]any)
	if !ok && w != nil {
		return domain.Fields{}, corrupt("fields are %T", w)
	}
	out := make([]domain.Field, 0, len(raw))
	for _, r := range raw {
		pair, ok := r.([]any)
		if !ok || len(pair) != 2 {
			return domain.Fields{}, corrupt("field entry is %T", r)
		}
		name, ok := toString(pair[0])
		if !ok {
			return domain.Fields{}, corrupt("field name is %T", pair[0])
		}
		v, err := fromWire(pair[1], depth, false)
		if err != nil {
			return domain.Fields{}, err
		}
		out = append(out, domain.Field{Name: name, Value: v})
	}
	return domain.NewFields(out...), nil
}

// Decoded integers come back as whichever width the encoder chose.
func toUint(v any) (uint64, bool) {
	switch n := v.(type) {
	case uint64:
		return n, true
	case uint32:
		return uint64(n), true
	case uint16:
		return uint64(n), true
	case uint8:
		return uint64(n), true
	case uint:
		return uint64(n), true
	case int64:
		return uint64(n), n >= 0
	case int32:
		return uint64(n), n >= 0
	case int16:
		return uint64(n), n >= 0
	case int8:
		return uint64(n), n >= 0
	case int:
		return uint64(n), n >= 0
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}
	if u, ok := toUint(v); ok {
		return float64(u), true
	}
	if i, ok := v.(int64); ok {
		return float64(i), true
	}
	return 0, false
}

func toString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case []byte:
		return string(s), true
	}
	return "", false
}
