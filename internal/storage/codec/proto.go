package codec

import (
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/yndnr/worldsave-go/internal/core/domain"
)

// Field numbers of the node message. A node carries exactly one of them.
//
//	message Node {
//	  oneof value {
//	    uint64   null      = 1;
//	    double   number    = 2;
//	    string   text      = 3;
//	    uint32   reference = 4;
//	    List     list      = 5;
//	    Record   instance  = 6;
//	    Record   cell      = 7;
//	  }
//	}
//	message List   { repeated Node items = 1; }
//	message Record { uint32 id = 1; string type = 2; repeated Field fields = 3; }
//	message Field  { string name = 1; Node value = 2; }
//	message Blob   { repeated Node records = 1; }
const (
	fieldNull      protowire.Number = 1
	fieldNumber    protowire.Number = 2
	fieldText      protowire.Number = 3
	fieldReference protowire.Number = 4
	fieldList      protowire.Number = 5
	fieldInstance  protowire.Number = 6
	fieldCell      protowire.Number = 7

	fieldItems protowire.Number = 1

	fieldRecordID     protowire.Number = 1
	fieldRecordType   protowire.Number = 2
	fieldRecordFields protowire.Number = 3

	fieldName  protowire.Number = 1
	fieldValue protowire.Number = 2

	fieldRecords protowire.Number = 1
)

// Proto is the protobuf wire format codec.
type Proto struct{}

// Name implements Codec.
func (Proto) Name() string { return NameProto }

// Marshal implements Codec.
func (Proto) Marshal(records []domain.Node) ([]byte, error) {
	var b []byte
	for i, r := range records {
		body, err := appendNode(nil, r)
		if err != nil {
			return nil, domain.ErrInvalidArgument.WithDetailsf("record %d", i).WithCause(err)
		}
		b = protowire.AppendTag(b, fieldRecords, protowire.BytesType)
		b = protowire.AppendBytes(b, body)
	}
	return b, nil
}

func appendNode(b []byte, n domain.Node) ([]byte, error) {
	switch v := n.(type) {
	case nil, domain.Null:
		b = protowire.AppendTag(b, fieldNull, protowire.VarintType)
		b = protowire.AppendVarint(b, 0)
	case domain.Number:
		b = protowire.AppendTag(b, fieldNumber, protowire.Fixed64Type)
		b = protowire.AppendFixed64(b, math.Float64bits(float64(v)))
	case domain.Text:
		b = protowire.AppendTag(b, fieldText, protowire.BytesType)
		b = protowire.AppendString(b, string(v))
	case domain.Reference:
		b = protowire.AppendTag(b, fieldReference, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(v))
	case domain.List:
		var inner []byte
		for i := 0; i < v.Len(); i++ {
			item, err := appendNode(nil, v.At(i))
			if err != nil {
				return nil, err
			}
			inner = protowire.AppendTag(inner, fieldItems, protowire.BytesType)
			inner = protowire.AppendBytes(inner, item)
		}
		b = protowire.AppendTag(b, fieldList, protowire.BytesType)
		b = protowire.AppendBytes(b, inner)
	case *domain.Instance:
		body, err := appendRecord(nil, v.ID(), v.TypeTag(), v.Fields())
		if err != nil {
			return nil, err
		}
		b = protowire.AppendTag(b, fieldInstance, protowire.BytesType)
		b = protowire.AppendBytes(b, body)
	case *domain.Cell:
		body, err := appendRecord(nil, v.ID(), v.TypeTag(), v.Fields())
		if err != nil {
			return nil, err
		}
		b = protowire.AppendTag(b, fieldCell, protowire.BytesType)
		b = protowire.AppendBytes(b, body)
	default:
		return nil, domain.ErrUnsupportedValue.WithDetailsf("node %T", n)
	}
	return b, nil
}

func appendRecord(b []byte, id uint32, typeTag string, fields domain.Fields) ([]byte, error) {
	if id != 0 {
		b = protowire.AppendTag(b, fieldRecordID, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(id))
	}
	b = protowire.AppendTag(b, fieldRecordType, protowire.BytesType)
	b = protowire.AppendString(b, typeTag)
	for i := 0; i < fields.Len(); i++ {
		f := fields.At(i)
		value, err := appendNode(nil, f.Value)
		if err != nil {
			return nil, err
		}
		var fb []byte
		fb = protowire.AppendTag(fb, fieldName, protowire.BytesType)
		fb = protowire.AppendString(fb, f.Name)
		fb = protowire.AppendTag(fb, fieldValue, protowire.BytesType)
		fb = protowire.AppendBytes(fb, value)

		b = protowire.AppendTag(b, fieldRecordFields, protowire.BytesType)
		b = protowire.AppendBytes(b, fb)
	}
	return b, nil
}

// Unmarshal implements Codec.
func (Proto) Unmarshal(data []byte) ([]domain.Node, error) {
	var out []domain.Node
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, corrupt("blob tag").WithCause(protowire.ParseError(n))
		}
		data = data[n:]
		if num != fieldRecords || typ != protowire.BytesType {
			return nil, corrupt("unexpected blob field %d", num)
		}
		body, n := protowire.ConsumeBytes(data)
		if n < 0 {
			return nil, corrupt("record %d", len(out)).WithCause(protowire.ParseError(n))
		}
		data = data[n:]
		node, err := decodeNode(body, 0, true)
		if err != nil {
			return nil, err
		}
		out = append(out, node)
	}
	return out, nil
}

// decodeNode decodes a node message. Instances and cells are accepted only
// when record is set, i.e. at the top level of a blob.
func decodeNode(b []byte, depth int, record bool) (domain.Node, error) {
	if depth > maxDepth {
		return nil, corrupt("list nesting exceeds %d", maxDepth)
	}
	var (
		node domain.Node
		seen bool
	)
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, corrupt("node tag").WithCause(protowire.ParseError(n))
		}
		b = b[n:]
		if seen {
			return nil, corrupt("node carries more than one value")
		}
		seen = true

		switch {
		case num == fieldNull && typ == protowire.VarintType:
			_, n = protowire.ConsumeVarint(b)
			node = domain.Null{}
		case num == fieldNumber && typ == protowire.Fixed64Type:
			var bits uint64
			bits, n = protowire.ConsumeFixed64(b)
			node = domain.Number(math.Float64frombits(bits))
		case num == fieldText && typ == protowire.BytesType:
			var s []byte
			s, n = protowire.ConsumeBytes(b)
			node = domain.Text(s)
		case num == fieldReference && typ == protowire.VarintType:
			var v uint64
			v, n = protowire.ConsumeVarint(b)
			if n >= 0 && (v == 0 || v > math.MaxUint32) {
				return nil, corrupt("reference id %d out of range", v)
			}
			node = domain.Reference(uint32(v))
		case num == fieldList && typ == protowire.BytesType:
			var body []byte
			body, n = protowire.ConsumeBytes(b)
			if n >= 0 {
				list, err := decodeList(body, depth+1)
				if err != nil {
					return nil, err
				}
				node = list
			}
		case (num == fieldInstance || num == fieldCell) && typ == protowire.BytesType:
			if !record {
				return nil, corrupt("record nested inside a value")
			}
			var body []byte
			body, n = protowire.ConsumeBytes(b)
			if n >= 0 {
				id, typeTag, fields, err := decodeRecord(body, depth)
				if err != nil {
					return nil, err
				}
				if num == fieldInstance {
					if id == 0 {
						return nil, corrupt("instance record without id")
					}
					node = domain.NewInstance(id, typeTag, fields)
				} else {
					node = domain.NewCell(id, typeTag, fields)
				}
			}
		default:
			return nil, corrupt("unknown node field %d (wire type %d)", num, typ)
		}
		if n < 0 {
			return nil, corrupt("node field %d", num).WithCause(protowire.ParseError(n))
		}
		b = b[n:]
	}
	if !seen {
		return nil, corrupt("empty node")
	}
	return node, nil
}

func decodeList(b []byte, depth int) (domain.List, error) {
	var items []domain.Node
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return domain.List{}, corrupt("list tag").WithCause(protowire.ParseError(n))
		}
		b = b[n:]
		if num != fieldItems || typ != protowire.BytesType {
			return domain.List{}, corrupt("unexpected list field %d", num)
		}
		body, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return domain.List{}, corrupt("list item").WithCause(protowire.ParseError(n))
		}
		b = b[n:]
		item, err := decodeNode(body, depth, false)
		if err != nil {
			return domain.List{}, err
		}
		items = append(items, item)
	}
	return domain.NewList(items...), nil
}

func decodeRecord(b []byte, depth int) (uint32, string, domain.Fields, error) {
	var (
		id      uint32
		typeTag string
		fields  []domain.Field
	)
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return 0, "", domain.Fields{}, corrupt("record tag").WithCause(protowire.ParseError(n))
		}
		b = b[n:]
		switch {
		case num == fieldRecordID && typ == protowire.VarintType:
			var v uint64
			v, n = protowire.ConsumeVarint(b)
			if n >= 0 && v > math.MaxUint32 {
				return 0, "", domain.Fields{}, corrupt("record id %d out of range", v)
			}
			id = uint32(v)
		case num == fieldRecordType && typ == protowire.BytesType:
			var s []byte
			s, n = protowire.ConsumeBytes(b)
			typeTag = string(s)
		case num == fieldRecordFields && typ == protowire.BytesType:
			var body []byte
			body, n = protowire.ConsumeBytes(b)
			if n >= 0 {
				f, err := decodeField(body, depth)
				if err != nil {
					return 0, "", domain.Fields{}, err
				}
				fields = append(fields, f)
			}
		default:
			return 0, "", domain.Fields{}, corrupt("unknown record field %d", num)
		}
		if n < 0 {
			return 0, "", domain.Fields{}, corrupt("record field %d", num).WithCause(protowire.ParseError(n))
		}
		b = b[n:]
	}
	return id, typeTag, domain.NewFields(fields...), nil
}

func decodeField(b []byte, depth int) (domain.Field, error) {
	var (
		f        domain.Field
		hasValue bool
	)
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return f, corrupt("field tag").WithCause(protowire.ParseError(n))
		}
		b = b[n:]
		if typ != protowire.BytesType {
			return f, corrupt("unexpected field wire type %d", typ)
		}
		body, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return f, corrupt("field entry").WithCause(protowire.ParseError(n))
		}
		b = b[n:]
		switch num {
		case fieldName:
			f.Name = string(body)
		case fieldValue:
			v, err := decodeNode(body, depth, false)
			if err != nil {
				return f, err
			}
			f.Value = v
			hasValue = true
		default:
			return f, corrupt("unknown field entry %d", num)
		}
	}
	if !hasValue {
		return f, corrupt("field %q has no value", f.Name)
	}
	return f, nil
}
